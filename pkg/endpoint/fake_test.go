package endpoint

import (
	"sync"
	"sync/atomic"

	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

type fakeEndpoint string

func (e fakeEndpoint) ID() string { return string(e) }

// fakeContainer is a listener.Container with configurable behavior and call counters.
type fakeContainer struct {
	id           string
	autoStartup  bool
	phase        int
	initErr      error
	destroyErr   error
	destroyPanic bool
	asyncStop    bool

	running  atomic.Bool
	starts   atomic.Int32
	stops    atomic.Int32
	inits    atomic.Int32
	destroys atomic.Int32

	mu      sync.Mutex
	pending []func()
}

func (c *fakeContainer) Start() {
	c.starts.Add(1)
	c.running.Store(true)
}

func (c *fakeContainer) Stop() {
	c.stops.Add(1)
	c.running.Store(false)
}

func (c *fakeContainer) StopAsync(done func()) {
	if c.asyncStop {
		c.mu.Lock()
		c.pending = append(c.pending, func() {
			c.Stop()
			done()
		})
		c.mu.Unlock()
		return
	}
	c.Stop()
	done()
}

// completeStop runs the deferred stop completions.
func (c *fakeContainer) completeStop() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (c *fakeContainer) IsRunning() bool     { return c.running.Load() }
func (c *fakeContainer) IsAutoStartup() bool { return c.autoStartup }
func (c *fakeContainer) Phase() int          { return c.phase }

func (c *fakeContainer) Init() error {
	c.inits.Add(1)
	return c.initErr
}

func (c *fakeContainer) Destroy() error {
	c.destroys.Add(1)
	if c.destroyPanic {
		panic("destroy exploded")
	}
	return c.destroyErr
}

// fakeFactory builds fakeContainers, optionally customized per endpoint id.
type fakeFactory struct {
	mu        sync.Mutex
	created   []*fakeContainer
	customize func(c *fakeContainer)
	err       error
}

func (f *fakeFactory) CreateContainer(ep listener.Endpoint) (listener.Container, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeContainer{id: ep.ID(), phase: listener.DefaultPhase}
	if f.customize != nil {
		f.customize(c)
	}
	f.mu.Lock()
	f.created = append(f.created, c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeFactory) container(id string) *fakeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.created {
		if c.id == id {
			return c
		}
	}
	return nil
}

// fixedFactory always returns the same container.
func fixedFactory(c *fakeContainer) listener.Factory {
	return listener.FactoryFunc(func(listener.Endpoint) (listener.Container, error) {
		return c, nil
	})
}

var (
	_ listener.Container   = (*fakeContainer)(nil)
	_ listener.Initializer = (*fakeContainer)(nil)
	_ listener.Disposer    = (*fakeContainer)(nil)
)
