// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lifecycle

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/cloud-native-messaging/pkg/defaults"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
)

// Option configures a Context.
type Option func(*Context)

// WithID overrides the generated context id.
func WithID(id string) Option {
	return func(c *Context) {
		if id != "" {
			c.id = id
		}
	}
}

// WithStopTimeout bounds the wait for each stop phase during Close.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Context) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// Context is a host application context: a set of named beans driven through
// refresh and close.
type Context struct {
	id          string
	stopTimeout time.Duration

	// singletonMu serializes bean registration.
	singletonMu sync.Mutex

	beansMu sync.RWMutex
	beans   map[string]any
	order   []string

	// stateMu serializes Refresh and Close.
	stateMu   sync.Mutex
	refreshed atomic.Bool
	closed    bool
}

var _ BeanSource = (*Context)(nil)

// New creates an empty Context with a random id.
func New(opts ...Option) *Context {
	c := &Context{
		id:          uuid.New().String(),
		stopTimeout: defaults.LifecycleStopTimeout,
		beans:       make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the context id carried by its refresh events.
func (c *Context) ID() string {
	return c.id
}

// SingletonMutex returns the lock that serializes bean registration.
func (c *Context) SingletonMutex() sync.Locker {
	return &c.singletonMu
}

// Refreshed reports whether Refresh has completed.
func (c *Context) Refreshed() bool {
	return c.refreshed.Load()
}

// Register adds bean under name and runs its awareness hooks.
func (c *Context) Register(name string, bean any) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "bean name must be set")
	}
	if bean == nil {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "bean must not be nil",
			map[string]any{"bean": name})
	}

	c.singletonMu.Lock()
	defer c.singletonMu.Unlock()

	c.beansMu.Lock()
	if _, exists := c.beans[name]; exists {
		c.beansMu.Unlock()
		return errors.NewWithContext(errors.ErrCodeConflict,
			fmt.Sprintf("bean %q is already registered", name),
			map[string]any{"bean": name})
	}
	c.beans[name] = bean
	c.order = append(c.order, name)
	c.beansMu.Unlock()

	if aware, ok := bean.(ContextAware); ok {
		aware.SetContextID(c.id)
	}
	if aware, ok := bean.(BeanSourceAware); ok {
		aware.SetBeanSource(c)
	}

	slog.Debug("registered bean", "context", c.id, "bean", name, "type", fmt.Sprintf("%T", bean))
	return nil
}

// MustRegister is Register that panics on error.
func (c *Context) MustRegister(name string, bean any) {
	if err := c.Register(name, bean); err != nil {
		panic(err)
	}
}

// Bean returns the bean registered under name.
func (c *Context) Bean(name string) (any, error) {
	c.beansMu.RLock()
	defer c.beansMu.RUnlock()

	b, ok := c.beans[name]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("no bean named %q", name),
			map[string]any{"bean": name, "context": c.id})
	}
	return b, nil
}

// BeanNames returns the registered bean names in registration order.
func (c *Context) BeanNames() []string {
	c.beansMu.RLock()
	defer c.beansMu.RUnlock()

	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

type namedBean struct {
	name string
	bean any
}

func (c *Context) snapshot() []namedBean {
	c.beansMu.RLock()
	defer c.beansMu.RUnlock()

	out := make([]namedBean, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, namedBean{name: name, bean: c.beans[name]})
	}
	return out
}

// Refresh initializes every Initializer bean, starts auto-startup lifecycle
// beans by ascending phase and then notifies RefreshListener beans.
// A context refreshes at most once.
func (c *Context) Refresh(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return errors.New(errors.ErrCodeInvalidState, "context is closed")
	}
	if c.refreshed.Load() {
		return errors.New(errors.ErrCodeInvalidState, "context has already been refreshed")
	}

	beans := c.snapshot()

	for _, nb := range beans {
		init, ok := nb.bean.(Initializer)
		if !ok {
			continue
		}
		if err := init.Init(); err != nil {
			return errors.WrapWithContext(errors.ErrCodeInitialization,
				fmt.Sprintf("failed to initialize bean %q", nb.name), err,
				map[string]any{"bean": nb.name, "context": c.id})
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, "refresh interrupted", err)
	}

	for _, nb := range byPhase(beans, true) {
		lc := nb.bean.(SmartLifecycle)
		if !lc.IsAutoStartup() || lc.IsRunning() {
			continue
		}
		slog.Debug("starting lifecycle bean", "bean", nb.name, "phase", lc.Phase())
		lc.Start()
	}

	c.refreshed.Store(true)

	event := RefreshedEvent{ContextID: c.id, Time: time.Now().UTC()}
	for _, nb := range beans {
		if l, ok := nb.bean.(RefreshListener); ok {
			l.OnContextRefreshed(event)
		}
	}

	slog.Info("context refreshed", "context", c.id, "beans", len(beans))
	return nil
}

// Close stops running lifecycle beans by descending phase, then destroys
// Disposer beans in reverse registration order. A bean that did not finish
// stopping within its phase is not destroyed. Destroy failures are logged
// and returned joined; they never stop the sweep. Close is idempotent.
func (c *Context) Close(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	beans := c.snapshot()

	phases := make(map[int][]namedBean)
	var order []int
	for _, nb := range byPhase(beans, false) {
		p := nb.bean.(SmartLifecycle).Phase()
		if _, seen := phases[p]; !seen {
			order = append(order, p)
		}
		phases[p] = append(phases[p], nb)
	}
	stuck := make(map[string]bool)
	for _, p := range order {
		for _, name := range c.stopPhase(ctx, p, phases[p]) {
			stuck[name] = true
		}
	}

	var errs []error
	for i := len(beans) - 1; i >= 0; i-- {
		if stuck[beans[i].name] {
			// Destroy would wait on the stop that is still running.
			slog.Warn("skipping destroy of bean that did not stop", "bean", beans[i].name)
			continue
		}
		if err := destroy(beans[i]); err != nil {
			slog.Warn("failed to destroy bean", "bean", beans[i].name, "error", err)
			errs = append(errs, err)
		}
	}

	slog.Info("context closed", "context", c.id)
	return stderrors.Join(errs...)
}

// stopPhase stops the running beans of one phase concurrently and waits for
// all of them, the stop timeout, or ctx, whichever comes first. It returns
// the names of the beans that had not finished stopping.
func (c *Context) stopPhase(ctx context.Context, phase int, beans []namedBean) []string {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		pending = make(map[string]bool)
	)
	for _, nb := range beans {
		lc := nb.bean.(SmartLifecycle)
		if !lc.IsRunning() {
			continue
		}
		wg.Add(1)
		mu.Lock()
		pending[nb.name] = true
		mu.Unlock()

		var once sync.Once
		name := nb.name
		slog.Debug("stopping lifecycle bean", "bean", name, "phase", phase)
		lc.StopAsync(func() {
			once.Do(func() {
				mu.Lock()
				delete(pending, name)
				mu.Unlock()
				wg.Done()
			})
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(c.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		err := errors.NewWithContext(errors.ErrCodeTimeout, "lifecycle phase did not stop in time",
			map[string]any{"phase": phase, "timeout": c.stopTimeout.String()})
		slog.Warn("shutdown phase timed out", "phase", phase, "error", err)
	case <-ctx.Done():
		slog.Warn("shutdown interrupted", "phase", phase, "error", ctx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	stuck := make([]string, 0, len(pending))
	for name := range pending {
		stuck = append(stuck, name)
	}
	return stuck
}

func destroy(nb namedBean) (err error) {
	d, ok := nb.bean.(Disposer)
	if !ok {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewWithContext(errors.ErrCodeInternal,
				fmt.Sprintf("panic while destroying bean %q: %v", nb.name, rec),
				map[string]any{"bean": nb.name})
		}
	}()
	if derr := d.Destroy(); derr != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			fmt.Sprintf("failed to destroy bean %q", nb.name), derr,
			map[string]any{"bean": nb.name})
	}
	return nil
}

// byPhase returns the SmartLifecycle beans sorted by phase, keeping
// registration order within a phase.
func byPhase(beans []namedBean, ascending bool) []namedBean {
	var out []namedBean
	for _, nb := range beans {
		if _, ok := nb.bean.(SmartLifecycle); ok {
			out = append(out, nb)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi := out[i].bean.(SmartLifecycle).Phase()
		pj := out[j].bean.(SmartLifecycle).Phase()
		if ascending {
			return pi < pj
		}
		return pi > pj
	})
	return out
}

// Run refreshes the context, blocks until ctx is done and closes it with
// a fresh context bounded by shutdownTimeout.
func (c *Context) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := c.Refresh(ctx); err != nil {
		closeErr := c.Close(context.Background())
		return stderrors.Join(err, closeErr)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return c.Close(shutdownCtx)
}
