package container

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

func newEndpoint(id string, h listener.HandlerFunc) *listener.BasicEndpoint {
	return &listener.BasicEndpoint{EndpointID: id, Destination: id, Group: "test", Handler: h}
}

func mustCreate(t *testing.T, f *Factory, ep listener.Endpoint) *Container {
	t.Helper()
	c, err := f.CreateContainer(ep)
	require.NoError(t, err)
	require.NoError(t, c.(listener.Initializer).Init())
	return c.(*Container)
}

func publish(t *testing.T, b broker.Broker, dest string, payload string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := b.Publish(ctx, dest, []byte(payload), nil)
	require.NoError(t, err)
}

func TestFactory_Defaults(t *testing.T) {
	f := NewFactory("default", broker.NewMemory())
	c := mustCreate(t, f, newEndpoint("a", func(context.Context, *broker.Message) error { return nil }))

	assert.Equal(t, "default", f.Name())
	assert.True(t, c.IsAutoStartup())
	assert.Equal(t, listener.DefaultPhase, c.Phase())
	assert.False(t, c.IsRunning())
	assert.Contains(t, f.String(), "concurrency=1")
}

func TestFactory_Options(t *testing.T) {
	f := NewFactory("custom", broker.NewMemory(),
		WithConcurrency(3),
		WithAutoStartup(false),
		WithPhase(10),
		WithRateLimit(5),
		WithHandlerTimeout(time.Second),
	)
	c := mustCreate(t, f, newEndpoint("a", func(context.Context, *broker.Message) error { return nil }))

	assert.False(t, c.IsAutoStartup())
	assert.Equal(t, 10, c.Phase())
	assert.Equal(t, 3, c.concurrency)
	assert.Equal(t, time.Second, c.handlerTimeout)
	require.NotNil(t, c.limiter)
	assert.Equal(t, 3, c.limiter.Burst())
}

func TestFactory_RejectsUnsupportedEndpoints(t *testing.T) {
	f := NewFactory("default", broker.NewMemory())

	_, err := f.CreateContainer(otherEndpoint("x"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = f.CreateContainer((*listener.BasicEndpoint)(nil))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

type otherEndpoint string

func (e otherEndpoint) ID() string { return string(e) }

func TestContainer_InitValidation(t *testing.T) {
	ok := func(context.Context, *broker.Message) error { return nil }

	tests := []struct {
		name    string
		broker  broker.Broker
		ep      *listener.BasicEndpoint
		opts    []Option
		wantErr bool
	}{
		{name: "valid", broker: broker.NewMemory(), ep: newEndpoint("a", ok)},
		{name: "no broker", broker: nil, ep: newEndpoint("a", ok), wantErr: true},
		{name: "no destination", broker: broker.NewMemory(),
			ep: &listener.BasicEndpoint{EndpointID: "a", Handler: ok}, wantErr: true},
		{name: "no handler", broker: broker.NewMemory(), ep: newEndpoint("a", nil), wantErr: true},
		{name: "zero concurrency", broker: broker.NewMemory(), ep: newEndpoint("a", ok),
			opts: []Option{WithConcurrency(0)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewFactory("f", tt.broker, tt.opts...).CreateContainer(tt.ep)
			require.NoError(t, err)
			err = c.(*Container).Init()
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestContainer_DeliversMessages(t *testing.T) {
	b := broker.NewMemory()
	got := make(chan string, 10)
	c := mustCreate(t, NewFactory("f", b, WithConcurrency(2)), newEndpoint("orders",
		func(_ context.Context, m *broker.Message) error {
			got <- string(m.Payload)
			return nil
		}))

	c.Start()
	require.True(t, c.IsRunning())
	defer c.Stop()

	publish(t, b, "orders", "one")
	publish(t, b, "orders", "two")

	received := map[string]bool{}
	for range 2 {
		select {
		case p := <-got:
			received[p] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	assert.Equal(t, map[string]bool{"one": true, "two": true}, received)
}

func TestContainer_HandlerFailuresAreCounted(t *testing.T) {
	b := broker.NewMemory()
	var calls atomic.Int32
	c := mustCreate(t, NewFactory("f", b), newEndpoint("failing",
		func(_ context.Context, m *broker.Message) error {
			if calls.Add(1) == 1 {
				panic("boom")
			}
			return stderrors.New("handler failed")
		}))

	before := testutil.ToFloat64(messagesFailed.WithLabelValues("failing"))
	c.Start()
	defer c.Stop()

	publish(t, b, "failing", "a")
	publish(t, b, "failing", "b")

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(messagesFailed.WithLabelValues("failing"))-before == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, c.IsRunning(), "failures never stop the workers")
}

func TestContainer_StopLeavesGroup(t *testing.T) {
	b := broker.NewMemory()
	c := mustCreate(t, NewFactory("f", b), newEndpoint("a",
		func(context.Context, *broker.Message) error { return nil }))

	c.Start()
	c.Start()
	assert.Equal(t, 1, b.Destinations())

	c.Stop()
	assert.False(t, c.IsRunning())
	assert.Equal(t, 0, b.Destinations())

	// stopping twice is harmless
	c.Stop()

	// restartable until destroyed
	c.Start()
	assert.True(t, c.IsRunning())
	require.NoError(t, c.Destroy())
	assert.False(t, c.IsRunning())

	c.Start()
	assert.False(t, c.IsRunning())
}

func TestContainer_StopWaitsForInFlightHandler(t *testing.T) {
	b := broker.NewMemory()
	entered := make(chan struct{})
	var finished atomic.Bool
	c := mustCreate(t, NewFactory("f", b), newEndpoint("slow",
		func(ctx context.Context, _ *broker.Message) error {
			close(entered)
			<-ctx.Done()
			finished.Store(true)
			return ctx.Err()
		}))

	c.Start()
	publish(t, b, "slow", "x")
	<-entered

	c.Stop()
	assert.True(t, finished.Load())
}

func TestContainer_StopAsync(t *testing.T) {
	b := broker.NewMemory()
	c := mustCreate(t, NewFactory("f", b), newEndpoint("a",
		func(context.Context, *broker.Message) error { return nil }))
	c.Start()

	done := make(chan struct{})
	c.StopAsync(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop callback not invoked")
	}
	assert.False(t, c.IsRunning())

	// nil callback on a stopped container
	c.StopAsync(nil)
}

func TestContainer_StartRefusesInvalid(t *testing.T) {
	c, err := NewFactory("f", broker.NewMemory()).CreateContainer(newEndpoint("a", nil))
	require.NoError(t, err)

	c.Start()
	assert.False(t, c.IsRunning())
}
