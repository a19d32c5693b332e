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


package container

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// Container consumes one endpoint's destination with a fixed pool of
// workers and passes every message to the endpoint handler.
type Container struct {
	endpoint       *listener.BasicEndpoint
	broker         broker.Broker
	concurrency    int
	autoStartup    bool
	phase          int
	handlerTimeout time.Duration
	limiter        *rate.Limiter

	// mu serializes Start, Stop and Destroy.
	mu        sync.Mutex
	cancel    context.CancelFunc
	group     *errgroup.Group
	release   func()
	destroyed bool

	running atomic.Bool
}

var (
	_ listener.Container   = (*Container)(nil)
	_ listener.Initializer = (*Container)(nil)
	_ listener.Disposer    = (*Container)(nil)
)

func newContainer(ep *listener.BasicEndpoint, f *Factory) *Container {
	c := &Container{
		endpoint:       ep,
		broker:         f.broker,
		concurrency:    f.concurrency,
		autoStartup:    f.autoStartup,
		phase:          f.phase,
		handlerTimeout: f.handlerTimeout,
	}
	if f.rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(f.rateLimit), max(1, f.concurrency))
	}
	return c
}

// Endpoint returns the endpoint the container consumes for.
func (c *Container) Endpoint() *listener.BasicEndpoint {
	return c.endpoint
}

// Init validates the container settings.
func (c *Container) Init() error {
	ctx := map[string]any{"endpoint": c.endpoint.EndpointID}
	switch {
	case c.broker == nil:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "broker must be set", ctx)
	case c.endpoint.Destination == "":
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "endpoint destination must be set", ctx)
	case c.endpoint.Handler == nil:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "endpoint handler must be set", ctx)
	case c.concurrency < 1:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("concurrency must be positive, got %d", c.concurrency), ctx)
	}
	return nil
}

// Start subscribes to the destination and launches the workers. Starting a
// running or destroyed container does nothing.
func (c *Container) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || c.running.Load() {
		return
	}
	if err := c.Init(); err != nil {
		slog.Error("refusing to start invalid listener container",
			"endpoint", c.endpoint.EndpointID, "error", err)
		return
	}

	ch, release := c.broker.Subscribe(c.endpoint.Destination, c.endpoint.Group)
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	for worker := range c.concurrency {
		g.Go(func() error {
			return c.consume(gctx, worker, ch)
		})
	}

	c.cancel = cancel
	c.group = g
	c.release = release
	c.running.Store(true)
	runningContainers.Inc()

	slog.Info("listener container started",
		"endpoint", c.endpoint.EndpointID,
		"destination", c.endpoint.Destination,
		"group", c.endpoint.Group,
		"workers", c.concurrency)
}

func (c *Container) consume(ctx context.Context, worker int, ch <-chan *broker.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					// Stopped while throttled; the message is dropped.
					slog.Debug("message dropped on stop",
						"endpoint", c.endpoint.EndpointID, "id", msg.ID, "worker", worker)
					return nil
				}
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Container) handle(ctx context.Context, msg *broker.Message) {
	id := c.endpoint.EndpointID
	start := time.Now()
	defer func() {
		handlerDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())
	}()
	defer func() {
		if rec := recover(); rec != nil {
			messagesFailed.WithLabelValues(id).Inc()
			slog.Error("message handler panicked",
				"endpoint", id, "id", msg.ID, "panic", fmt.Sprintf("%v", rec))
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	if err := c.endpoint.Handler(hctx, msg); err != nil {
		messagesFailed.WithLabelValues(id).Inc()
		slog.Warn("message handler failed", "endpoint", id, "id", msg.ID, "error", err)
		return
	}
	messagesHandled.WithLabelValues(id).Inc()
}

// Stop cancels the workers, waits for in-flight handlers and leaves the
// consumer group.
func (c *Container) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Container) stopLocked() {
	if !c.running.Load() {
		return
	}

	c.cancel()
	if err := c.group.Wait(); err != nil {
		slog.Warn("listener worker exited with error", "endpoint", c.endpoint.EndpointID, "error", err)
	}
	c.release()

	c.cancel, c.group, c.release = nil, nil, nil
	c.running.Store(false)
	runningContainers.Dec()

	slog.Info("listener container stopped", "endpoint", c.endpoint.EndpointID)
}

// StopAsync stops the container on its own goroutine and then calls done.
func (c *Container) StopAsync(done func()) {
	go func() {
		c.Stop()
		if done != nil {
			done()
		}
	}()
}

// IsRunning reports whether the workers are consuming.
func (c *Container) IsRunning() bool {
	return c.running.Load()
}

// IsAutoStartup reports whether the container starts before the owning
// context has been refreshed.
func (c *Container) IsAutoStartup() bool {
	return c.autoStartup
}

// Phase returns the container's lifecycle phase.
func (c *Container) Phase() int {
	return c.phase
}

// Destroy stops the container for good; later Starts are ignored.
func (c *Container) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.destroyed = true
	return nil
}
