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

package endpoint

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/lifecycle"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// State is the lifecycle state of a Registry.
type State int32

const (
	// StateCreated is the state before the owning context has been refreshed.
	StateCreated State = iota
	// StateReady is the state after the owning context has been refreshed.
	StateReady
	// StateStopping is the state while containers are being stopped.
	StateStopping
	// StateStopped is the state once every container has been stopped.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Registry creates the listener containers for registered endpoints and
// manages their lifecycle within the lifecycle of the owning context.
//
// Containers managed by a registry are not beans of the owning context.
// Use ListenerContainers to reach them for management purposes.
type Registry struct {
	// mu guards containers, order and phase. It is held across container
	// creation so the duplicate-id check and the insert are atomic.
	mu         sync.Mutex
	containers map[string]listener.Container
	order      []string
	phase      int

	contextMu sync.RWMutex
	contextID string

	refreshed atomic.Bool
	state     atomic.Int32
}

var (
	_ lifecycle.SmartLifecycle  = (*Registry)(nil)
	_ lifecycle.RefreshListener = (*Registry)(nil)
	_ lifecycle.ContextAware    = (*Registry)(nil)
	_ lifecycle.Disposer        = (*Registry)(nil)
)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		containers: make(map[string]listener.Container),
		phase:      listener.DefaultPhase,
	}
}

// SetContextID binds the registry to the context whose refresh events it honors.
func (r *Registry) SetContextID(id string) {
	r.contextMu.Lock()
	defer r.contextMu.Unlock()
	r.contextID = id
}

// OnContextRefreshed marks the registry refreshed when the event comes from
// its own context. Events from other contexts are ignored.
func (r *Registry) OnContextRefreshed(event lifecycle.RefreshedEvent) {
	r.contextMu.RLock()
	own := r.contextID
	r.contextMu.RUnlock()

	if own == "" || event.ContextID != own {
		slog.Debug("ignoring refresh event from foreign context",
			"event_context", event.ContextID,
			"registry_context", own)
		return
	}

	if r.refreshed.CompareAndSwap(false, true) {
		r.state.CompareAndSwap(int32(StateCreated), int32(StateReady))
		slog.Info("listener registry observed context refresh", "context", own)
	}
}

// Refreshed reports whether the owning context has been refreshed.
func (r *Registry) Refreshed() bool {
	return r.refreshed.Load()
}

// State returns the current lifecycle state.
func (r *Registry) State() State {
	return State(r.state.Load())
}

// ListenerContainers returns a snapshot of the managed containers in
// registration order. Mutating the returned slice does not affect the registry.
func (r *Registry) ListenerContainers() []listener.Container {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]listener.Container, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.containers[id])
	}
	return out
}

// ListenerContainerIDs returns the ids of the managed containers in registration order.
func (r *Registry) ListenerContainerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// ListenerContainer returns the container registered for id.
func (r *Registry) ListenerContainer(id string) (listener.Container, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[id]
	return c, ok
}

// RegisterListenerContainer creates a container for ep with factory and
// stores it under the endpoint id. When startImmediately is set the start
// policy is applied to the new container right away.
//
// Nothing is stored if the id is already taken, if the factory or the
// container's initialization fails, or if the container's phase conflicts
// with the registry's phase.
func (r *Registry) RegisterListenerContainer(ep listener.Endpoint, factory listener.Factory, startImmediately bool) error {
	if ep == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "endpoint must not be nil")
	}
	if factory == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "factory must not be nil")
	}
	id := ep.ID()
	if id == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "endpoint id must be set")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.containers[id]; exists {
		registrationsTotal.WithLabelValues(resultConflict).Inc()
		return errors.NewWithContext(errors.ErrCodeConflict,
			fmt.Sprintf("another endpoint is already registered with id '%s'", id),
			map[string]any{"endpoint": id})
	}

	c, err := r.createListenerContainer(ep, factory)
	if err != nil {
		registrationsTotal.WithLabelValues(resultError).Inc()
		return err
	}

	r.containers[id] = c
	r.order = append(r.order, id)
	if phase := c.Phase(); listener.IsCustomPhase(phase) {
		r.phase = phase
	}
	registrationsTotal.WithLabelValues(resultSuccess).Inc()

	slog.Info("registered listener container",
		"endpoint", id,
		"phase", c.Phase(),
		"autoStartup", c.IsAutoStartup(),
		"startImmediately", startImmediately)

	if startImmediately {
		r.startIfNecessary(id, c)
	}
	return nil
}

// createListenerContainer builds and initializes a container. Callers hold r.mu.
func (r *Registry) createListenerContainer(ep listener.Endpoint, factory listener.Factory) (listener.Container, error) {
	id := ep.ID()

	c, err := factory.CreateContainer(ep)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInitialization,
			"failed to create message listener container", err,
			map[string]any{"endpoint": id})
	}
	if isNil(c) {
		return nil, errors.NewWithContext(errors.ErrCodeInitialization,
			"factory returned no message listener container",
			map[string]any{"endpoint": id})
	}

	if init, ok := c.(listener.Initializer); ok {
		if err := init.Init(); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInitialization,
				"failed to initialize message listener container", err,
				map[string]any{"endpoint": id})
		}
	}

	containerPhase := c.Phase()
	if listener.IsCustomPhase(containerPhase) && listener.IsCustomPhase(r.phase) && r.phase != containerPhase {
		// Initialized but rejected: release what Init acquired.
		r.dispose(id, c)
		return nil, errors.NewWithContext(errors.ErrCodeInvalidState,
			fmt.Sprintf("encountered phase mismatch between container factory definitions: %d vs %d",
				r.phase, containerPhase),
			map[string]any{"endpoint": id, "registryPhase": r.phase, "containerPhase": containerPhase})
	}

	return c, nil
}

// isNil also catches a typed nil pointer wrapped in the interface.
func isNil(c listener.Container) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// startIfNecessary starts c if the context has been refreshed or the
// container asks to be started automatically.
func (r *Registry) startIfNecessary(id string, c listener.Container) {
	if r.refreshed.Load() || c.IsAutoStartup() {
		slog.Debug("starting listener container", "endpoint", id)
		containerStartsTotal.Inc()
		c.Start()
	}
}

type entry struct {
	id        string
	container listener.Container
}

func (r *Registry) snapshot() []entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, entry{id: id, container: r.containers[id]})
	}
	return out
}

// Start applies the start policy to every registered container. Already
// running containers are started again only if their own Start allows it.
func (r *Registry) Start() {
	if r.refreshed.Load() {
		r.state.Store(int32(StateReady))
	}
	for _, e := range r.snapshot() {
		r.startIfNecessary(e.id, e.container)
	}
}

// Stop synchronously stops every registered container regardless of its
// auto-startup setting.
func (r *Registry) Stop() {
	r.state.Store(int32(StateStopping))
	for _, e := range r.snapshot() {
		e.container.Stop()
	}
	r.state.Store(int32(StateStopped))
}

// StopAsync stops every registered container concurrently and calls done
// once, after the last container reports completion. With no containers
// done is called immediately. There is no timeout: a container that never
// completes its stop keeps done from firing.
func (r *Registry) StopAsync(done func()) {
	r.state.Store(int32(StateStopping))

	finish := func() {
		r.state.Store(int32(StateStopped))
		if done != nil {
			done()
		}
	}

	entries := r.snapshot()
	if len(entries) == 0 {
		finish()
		return
	}

	cb := newAggregatingCallback(len(entries), finish)
	for _, e := range entries {
		e.container.StopAsync(cb.notify)
	}
}

// IsRunning reports whether at least one container is running.
func (r *Registry) IsRunning() bool {
	for _, e := range r.snapshot() {
		if e.container.IsRunning() {
			return true
		}
	}
	return false
}

// IsAutoStartup is false: the registry starts on Start after the context
// refresh, not during it.
func (r *Registry) IsAutoStartup() bool {
	return false
}

// Phase returns the shared custom phase of the managed containers, or
// listener.DefaultPhase when none declared one.
func (r *Registry) Phase() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Destroy stops every container and runs its cleanup step. Failures are
// logged and never interrupt the sweep.
func (r *Registry) Destroy() error {
	for _, e := range r.snapshot() {
		r.dispose(e.id, e.container)
	}
	r.state.Store(int32(StateStopped))
	return nil
}

func (r *Registry) dispose(id string, c listener.Container) {
	defer func() {
		if rec := recover(); rec != nil {
			containerDestroyFailures.Inc()
			slog.Warn("failed to destroy message listener container",
				"endpoint", id,
				"panic", fmt.Sprintf("%v", rec))
		}
	}()

	if c.IsRunning() {
		c.Stop()
	}

	d, ok := c.(listener.Disposer)
	if !ok {
		return
	}
	if err := d.Destroy(); err != nil {
		containerDestroyFailures.Inc()
		slog.Warn("failed to destroy message listener container",
			"endpoint", id,
			"error", err)
	}
}
