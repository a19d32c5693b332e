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
	"sync"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/lifecycle"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// descriptor is a buffered registration. factory may be nil, in which case
// it is resolved right before the container is created.
type descriptor struct {
	endpoint listener.Endpoint
	factory  listener.Factory
}

// mutexSource is implemented by bean sources that serialize object
// construction with a lock the registrar should share.
type mutexSource interface {
	SingletonMutex() sync.Locker
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithRegistry sets the registry that receives flushed endpoints.
func WithRegistry(reg *Registry) RegistrarOption {
	return func(r *Registrar) {
		r.registry = reg
	}
}

// WithDefaultFactory sets the factory used for endpoints registered without one.
func WithDefaultFactory(f listener.Factory) RegistrarOption {
	return func(r *Registrar) {
		r.containerFactory = f
	}
}

// WithFactoryName names a factory bean to resolve from the bean source when
// neither an explicit nor a default factory is available.
func WithFactoryName(name string) RegistrarOption {
	return func(r *Registrar) {
		r.containerFactoryName = name
	}
}

// WithBeanSource sets the bean source; see SetBeanSource.
func WithBeanSource(src lifecycle.BeanSource) RegistrarOption {
	return func(r *Registrar) {
		r.SetBeanSource(src)
	}
}

// WithMutex sets the lock that serializes registration and flush. It
// applies at construction, before any concurrent use.
func WithMutex(mu sync.Locker) RegistrarOption {
	return func(r *Registrar) {
		if mu != nil {
			r.mutex = mu
		}
	}
}

// Registrar buffers endpoint registrations until its Init hook runs, then
// registers them with a Registry. Later registrations go straight to the
// registry and are started at once if the start policy allows it.
//
// The lock is chosen during setup: WithMutex and SetBeanSource replace it
// without synchronization, so both must run before the Registrar is used
// from more than one goroutine. The lifecycle context calls SetBeanSource
// from Register, before Refresh runs Init.
type Registrar struct {
	registry             *Registry
	containerFactory     listener.Factory
	containerFactoryName string
	beanSource           lifecycle.BeanSource

	mutex            sync.Locker
	descriptors      []descriptor
	startImmediately bool
}

var (
	_ lifecycle.Initializer     = (*Registrar)(nil)
	_ lifecycle.BeanSourceAware = (*Registrar)(nil)
)

// NewRegistrar creates a Registrar guarded by a private lock unless a shared
// lock is supplied through WithMutex or a bean source that exposes one.
func NewRegistrar(opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		mutex: &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetBeanSource sets the source used to look up a factory by name. When the
// source exposes a singleton mutex, the registrar adopts it so flushing never
// races the source's own object construction. Call before any registration.
func (r *Registrar) SetBeanSource(src lifecycle.BeanSource) {
	r.beanSource = src
	if ms, ok := src.(mutexSource); ok {
		if mu := ms.SingletonMutex(); mu != nil {
			r.mutex = mu
		}
	}
}

// Registry returns the registry endpoints are flushed to.
func (r *Registrar) Registry() *Registry {
	return r.registry
}

// Init registers every buffered endpoint. It is the hook a lifecycle
// coordinator calls once all properties are set.
func (r *Registrar) Init() error {
	return r.RegisterAllEndpoints()
}

// RegisterAllEndpoints registers the buffered endpoints in the order they
// were added and switches the registrar to immediate registration.
//
// If an entry fails, the entries before it stay registered, the failing
// entry and those after it stay buffered, and the error is returned.
func (r *Registrar) RegisterAllEndpoints() error {
	if r.registry == nil {
		return errors.New(errors.ErrCodeInvalidState, "no listener endpoint registry set")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, d := range r.descriptors {
		if err := r.register(d, true); err != nil {
			r.descriptors = r.descriptors[i:]
			pendingEndpoints.Sub(float64(i))
			return err
		}
	}

	pendingEndpoints.Sub(float64(len(r.descriptors)))
	slog.Debug("flushed listener endpoints", "count", len(r.descriptors))
	r.descriptors = nil
	r.startImmediately = true
	return nil
}

// RegisterEndpoint registers ep with an optional factory override. factory
// may be nil to use the registrar's default.
func (r *Registrar) RegisterEndpoint(ep listener.Endpoint, factory listener.Factory) error {
	if ep == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "endpoint must not be nil")
	}
	if ep.ID() == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "endpoint id must be set")
	}

	d := descriptor{endpoint: ep, factory: factory}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.startImmediately {
		if r.registry == nil {
			return errors.New(errors.ErrCodeInvalidState, "no listener endpoint registry set")
		}
		return r.register(d, true)
	}

	r.descriptors = append(r.descriptors, d)
	pendingEndpoints.Inc()
	return nil
}

// Pending returns the number of buffered endpoints.
func (r *Registrar) Pending() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.descriptors)
}

// register resolves the factory for d and hands it to the registry. Callers hold r.mutex.
func (r *Registrar) register(d descriptor, startImmediately bool) error {
	factory, err := r.resolveContainerFactory(d)
	if err != nil {
		return err
	}
	return r.registry.RegisterListenerContainer(d.endpoint, factory, startImmediately)
}

func (r *Registrar) resolveContainerFactory(d descriptor) (listener.Factory, error) {
	switch {
	case d.factory != nil:
		return d.factory, nil
	case r.containerFactory != nil:
		return r.containerFactory, nil
	case r.containerFactoryName != "":
		if r.beanSource == nil {
			return nil, errors.New(errors.ErrCodeInvalidState,
				"bean source must be set to obtain container factory by name")
		}
		bean, err := r.beanSource.Bean(r.containerFactoryName)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidState,
				fmt.Sprintf("failed to resolve container factory %q", r.containerFactoryName), err,
				map[string]any{"endpoint": d.endpoint.ID(), "factory": r.containerFactoryName})
		}
		f, ok := bean.(listener.Factory)
		if !ok {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidState,
				fmt.Sprintf("bean %q is not a listener container factory (%T)", r.containerFactoryName, bean),
				map[string]any{"endpoint": d.endpoint.ID(), "factory": r.containerFactoryName})
		}
		// Resolved once; later registrations reuse it.
		r.containerFactory = f
		return f, nil
	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidState,
			fmt.Sprintf("could not resolve the listener container factory to use for [%s]: "+
				"no factory was given and no default is set", d.endpoint.ID()),
			map[string]any{"endpoint": d.endpoint.ID()})
	}
}
