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


package config

import (
	"log/slog"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/endpoint"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/lifecycle"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener/container"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener/handler"
)

const (
	// RegistryBeanName is the bean name of the listener endpoint registry.
	RegistryBeanName = "listenerEndpointRegistry"

	// RegistrarBeanName is the bean name of the listener endpoint registrar.
	RegistrarBeanName = "listenerEndpointRegistrar"

	factoryBeanPrefix = "listenerContainerFactory."
)

// FactoryBeanName returns the bean name a factory is registered under.
func FactoryBeanName(name string) string {
	return factoryBeanPrefix + name
}

// Wiring is the set of beans Wire registered.
type Wiring struct {
	Registry  *endpoint.Registry
	Registrar *endpoint.Registrar
	Factories map[string]*container.Factory
}

// NewFactory builds the container factory described by f.
func (f FactoryConfig) NewFactory(b broker.Broker) *container.Factory {
	return container.NewFactory(f.Name, b,
		container.WithConcurrency(ptr.Deref(f.Concurrency, container.DefaultConcurrency)),
		container.WithAutoStartup(ptr.Deref(f.AutoStartup, true)),
		container.WithPhase(ptr.Deref(f.Phase, listener.DefaultPhase)),
		container.WithRateLimit(ptr.Deref(f.RateLimit, 0)),
	)
}

// NewEndpoint builds the endpoint described by e with its handler resolved.
func (e EndpointConfig) NewEndpoint() (*listener.BasicEndpoint, error) {
	h, err := handler.Lookup(e.Handler)
	if err != nil {
		return nil, err
	}
	return &listener.BasicEndpoint{
		EndpointID:  e.ID,
		Destination: e.Destination,
		Group:       e.Group,
		Handler:     h,
	}, nil
}

// Wire registers the factories, a registry and a registrar as beans of lc
// and buffers every endpoint with the registrar. The endpoints are
// registered with the registry when lc is refreshed.
//
// Endpoints that name a factory get it passed explicitly; the others are
// resolved by the registrar through the default factory's bean name.
func (c *Config) Wire(lc *lifecycle.Context, b broker.Broker) (*Wiring, error) {
	w := &Wiring{
		Registry:  endpoint.NewRegistry(),
		Factories: make(map[string]*container.Factory, len(c.Factories)),
	}

	for _, fc := range c.Factories {
		f := fc.NewFactory(b)
		w.Factories[fc.Name] = f
		if err := lc.Register(FactoryBeanName(fc.Name), f); err != nil {
			return nil, err
		}
	}

	if err := lc.Register(RegistryBeanName, w.Registry); err != nil {
		return nil, err
	}

	opts := []endpoint.RegistrarOption{endpoint.WithRegistry(w.Registry)}
	if c.DefaultFactory != "" {
		opts = append(opts, endpoint.WithFactoryName(FactoryBeanName(c.DefaultFactory)))
	}
	w.Registrar = endpoint.NewRegistrar(opts...)
	if err := lc.Register(RegistrarBeanName, w.Registrar); err != nil {
		return nil, err
	}

	for _, ec := range c.Endpoints {
		ep, err := ec.NewEndpoint()
		if err != nil {
			return nil, err
		}

		var factory listener.Factory
		if ec.Factory != "" {
			f, ok := w.Factories[ec.Factory]
			if !ok {
				return nil, errors.NewWithContext(errors.ErrCodeNotFound, "unknown listener container factory",
					map[string]any{"endpoint": ec.ID, "factory": ec.Factory})
			}
			factory = f
		}
		if err := w.Registrar.RegisterEndpoint(ep, factory); err != nil {
			return nil, err
		}
	}

	slog.Info("listener configuration wired",
		"context", lc.ID(),
		"factories", len(w.Factories),
		"endpoints", w.Registrar.Pending())
	return w, nil
}
