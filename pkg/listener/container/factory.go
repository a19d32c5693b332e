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
	"fmt"
	"time"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/defaults"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// DefaultConcurrency is the number of workers per container when none is set.
const DefaultConcurrency = 1

// Option configures a Factory.
type Option func(*Factory)

// WithConcurrency sets the number of workers each container runs.
func WithConcurrency(n int) Option {
	return func(f *Factory) {
		f.concurrency = n
	}
}

// WithAutoStartup sets whether containers start without waiting for the
// owning context to be refreshed.
func WithAutoStartup(auto bool) Option {
	return func(f *Factory) {
		f.autoStartup = auto
	}
}

// WithPhase sets the lifecycle phase of the containers.
func WithPhase(phase int) Option {
	return func(f *Factory) {
		f.phase = phase
	}
}

// WithRateLimit caps each container at perSecond messages per second.
// Zero or less disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(f *Factory) {
		f.rateLimit = perSecond
	}
}

// WithHandlerTimeout bounds a single handler invocation.
func WithHandlerTimeout(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.handlerTimeout = d
		}
	}
}

// Factory builds broker-backed listener containers that share one set of
// settings.
type Factory struct {
	name           string
	broker         broker.Broker
	concurrency    int
	autoStartup    bool
	phase          int
	rateLimit      float64
	handlerTimeout time.Duration
}

var _ listener.Factory = (*Factory)(nil)

// NewFactory creates a Factory whose containers subscribe through b.
// Containers are auto-startup and in the default phase unless configured
// otherwise.
func NewFactory(name string, b broker.Broker, opts ...Option) *Factory {
	f := &Factory{
		name:           name,
		broker:         b,
		concurrency:    DefaultConcurrency,
		autoStartup:    true,
		phase:          listener.DefaultPhase,
		handlerTimeout: defaults.MessageHandlerTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return f.name
}

func (f *Factory) String() string {
	return fmt.Sprintf("Factory[name=%s concurrency=%d autoStartup=%t phase=%d rateLimit=%g]",
		f.name, f.concurrency, f.autoStartup, f.phase, f.rateLimit)
}

// CreateContainer builds a Container for ep, which must be a
// *listener.BasicEndpoint. The container is validated by its Init.
func (f *Factory) CreateContainer(ep listener.Endpoint) (listener.Container, error) {
	be, ok := ep.(*listener.BasicEndpoint)
	if !ok || be == nil {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("factory %q supports only basic endpoints, got %T", f.name, ep),
			map[string]any{"factory": f.name})
	}
	return newContainer(be, f), nil
}
