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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/header"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener/container"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener/handler"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

// Config describes the listener container factories and the endpoints to
// register with them.
type Config struct {
	header.Header `json:",inline" yaml:",inline"`

	// DefaultFactory names the factory used by endpoints that do not name one.
	// With a single factory it defaults to that factory.
	DefaultFactory string `json:"defaultFactory,omitempty" yaml:"defaultFactory,omitempty"`

	Factories []FactoryConfig  `json:"factories" yaml:"factories"`
	Endpoints []EndpointConfig `json:"endpoints" yaml:"endpoints"`
}

// FactoryConfig holds the settings shared by the containers of one factory.
// Nil fields take their defaults in ApplyDefaults.
type FactoryConfig struct {
	Name        string   `json:"name" yaml:"name"`
	Concurrency *int     `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	AutoStartup *bool    `json:"autoStartup,omitempty" yaml:"autoStartup,omitempty"`
	Phase       *int     `json:"phase,omitempty" yaml:"phase,omitempty"`
	RateLimit   *float64 `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
}

// EndpointConfig binds a destination and consumer group to a named handler.
type EndpointConfig struct {
	ID          string `json:"id" yaml:"id"`
	Destination string `json:"destination" yaml:"destination"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Factory     string `json:"factory,omitempty" yaml:"factory,omitempty"`
	Handler     string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Load reads the configuration at uri (file, http(s) URL or
// cm://namespace/name), applies defaults and validates it.
func Load(ctx context.Context, uri string, opts ...serializer.LoadOption) (*Config, error) {
	cfg, err := serializer.Load[Config](ctx, uri, opts...)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to load listener configuration", err,
			map[string]any{"source": uri})
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("listener configuration loaded",
		"source", uri,
		"factories", len(cfg.Factories),
		"endpoints", len(cfg.Endpoints))
	return cfg, nil
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.DefaultFactory == "" && len(c.Factories) == 1 {
		c.DefaultFactory = c.Factories[0].Name
	}

	for i := range c.Factories {
		f := &c.Factories[i]
		if f.Concurrency == nil {
			f.Concurrency = ptr.To(container.DefaultConcurrency)
		}
		if f.AutoStartup == nil {
			f.AutoStartup = ptr.To(true)
		}
		if f.Phase == nil {
			f.Phase = ptr.To(listener.DefaultPhase)
		}
		if f.RateLimit == nil {
			f.RateLimit = ptr.To(0.0)
		}
	}

	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		if ep.Destination == "" {
			ep.Destination = ep.ID
		}
		if ep.Handler == "" {
			ep.Handler = handler.Log
		}
	}
}

// Validate reports every problem found as one INVALID_REQUEST error whose
// context carries the individual problems.
func (c *Config) Validate() error {
	problems := c.Check(header.KindListenerConfiguration)
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.Factories) == 0 {
		addf("at least one factory is required")
	}

	factories := make(map[string]bool, len(c.Factories))
	customPhase, customPhaseFactory := 0, ""
	for i, f := range c.Factories {
		switch {
		case f.Name == "":
			addf("factories[%d]: name is required", i)
		case factories[f.Name]:
			addf("factories[%d]: duplicate factory name %q", i, f.Name)
		}
		factories[f.Name] = true

		if n := ptr.Deref(f.Concurrency, container.DefaultConcurrency); n < 1 {
			addf("factory %q: concurrency must be positive, got %d", f.Name, n)
		}
		if r := ptr.Deref(f.RateLimit, 0); r < 0 {
			addf("factory %q: rateLimit must not be negative, got %g", f.Name, r)
		}
		// All containers share one registry, so custom phases must agree.
		if p := ptr.Deref(f.Phase, listener.DefaultPhase); listener.IsCustomPhase(p) {
			if customPhaseFactory == "" {
				customPhase, customPhaseFactory = p, f.Name
			} else if p != customPhase {
				addf("factory %q: phase %d conflicts with phase %d of factory %q",
					f.Name, p, customPhase, customPhaseFactory)
			}
		}
	}

	if c.DefaultFactory != "" && !factories[c.DefaultFactory] {
		addf("defaultFactory %q is not a declared factory", c.DefaultFactory)
	}

	ids := make(map[string]bool, len(c.Endpoints))
	for i, ep := range c.Endpoints {
		if ep.ID == "" {
			addf("endpoints[%d]: id is required", i)
		} else if ids[ep.ID] {
			addf("endpoints[%d]: duplicate endpoint id %q", i, ep.ID)
		}
		ids[ep.ID] = true

		if ep.Destination == "" {
			addf("endpoint %q: destination is required", ep.ID)
		}
		switch {
		case ep.Factory != "" && !factories[ep.Factory]:
			addf("endpoint %q: unknown factory %q", ep.ID, ep.Factory)
		case ep.Factory == "" && c.DefaultFactory == "":
			addf("endpoint %q: no factory given and no defaultFactory set", ep.ID)
		}
		if _, err := handler.Lookup(ep.Handler); err != nil {
			addf("endpoint %q: unknown handler %q (available: %s)",
				ep.ID, ep.Handler, strings.Join(handler.Names(), ", "))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.NewWithContext(errors.ErrCodeInvalidRequest,
		"invalid listener configuration: "+strings.Join(problems, "; "),
		map[string]any{"problems": problems})
}
