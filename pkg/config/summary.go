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
	"strconv"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// Summary is a flattened view of the endpoints with their effective factory
// settings, suitable for table output.
type Summary struct {
	Endpoints []EndpointSummary `json:"endpoints" yaml:"endpoints"`
}

// EndpointSummary is one row of a Summary.
type EndpointSummary struct {
	ID          string  `json:"id" yaml:"id"`
	Destination string  `json:"destination" yaml:"destination"`
	Group       string  `json:"group,omitempty" yaml:"group,omitempty"`
	Factory     string  `json:"factory" yaml:"factory"`
	Handler     string  `json:"handler" yaml:"handler"`
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	AutoStartup bool    `json:"autoStartup" yaml:"autoStartup"`
	Phase       string  `json:"phase" yaml:"phase"`
	RateLimit   float64 `json:"rateLimit" yaml:"rateLimit"`
}

// Summary describes each endpoint with the settings it will run with.
// Call it on a defaulted, valid Config.
func (c *Config) Summary() Summary {
	byName := make(map[string]FactoryConfig, len(c.Factories))
	for _, f := range c.Factories {
		byName[f.Name] = f
	}

	s := Summary{Endpoints: make([]EndpointSummary, 0, len(c.Endpoints))}
	for _, ep := range c.Endpoints {
		name := ep.Factory
		if name == "" {
			name = c.DefaultFactory
		}
		f := byName[name]
		s.Endpoints = append(s.Endpoints, EndpointSummary{
			ID:          ep.ID,
			Destination: ep.Destination,
			Group:       ep.Group,
			Factory:     name,
			Handler:     ep.Handler,
			Concurrency: ptr.Deref(f.Concurrency, 1),
			AutoStartup: ptr.Deref(f.AutoStartup, true),
			Phase:       PhaseString(ptr.Deref(f.Phase, listener.DefaultPhase)),
			RateLimit:   ptr.Deref(f.RateLimit, 0),
		})
	}
	return s
}

// PhaseString renders a phase, showing the default phase as "default".
func PhaseString(phase int) string {
	if !listener.IsCustomPhase(phase) {
		return "default"
	}
	return strconv.Itoa(phase)
}

// Columns implements serializer.Tabular.
func (s Summary) Columns() []string {
	return []string{"id", "destination", "group", "factory", "handler", "concurrency", "autostartup", "phase", "ratelimit"}
}

// Rows implements serializer.Tabular.
func (s Summary) Rows() [][]string {
	rows := make([][]string, 0, len(s.Endpoints))
	for _, e := range s.Endpoints {
		group := e.Group
		if group == "" {
			group = "-"
		}
		rows = append(rows, []string{
			e.ID,
			e.Destination,
			group,
			e.Factory,
			e.Handler,
			strconv.Itoa(e.Concurrency),
			strconv.FormatBool(e.AutoStartup),
			e.Phase,
			strconv.FormatFloat(e.RateLimit, 'g', -1, 64),
		})
	}
	return rows
}
