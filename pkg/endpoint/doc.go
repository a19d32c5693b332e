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


// Package endpoint registers listener endpoints and manages the lifecycle of
// the listener containers created for them.
//
// # Registrar
//
// A Registrar collects endpoint registrations while the application is
// being assembled. Registrations are buffered until Init (or
// RegisterAllEndpoints) runs, at which point they are handed to a Registry
// in insertion order. From then on every registration goes straight to the
// registry and is started at once if the start policy allows it.
//
// Factory resolution, first match wins:
//
//  1. the factory passed with the endpoint
//  2. the registrar's default factory (WithDefaultFactory)
//  3. the bean named by WithFactoryName, looked up once and cached
//
// When a bean source exposing SingletonMutex is set, the registrar shares
// that lock so buffering and flushing never interleave with bean
// registration.
//
// # Registry
//
// A Registry owns one listener.Container per endpoint id:
//
//	reg := endpoint.NewRegistry()
//	err := reg.RegisterListenerContainer(ep, factory, true)
//
// Registration is atomic. A duplicate id, a factory error, an Init error or
// a phase conflict leaves the registry unchanged.
//
// Start policy: a container is started when registration asks for it and
// either the owning context has been refreshed or the container is
// auto-startup. Refresh events are honored only when they carry the id of
// the context the registry was registered with.
//
// StopAsync stops all containers concurrently and calls its callback once,
// after the last container reports completion:
//
//	reg.StopAsync(func() {
//	    slog.Info("all listener containers stopped")
//	})
//
// Destroy stops and cleans up every container. Cleanup failures, panics
// included, are logged and counted but never abort the sweep.
//
// # Metrics
//
//   - cnm_listener_registrations_total{result}: registrations by outcome
//   - cnm_listener_container_starts_total: start requests issued
//   - cnm_listener_container_destroy_failures_total: recovered cleanup failures
//   - cnm_listener_pending_endpoints: endpoints buffered awaiting flush
package endpoint
