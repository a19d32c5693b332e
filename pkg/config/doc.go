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


// Package config loads the listener configuration and wires it into a
// lifecycle context.
//
// # Schema
//
//	defaultFactory: default
//	factories:
//	  - name: default
//	    concurrency: 1      # workers per container
//	    autoStartup: true   # start before the context refresh completes
//	    phase: 0            # omit for the default phase
//	    rateLimit: 0        # messages per second per container, 0 = unlimited
//	endpoints:
//	  - id: orders
//	    destination: orders # defaults to id
//	    group: billing
//	    factory: ""         # defaults to defaultFactory
//	    handler: log        # defaults to log
//
// # Sources
//
// Load accepts a local path, an http(s) URL or cm://namespace/name; see
// package serializer for format detection.
//
// # Wiring
//
// Wire registers one bean per factory, the listener endpoint registry and
// the registrar with a lifecycle.Context, then buffers every endpoint with
// the registrar:
//
//	lc := lifecycle.New()
//	w, err := cfg.Wire(lc, broker.NewMemory())
//	if err != nil {
//	    return err
//	}
//	if err := lc.Refresh(ctx); err != nil { // flushes the registrar
//	    return err
//	}
//	w.Registry.Start()
//
// Validate reports all problems in a single INVALID_REQUEST error.
package config
