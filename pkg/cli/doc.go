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

// Package cli implements the cnm command line.
//
// # Commands
//
// serve - Run listener containers and the HTTP API:
//
//	cnm serve --config listeners.yaml [--port 8080]
//
// Loads the configuration, wires factories, the listener registry and the
// registrar into a lifecycle context, refreshes it and starts the registry.
// The HTTP API runs until SIGINT or SIGTERM, after which the context is
// closed within --shutdown-timeout.
//
// validate - Check a configuration:
//
//	cnm validate --config listeners.yaml [--format table] [--output cm://ns/name]
//
// Prints the resolved configuration (yaml, json) or an endpoint summary
// (table). Writing to a cm:// URI stores the configuration in a ConfigMap
// that serve can load.
//
// handlers - List handler names endpoints can reference:
//
//	cnm handlers
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Configuration Sources
//
// --config accepts a file path, an http(s) URL or cm://namespace/name. The
// format comes from the file extension, the response Content-Type or the
// ConfigMap data key, and falls back to YAML.
package cli
