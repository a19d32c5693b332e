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

// Package defaults provides centralized configuration constants for the
// messaging lifecycle components.
//
// # Timeout Categories
//
//   - Lifecycle timeouts: per-phase stop waits and the overall shutdown budget
//   - Handler timeouts: for HTTP request processing
//   - Server timeouts: for HTTP server configuration
//   - Kubernetes timeouts: for ConfigMap reads
//   - HTTP client timeouts: for downloading remote configuration
//
// # Usage
//
//	import "github.com/NVIDIA/cloud-native-messaging/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
//	defer cancel()
//
// The listener registry itself applies no timeouts; a container that never
// finishes stopping is bounded only by LifecycleStopTimeout at the
// coordinator level.
package defaults
