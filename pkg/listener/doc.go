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

// Package listener defines the contracts shared by listener endpoints,
// listener containers and the factories that build them.
//
// # Core Types
//
// Endpoint: identity of a listener, keyed by a non-empty id
//
//	type Endpoint interface {
//	    ID() string
//	}
//
// Container: a startable and stoppable unit built for one endpoint
//
//	type Container interface {
//	    Start()
//	    Stop()
//	    StopAsync(done func())
//	    IsRunning() bool
//	    IsAutoStartup() bool
//	    Phase() int
//	}
//
// Factory: builds a Container for an Endpoint
//
//	type Factory interface {
//	    CreateContainer(ep Endpoint) (Container, error)
//	}
//
// Containers may additionally implement Initializer, which is invoked once
// right after creation, and Disposer, which is invoked when the owning
// registry is destroyed.
//
// # Phases
//
// Phase is an ordering hint for start and stop. DefaultPhase (math.MaxInt32)
// means the container does not care; any lower value is a custom phase.
// All containers owned by one registry must agree on their custom phase.
package listener
