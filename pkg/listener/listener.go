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

package listener

import (
	"context"
	"fmt"
	"math"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
)

// DefaultPhase is the phase of a container that declares no ordering preference.
const DefaultPhase = math.MaxInt32

// Endpoint identifies a listener. ID must be unique within a registry.
type Endpoint interface {
	ID() string
}

// Lifecycle is the start/stop contract shared by containers and by anything
// a lifecycle coordinator drives.
type Lifecycle interface {
	Start()
	Stop()
	// StopAsync stops and invokes done exactly once when stopping has finished.
	StopAsync(done func())
	IsRunning() bool
	IsAutoStartup() bool
	Phase() int
}

// Container is a listener container built for a single endpoint.
type Container interface {
	Lifecycle
}

// Initializer is implemented by containers that need an initialization step
// after construction.
type Initializer interface {
	Init() error
}

// Disposer is implemented by containers that hold resources to release when
// their owner is destroyed.
type Disposer interface {
	Destroy() error
}

// Factory builds a Container for an Endpoint.
type Factory interface {
	CreateContainer(ep Endpoint) (Container, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ep Endpoint) (Container, error)

// CreateContainer calls f(ep).
func (f FactoryFunc) CreateContainer(ep Endpoint) (Container, error) {
	return f(ep)
}

// HandlerFunc processes one message delivered to an endpoint.
type HandlerFunc func(ctx context.Context, msg *broker.Message) error

// BasicEndpoint is an endpoint bound to a broker destination and consumer group.
type BasicEndpoint struct {
	EndpointID  string
	Destination string
	Group       string
	Handler     HandlerFunc
}

var _ Endpoint = (*BasicEndpoint)(nil)

// ID returns the endpoint id. A nil endpoint has an empty id.
func (e *BasicEndpoint) ID() string {
	if e == nil {
		return ""
	}
	return e.EndpointID
}

func (e *BasicEndpoint) String() string {
	return fmt.Sprintf("BasicEndpoint[id=%s destination=%s group=%s]", e.EndpointID, e.Destination, e.Group)
}

// IsCustomPhase reports whether phase expresses an ordering preference.
func IsCustomPhase(phase int) bool {
	return phase < DefaultPhase
}
