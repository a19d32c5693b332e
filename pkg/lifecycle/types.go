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

package lifecycle

import (
	"time"

	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// RefreshedEvent is published to RefreshListener beans when a context has
// finished refreshing.
type RefreshedEvent struct {
	ContextID string
	Time      time.Time
}

// SmartLifecycle is a bean whose start and stop are driven by the context.
type SmartLifecycle = listener.Lifecycle

// Initializer runs once all of a bean's properties are set.
type Initializer interface {
	Init() error
}

// Disposer releases a bean's resources when the context closes.
type Disposer interface {
	Destroy() error
}

// RefreshListener is notified when a context has been refreshed.
type RefreshListener interface {
	OnContextRefreshed(event RefreshedEvent)
}

// ContextAware beans learn the id of the context they are registered with.
type ContextAware interface {
	SetContextID(id string)
}

// BeanSource resolves beans by name.
type BeanSource interface {
	Bean(name string) (any, error)
}

// BeanSourceAware beans receive the BeanSource they are registered with.
type BeanSourceAware interface {
	SetBeanSource(src BeanSource)
}
