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

// Package lifecycle coordinates named beans through the host application's
// lifecycle: initialization, refresh, shutdown and disposal.
//
// Beans opt into each step by implementing a small interface:
//
//   - ContextAware: receives the context id on registration
//   - BeanSourceAware: receives the context as a BeanSource on registration
//   - Initializer: Init runs during Refresh, in registration order
//   - SmartLifecycle: auto-startup beans are started during Refresh by
//     ascending phase and stopped during Close by descending phase
//   - RefreshListener: notified once Refresh has completed
//   - Disposer: Destroy runs during Close, in reverse registration order
//
// # Usage
//
//	host := lifecycle.New()
//	_ = host.Register("listenerRegistry", registry)
//	_ = host.Register("listenerRegistrar", registrar)
//
//	if err := host.Refresh(ctx); err != nil {
//	    _ = host.Close(context.Background())
//	    return err
//	}
//	defer host.Close(context.Background())
//
// # Concurrency
//
// Registration is serialized by the context's singleton mutex, which is
// exposed through SingletonMutex so collaborators that must not race bean
// registration can share it. Bean lookups do not take that mutex, so a
// holder of it can still resolve beans.
//
// Close bounds the wait for each stop phase by the configured stop timeout;
// a bean that never completes its stop is logged and left behind.
package lifecycle
