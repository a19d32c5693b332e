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

// Package broker provides an in-process message broker that listener
// containers subscribe to.
//
// Destinations are created on first use. Each consumer group on a destination
// owns one buffered channel; a published message is delivered once to every
// group, and the workers of a group share that group's channel so each message
// is handled by exactly one of them.
//
//	b := broker.NewMemory(broker.WithBufferSize(64))
//	ch, cancel := b.Subscribe("orders", "billing")
//	defer cancel()
//
//	_, _ = b.Publish(ctx, "orders", []byte(`{"id":1}`), nil)
//	msg := <-ch
package broker
