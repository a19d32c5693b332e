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


// Package container provides broker-backed listener containers and the
// factory that builds them.
//
// A Container consumes one destination for one listener.BasicEndpoint. On
// Start it joins the endpoint's consumer group and runs a fixed number of
// workers under an errgroup; each worker takes messages from the shared
// group channel and hands them to the endpoint handler.
//
// Usage:
//
//	b := broker.NewMemory()
//	f := container.NewFactory("default", b,
//	    container.WithConcurrency(4),
//	    container.WithRateLimit(50),
//	)
//	reg.RegisterListenerContainer(&listener.BasicEndpoint{
//	    EndpointID:  "orders",
//	    Destination: "orders",
//	    Handler:     handle,
//	}, f, true)
//
// Handler invocations are bounded by a timeout (WithHandlerTimeout,
// defaults.MessageHandlerTimeout by default). Handler errors and panics are
// logged and counted; they never stop the workers.
//
// When a rate limit is set, every worker waits on a shared
// golang.org/x/time/rate limiter before handling a message.
//
// Stop cancels the workers, waits for in-flight handlers and leaves the
// consumer group. Messages still buffered in the group channel stay there
// for the remaining members of the group.
//
// # Metrics
//
//   - cnm_listener_messages_handled_total{endpoint}
//   - cnm_listener_messages_failed_total{endpoint}
//   - cnm_listener_handler_duration_seconds{endpoint}
//   - cnm_listener_running_containers
package container
