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

// Package server is the HTTP front of a running listener context.
//
// It exposes the listener container inventory, accepts messages for
// publishing to a broker destination and serves health, readiness and
// Prometheus endpoints.
//
// # Usage
//
//	srv := server.New(
//	    server.WithInventory(registry),
//	    server.WithPublisher(b),
//	    server.WithReadiness(lc.Refreshed),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
//
// # API Endpoints
//
// GET /v1/containers - List listener containers in registration order
//
//	{"running": true, "containers": [{"id": "orders", "running": true, "autoStartup": true, "phase": 2147483647}]}
//
// GET /v1/containers/{id} - Describe one listener container
//
// POST /v1/destinations/{destination}/messages - Publish the request body
//
//	Request headers prefixed with X-Message- are forwarded as message headers.
//	Returns 202 with {"id": "...", "destination": "...", "timestamp": "..."}.
//
//	Example:
//	  curl -X POST -H "X-Message-Tenant: acme" --data '{"order":1}' \
//	    http://localhost:8080/v1/destinations/orders/messages
//
// GET /health - Liveness probe, always 200
//
// GET /ready - Readiness probe, 503 until the server is started and the
// listener context is refreshed
//
// GET /metrics - Prometheus metrics
//
// # Middleware
//
// API routes pass through, outermost first: metrics, API version
// negotiation (Accept: application/vnd.nvidia.cnm.v1+json), request ID,
// panic recovery, rate limiting (golang.org/x/time/rate) and debug logging.
//
// # Errors
//
// Failures are reported as ErrorResponse. The HTTP status follows the
// error code of the underlying pkg/errors.StructuredError.
//
// # Configuration
//
// NewConfig reads PORT and SHUTDOWN_TIMEOUT_SECONDS from the environment.
package server
