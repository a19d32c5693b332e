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

package endpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess  = "success"
	resultConflict = "conflict"
	resultError    = "error"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnm_listener_registrations_total",
			Help: "Total number of listener container registrations by result",
		},
		[]string{"result"},
	)

	containerStartsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cnm_listener_container_starts_total",
			Help: "Total number of listener container start requests issued by registries",
		},
	)

	containerDestroyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cnm_listener_container_destroy_failures_total",
			Help: "Total number of listener container cleanup failures recovered during teardown",
		},
	)

	pendingEndpoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cnm_listener_pending_endpoints",
			Help: "Endpoints buffered by registrars awaiting flush",
		},
	)
)
