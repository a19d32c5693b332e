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


package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnm_listener_messages_handled_total",
			Help: "Total number of messages handled successfully by listener containers",
		},
		[]string{"endpoint"},
	)

	messagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnm_listener_messages_failed_total",
			Help: "Total number of messages whose handler returned an error or panicked",
		},
		[]string{"endpoint"},
	)

	handlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cnm_listener_handler_duration_seconds",
			Help:    "Duration of message handler invocations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	runningContainers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cnm_listener_running_containers",
			Help: "Number of listener containers currently consuming messages",
		},
	)
)
