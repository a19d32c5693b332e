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

package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

// MessageHeaderPrefix marks request headers that are forwarded as message
// headers, with the prefix removed and the name lower-cased.
const MessageHeaderPrefix = "X-Message-"

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status" yaml:"status"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ContainerStatus describes one listener container.
type ContainerStatus struct {
	ID          string `json:"id" yaml:"id"`
	Running     bool   `json:"running" yaml:"running"`
	AutoStartup bool   `json:"autoStartup" yaml:"autoStartup"`
	Phase       int    `json:"phase" yaml:"phase"`
}

// ContainersResponse is the body of GET /v1/containers.
type ContainersResponse struct {
	Running    bool              `json:"running" yaml:"running"`
	Containers []ContainerStatus `json:"containers" yaml:"containers"`
}

// PublishResponse is the body of a successful publish.
type PublishResponse struct {
	ID          string    `json:"id" yaml:"id"`
	Destination string    `json:"destination" yaml:"destination"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.IsReady() {
		serializer.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Timestamp: time.Now().UTC(),
			Reason:    "listener context is not refreshed",
		})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		writeNotConfigured(w, r, "listener registry")
		return
	}

	ids := s.inventory.ListenerContainerIDs()
	resp := ContainersResponse{
		Running:    s.inventory.IsRunning(),
		Containers: make([]ContainerStatus, 0, len(ids)),
	}
	for _, id := range ids {
		c, ok := s.inventory.ListenerContainer(id)
		if !ok {
			// removed between the two calls
			continue
		}
		resp.Containers = append(resp.Containers, containerStatus(id, c))
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		writeNotConfigured(w, r, "listener registry")
		return
	}

	id := r.PathValue("id")
	c, ok := s.inventory.ListenerContainer(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, errors.ErrCodeNotFound,
			"No listener container with id "+id, false, map[string]any{"id": id})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, containerStatus(id, c))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeNotConfigured(w, r, "publisher")
		return
	}

	destination := r.PathValue("destination")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidRequest,
				"Payload too large", false, map[string]any{"limit": tooLarge.Limit})
			return
		}
		WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Failed to read payload", false, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.PublishTimeout)
	defer cancel()

	msg, err := s.publisher.Publish(ctx, destination, payload, messageHeaders(r))
	if err != nil {
		WriteErrorFromErr(w, r, err)
		return
	}
	messagesPublished.Inc()

	serializer.RespondJSON(w, http.StatusAccepted, PublishResponse{
		ID:          msg.ID,
		Destination: msg.Destination,
		Timestamp:   msg.Timestamp,
	})
}

func containerStatus(id string, c listener.Container) ContainerStatus {
	return ContainerStatus{
		ID:          id,
		Running:     c.IsRunning(),
		AutoStartup: c.IsAutoStartup(),
		Phase:       c.Phase(),
	}
}

// messageHeaders collects X-Message-* headers and the content type.
func messageHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)
	if ct := r.Header.Get("Content-Type"); ct != "" {
		headers["content-type"] = ct
	}
	for key, values := range r.Header {
		name, ok := strings.CutPrefix(key, MessageHeaderPrefix)
		if !ok || name == "" || len(values) == 0 {
			continue
		}
		headers[strings.ToLower(name)] = values[0]
	}
	return headers
}

func writeNotConfigured(w http.ResponseWriter, r *http.Request, what string) {
	WriteError(w, r, http.StatusServiceUnavailable, errors.ErrCodeUnavailable,
		what+" is not configured", true, nil)
}
