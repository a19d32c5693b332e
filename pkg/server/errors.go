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
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code errors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID := RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr maps err to a status code through its error code. Errors
// without a StructuredError in their chain are reported as internal.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	var se *errors.StructuredError
	if !stderrors.As(err, &se) {
		WriteError(w, r, http.StatusInternalServerError, errors.ErrCodeInternal,
			"Internal server error", true, nil)
		return
	}

	details := make(map[string]any, len(se.Context)+1)
	for k, v := range se.Context {
		details[k] = v
	}
	if se.Cause != nil {
		details["cause"] = se.Cause.Error()
	}
	if len(details) == 0 {
		details = nil
	}

	status, retryable := statusFor(se.Code)
	WriteError(w, r, status, se.Code, se.Message, retryable, details)
}

func statusFor(code errors.ErrorCode) (status int, retryable bool) {
	switch code {
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest, false
	case errors.ErrCodeNotFound:
		return http.StatusNotFound, false
	case errors.ErrCodeConflict:
		return http.StatusConflict, false
	case errors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed, false
	case errors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests, true
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, true
	case errors.ErrCodeUnavailable, errors.ErrCodeInvalidState:
		return http.StatusServiceUnavailable, true
	default:
		return http.StatusInternalServerError, true
	}
}
