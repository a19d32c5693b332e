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

// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Every fatal condition raised by the listener registry, the endpoint
// registrar and the lifecycle coordinator carries an ErrorCode so callers can
// branch on the failure class without string matching:
//
//	if errors.IsCode(err, errors.ErrCodeConflict) {
//	    // another endpoint already owns this id
//	}
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeInitialization,
//	    "failed to initialize message listener container",
//	    cause,
//	    map[string]any{
//	        "endpoint": id,
//	    },
//	)
package errors
