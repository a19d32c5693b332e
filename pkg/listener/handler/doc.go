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


// Package handler keeps a process-wide set of named message handlers that
// configuration can refer to by name.
//
// Built-in handlers:
//
//   - log: logs every message at info level and succeeds
//   - discard: drops every message and succeeds
//
// Additional handlers register themselves from init functions:
//
//	func init() {
//	    handler.MustRegister("audit", auditHandler)
//	}
//
// Lookup returns a NOT_FOUND StructuredError for unknown names.
package handler
