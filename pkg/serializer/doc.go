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


// Package serializer reads and writes structured documents in JSON, YAML
// and table form, from and to files, HTTP(S) URLs and Kubernetes ConfigMaps.
//
// # Formats
//
//   - json: machine-readable, indented output
//   - yaml: human-readable configuration format
//   - table: write-only tabular output
//
// # Reading
//
// Load resolves a source URI and decodes it into T:
//
//	cfg, err := serializer.Load[config.Config](ctx, "listeners.yaml")
//	cfg, err := serializer.Load[config.Config](ctx, "https://example.com/listeners.yaml")
//	cfg, err := serializer.Load[config.Config](ctx, "cm://messaging/listeners",
//	    serializer.WithKubeconfig(path))
//
// The format of a file or URL comes from its extension, then from the
// response Content-Type, and falls back to YAML. ConfigMaps carry the
// document under the "listeners.yaml" or "listeners.json" key.
//
// # Writing
//
//	w := serializer.NewWriter(serializer.FormatTable, os.Stdout)
//	if err := w.Serialize(ctx, summary); err != nil {
//	    return err
//	}
//
// Values implementing Tabular render as one row per record with title-cased
// column headers; other values are flattened into FIELD/VALUE pairs.
//
// NewFileWriterOrStdout also accepts cm://namespace/name and applies the
// document to a ConfigMap with server-side apply, which Load can read back.
//
// # HTTP responses
//
//	serializer.RespondJSON(w, http.StatusOK, data)
//
// The body is encoded before the status is written so encoding failures
// never produce partial responses.
package serializer
