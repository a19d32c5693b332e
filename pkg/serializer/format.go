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


package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
)

// Format is a serialization format.
type Format string

const (
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
	// FormatTable is tabular text; it cannot be read back.
	FormatTable Format = "table"
)

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// SupportedFormats returns the names of all supported formats.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

// ParseFormat converts a user supplied name into a Format, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown format %q, supported: %s", s, strings.Join(SupportedFormats(), ", "))
	}
	return f, nil
}

// FormatFromPath derives a format from a file or URL path extension. The
// second result is false when the extension is not recognized.
func FormatFromPath(p string) (Format, bool) {
	// Drop any query or fragment from URLs.
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".table", ".txt":
		return FormatTable, true
	default:
		return "", false
	}
}

// FormatFromContentType derives a readable format from an HTTP Content-Type.
func FormatFromContentType(contentType string) (Format, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch {
	case mt == "application/json", strings.HasSuffix(mt, "+json"):
		return FormatJSON, true
	case strings.Contains(mt, "yaml"):
		return FormatYAML, true
	default:
		return "", false
	}
}

// Serializer writes a value somewhere in some format.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is implemented by serializers holding resources.
type Closer interface {
	Close() error
}

// Tabular is implemented by values that render as a table of records.
type Tabular interface {
	// Columns returns lower-case column keys; they are title-cased for display.
	Columns() []string
	// Rows returns one slice of cell values per record.
	Rows() [][]string
}

func formatOrDefault(f Format, fallback Format) Format {
	if f.IsUnknown() {
		slog.Warn("unknown format, using fallback", "format", f, "fallback", fallback)
		return fallback
	}
	return f
}
