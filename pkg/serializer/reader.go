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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/cloud-native-messaging/pkg/k8s/client"
)

// Reader decodes a JSON or YAML document from an io.Reader.
// Close releases the source when it is closeable; it is safe to call twice.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader. Table is write-only and rejected.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if format == FormatTable {
		return nil, fmt.Errorf("table format does not support deserialization")
	}

	r := &Reader{format: format, input: input}
	if c, ok := input.(io.Closer); ok {
		r.closer = c
	}
	return r, nil
}

// Deserialize decodes the input into v, which must be a pointer. Unknown
// fields are rejected so typos in configuration surface early.
func (r *Reader) Deserialize(v any) error {
	if r == nil {
		return fmt.Errorf("reader is nil")
	}
	if r.input == nil {
		return fmt.Errorf("input source is nil")
	}

	switch r.format {
	case FormatJSON:
		dec := json.NewDecoder(r.input)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r.input)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format for deserialization: %s", r.format)
	}
	return nil
}

// Close releases the underlying source if it is closeable.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	kubeClient client.Interface
	kubeconfig string
	httpClient *HTTPClient
}

// WithKubeClient sets the client used for cm:// sources.
func WithKubeClient(c client.Interface) LoadOption {
	return func(o *loadOptions) {
		o.kubeClient = c
	}
}

// WithKubeconfig sets the kubeconfig used to build a client for cm://
// sources when none is given with WithKubeClient.
func WithKubeconfig(path string) LoadOption {
	return func(o *loadOptions) {
		o.kubeconfig = path
	}
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *HTTPClient) LoadOption {
	return func(o *loadOptions) {
		o.httpClient = c
	}
}

// Load reads the document at uri and decodes it into a new T. uri is a local
// path, an http(s) URL or cm://namespace/name.
func Load[T any](ctx context.Context, uri string, opts ...LoadOption) (*T, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("source is empty")
	}

	var (
		format Format
		data   []byte
		err    error
	)
	switch {
	case strings.HasPrefix(uri, ConfigMapURIScheme):
		format, data, err = o.readConfigMap(ctx, uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		format, data, err = o.readURL(ctx, uri)
	default:
		format, data, err = readFile(uri)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded document", "source", uri, "format", format, "bytes", len(data))

	r, err := NewReader(format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var v T
	if err := r.Deserialize(&v); err != nil {
		return nil, fmt.Errorf("failed to deserialize %q: %w", uri, err)
	}
	return &v, nil
}

func readFile(p string) (Format, []byte, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	format, ok := FormatFromPath(p)
	if !ok || format == FormatTable {
		slog.Warn("unrecognized file extension, assuming YAML", "path", p)
		format = FormatYAML
	}
	return format, data, nil
}

func (o *loadOptions) readURL(ctx context.Context, url string) (Format, []byte, error) {
	hc := o.httpClient
	if hc == nil {
		hc = NewHTTPClient()
	}
	data, contentType, err := hc.Get(ctx, url)
	if err != nil {
		return "", nil, err
	}

	if f, ok := FormatFromPath(url); ok && f != FormatTable {
		return f, data, nil
	}
	if f, ok := FormatFromContentType(contentType); ok {
		return f, data, nil
	}
	return FormatYAML, data, nil
}

func (o *loadOptions) readConfigMap(ctx context.Context, uri string) (Format, []byte, error) {
	namespace, name, err := ParseConfigMapURI(uri)
	if err != nil {
		return "", nil, err
	}

	kc := o.kubeClient
	if kc == nil {
		if o.kubeconfig != "" {
			kc, _, err = client.New(o.kubeconfig)
		} else {
			kc, err = client.Default()
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to get kubernetes client: %w", err)
		}
	}

	format, content, err := readConfigMap(ctx, kc, namespace, name)
	if err != nil {
		return "", nil, err
	}
	return format, []byte(content), nil
}
