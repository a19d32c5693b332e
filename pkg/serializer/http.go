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
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/cloud-native-messaging/pkg/defaults"
)

// RespondJSON writes data as a JSON response with statusCode. The body is
// encoded before the header is written so an encoding failure turns into a
// clean 500 instead of a truncated response.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("json encoding failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Connection is broken; nothing left to tell the client.
		slog.Warn("response write failed", "error", err)
	}
}

const (
	// HTTPUserAgent is sent with every remote configuration request.
	HTTPUserAgent = "cnm-serializer/1.0"

	// MaxDocumentBytes caps the size of a remote document.
	MaxDocumentBytes = 4 << 20
)

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(c *HTTPClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout overrides the total request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) HTTPOption {
	return func(c *HTTPClient) {
		if tr, ok := c.client.Transport.(*http.Transport); ok {
			tr.TLSClientConfig.InsecureSkipVerify = skip //nolint:gosec // opt-in for test clusters
		}
	}
}

// WithDoer replaces the underlying *http.Client.
func WithDoer(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// HTTPClient fetches remote documents.
type HTTPClient struct {
	userAgent string
	client    *http.Client
}

// NewHTTPClient creates an HTTPClient with timeouts from pkg/defaults.
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		userAgent: HTTPUserAgent,
		client: &http.Client{
			Timeout:   defaults.HTTPClientTimeout,
			Transport: newTransport(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		ExpectContinueTimeout: defaults.HTTPExpectContinueTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Get fetches url and returns the body with the response Content-Type.
// Non-200 responses and bodies over MaxDocumentBytes are errors.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http request failed for url %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch %s: status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if len(data) > MaxDocumentBytes {
		return nil, "", fmt.Errorf("document at %s exceeds %d bytes", url, MaxDocumentBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
