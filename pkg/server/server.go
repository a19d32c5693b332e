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
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

// Inventory is the read side of a listener container registry.
type Inventory interface {
	IsRunning() bool
	ListenerContainerIDs() []string
	ListenerContainer(id string) (listener.Container, bool)
}

// Publisher sends messages to a destination.
type Publisher interface {
	Publish(ctx context.Context, destination string, payload []byte, headers map[string]string) (*broker.Message, error)
}

// Option configures a Server.
type Option func(*Server)

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithInventory exposes the containers of inv under /v1/containers.
func WithInventory(inv Inventory) Option {
	return func(s *Server) {
		s.inventory = inv
	}
}

// WithPublisher enables the publish endpoint.
func WithPublisher(p Publisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithReadiness adds a readiness condition on top of the server being started.
func WithReadiness(fn func() bool) Option {
	return func(s *Server) {
		s.readiness = fn
	}
}

// WithHandler adds routes wrapped by the API middleware chain. Keys are
// http.ServeMux patterns.
func WithHandler(handlers map[string]http.HandlerFunc) Option {
	return func(s *Server) {
		for pattern, h := range handlers {
			s.handlers[pattern] = h
		}
	}
}

// Server is the HTTP front of a running listener context.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	inventory   Inventory
	publisher   Publisher
	readiness   func() bool
	handlers    map[string]http.HandlerFunc
	ready       atomic.Bool
}

// New creates a new server instance.
func New(opts ...Option) *Server {
	s := &Server{
		config:   NewConfig(),
		handlers: make(map[string]http.HandlerFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rateLimiter = rate.NewLimiter(s.config.RateLimit, s.config.RateLimitBurst)
	s.httpServer = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.setupRoutes(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, routes and middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// System endpoints (no rate limiting)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.route(mux, http.MethodGet, "/v1/containers", s.handleListContainers)
	s.route(mux, http.MethodGet, "/v1/containers/{id}", s.handleGetContainer)
	s.route(mux, http.MethodPost, "/v1/destinations/{destination}/messages", s.handlePublish)

	for pattern, h := range s.handlers {
		mux.HandleFunc(pattern, s.withMiddleware(h))
	}

	mux.HandleFunc("/", s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, errors.ErrCodeNotFound,
			"No route for "+r.URL.Path, false, nil)
	}))

	return mux
}

// route registers h for method and path, and a JSON 405 for other methods.
func (s *Server) route(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(method+" "+path, s.withMiddleware(h))
	mux.HandleFunc(path, s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", method)
		WriteError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{"allow": method})
	}))
}

// SetReady marks the server as ready or not ready to serve traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the server is started and the readiness
// condition, if any, holds.
func (s *Server) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	return s.readiness == nil || s.readiness()
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, "failed to listen on "+s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	slog.Info("server listening",
		"name", s.config.Name,
		"version", s.config.Version,
		"address", ln.Addr().String(),
		"rateLimit", float64(s.config.RateLimit),
		"rateLimitBurst", s.config.RateLimitBurst,
	)

	s.SetReady(true)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.SetReady(false)
		if !ok {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal, "server failed", err)
	}
}

// Shutdown gracefully shuts down the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down server", "timeout", s.config.ShutdownTimeout.String())
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, "server shutdown", err)
	}
	return nil
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}
