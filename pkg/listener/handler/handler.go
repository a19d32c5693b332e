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


package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/NVIDIA/cloud-native-messaging/pkg/broker"
	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
)

const (
	// Log is the name of the handler that logs each message.
	Log = "log"

	// Discard is the name of the handler that drops each message.
	Discard = "discard"
)

// Global registry for named handlers.
var (
	handlers = make(map[string]listener.HandlerFunc)
	mu       sync.RWMutex
)

func init() {
	MustRegister(Log, logMessage)
	MustRegister(Discard, discard)
}

// Register adds fn under name. It fails if the name is empty, fn is nil or
// the name is already taken.
func Register(name string, fn listener.HandlerFunc) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "handler name must be set")
	}
	if fn == nil {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "handler must not be nil",
			map[string]any{"handler": name})
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := handlers[name]; exists {
		return errors.NewWithContext(errors.ErrCodeConflict,
			fmt.Sprintf("handler %q already registered", name),
			map[string]any{"handler": name})
	}
	handlers[name] = fn
	return nil
}

// MustRegister is Register that panics on error. Use it in init functions.
func MustRegister(name string, fn listener.HandlerFunc) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered under name.
func Lookup(name string) (listener.HandlerFunc, error) {
	mu.RLock()
	defer mu.RUnlock()

	fn, ok := handlers[name]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("unknown handler %q", name),
			map[string]any{"handler": name, "available": namesLocked()})
	}
	return fn, nil
}

// Names returns the registered handler names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func logMessage(ctx context.Context, msg *broker.Message) error {
	slog.InfoContext(ctx, "message received",
		"id", msg.ID,
		"destination", msg.Destination,
		"bytes", len(msg.Payload),
		"headers", len(msg.Headers))
	return nil
}

func discard(context.Context, *broker.Message) error {
	return nil
}
