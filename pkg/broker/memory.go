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

package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
)

const (
	// DefaultBufferSize is the per-group channel capacity.
	DefaultBufferSize = 128

	// DefaultGroup is used when a subscriber does not name a consumer group.
	DefaultGroup = "$default"

	publishRetryInterval = 5 * time.Millisecond
)

// Message is a single unit delivered to listener containers.
type Message struct {
	ID          string            `json:"id" yaml:"id"`
	Destination string            `json:"destination" yaml:"destination"`
	Payload     []byte            `json:"payload" yaml:"payload"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Timestamp   time.Time         `json:"timestamp" yaml:"timestamp"`
}

// Broker publishes messages to destinations and hands out subscriptions.
type Broker interface {
	Publish(ctx context.Context, destination string, payload []byte, headers map[string]string) (*Message, error)
	Subscribe(destination, group string) (<-chan *Message, func())
}

// Option configures a Memory broker.
type Option func(*Memory)

// WithBufferSize sets the per-group channel capacity.
func WithBufferSize(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.bufferSize = n
		}
	}
}

type subscription struct {
	ch   chan *Message
	refs int
}

// Memory is an in-process Broker.
type Memory struct {
	mu           sync.RWMutex
	bufferSize   int
	destinations map[string]map[string]*subscription
}

var _ Broker = (*Memory)(nil)

// NewMemory creates an empty in-memory broker.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		bufferSize:   DefaultBufferSize,
		destinations: make(map[string]map[string]*subscription),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Publish delivers payload to every consumer group of destination. Delivery
// is all or nothing: the message is handed to the groups only once every
// group has buffer space, and Publish waits for that until ctx is done. A
// TIMEOUT error means no group received the message.
func (m *Memory) Publish(ctx context.Context, destination string, payload []byte, headers map[string]string) (*Message, error) {
	if destination == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "destination must be set")
	}

	msg := &Message{
		ID:          uuid.New().String(),
		Destination: destination,
		Payload:     payload,
		Headers:     headers,
		Timestamp:   time.Now().UTC(),
	}

	err := wait.PollUntilContextCancel(ctx, publishRetryInterval, true, func(context.Context) (bool, error) {
		return m.tryDeliver(msg), nil
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeTimeout, "publish interrupted", err,
			map[string]any{"destination": destination, "id": msg.ID})
	}

	return msg, nil
}

// tryDeliver sends msg to every group of its destination if all of them have
// room. The write lock keeps other publishers out between the capacity check
// and the sends, and consumers only drain, so the sends never block.
func (m *Memory) tryDeliver(msg *Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := m.destinations[msg.Destination]
	if len(groups) == 0 {
		slog.Debug("no subscribers for destination", "destination", msg.Destination, "id", msg.ID)
		return true
	}

	for _, sub := range groups {
		if len(sub.ch) == cap(sub.ch) {
			return false
		}
	}
	for _, sub := range groups {
		sub.ch <- msg
	}
	return true
}

// Subscribe joins group on destination and returns the group's channel with
// a release func. Releasing the last member detaches the group from the
// destination. The channel is never closed; consumers stop through their own
// context so a concurrent Publish cannot send on a closed channel.
func (m *Memory) Subscribe(destination, group string) (<-chan *Message, func()) {
	if group == "" {
		group = DefaultGroup
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.destinations[destination]
	if !ok {
		groups = make(map[string]*subscription)
		m.destinations[destination] = groups
	}
	sub, ok := groups[group]
	if !ok {
		sub = &subscription{ch: make(chan *Message, m.bufferSize)}
		groups[group] = sub
	}
	sub.refs++

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.release(destination, group, sub)
		})
	}
	return sub.ch, release
}

func (m *Memory) release(destination, group string, sub *subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub.refs--
	if sub.refs > 0 {
		return
	}

	delete(m.destinations[destination], group)
	if len(m.destinations[destination]) == 0 {
		delete(m.destinations, destination)
	}
}

// Destinations returns the number of destinations with live subscriptions.
func (m *Memory) Destinations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.destinations)
}
