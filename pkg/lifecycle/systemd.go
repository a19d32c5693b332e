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

package lifecycle

import (
	"log/slog"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// SystemdNotifier reports readiness to systemd once its context has been
// refreshed and reports stopping when the context is closed. Outside of a
// systemd unit with NotifyAccess the notifications are no-ops.
type SystemdNotifier struct {
	mu        sync.Mutex
	contextID string
	notify    notifyFunc
}

var (
	_ RefreshListener = (*SystemdNotifier)(nil)
	_ ContextAware    = (*SystemdNotifier)(nil)
	_ Disposer        = (*SystemdNotifier)(nil)
)

// NewSystemdNotifier creates a notifier backed by sd_notify.
func NewSystemdNotifier() *SystemdNotifier {
	return &SystemdNotifier{notify: daemon.SdNotify}
}

// SetContextID binds the notifier to its context.
func (n *SystemdNotifier) SetContextID(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contextID = id
}

// OnContextRefreshed sends READY=1 for refreshes of the bound context.
func (n *SystemdNotifier) OnContextRefreshed(event RefreshedEvent) {
	n.mu.Lock()
	own := n.contextID
	n.mu.Unlock()

	if event.ContextID != own {
		return
	}
	n.send(daemon.SdNotifyReady)
}

// Destroy sends STOPPING=1.
func (n *SystemdNotifier) Destroy() error {
	n.send(daemon.SdNotifyStopping)
	return nil
}

func (n *SystemdNotifier) send(state string) {
	sent, err := n.notify(false, state)
	if err != nil {
		slog.Warn("systemd notification failed", "state", state, "error", err)
		return
	}
	slog.Debug("systemd notification", "state", state, "sent", sent)
}
