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

package endpoint

import "sync/atomic"

// aggregatingCallback invokes done once, when the last of count
// notifications has arrived. Notifications may come from any goroutine.
type aggregatingCallback struct {
	remaining atomic.Int32
	done      func()
}

func newAggregatingCallback(count int, done func()) *aggregatingCallback {
	cb := &aggregatingCallback{done: done}
	cb.remaining.Store(int32(count))
	return cb
}

// notify records one completion. Only the notification that moves the
// counter to exactly zero fires done; surplus notifications are ignored.
func (c *aggregatingCallback) notify() {
	if c.remaining.Add(-1) == 0 {
		c.done()
	}
}
