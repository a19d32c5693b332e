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

package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	h := New(
		WithKind(KindListenerConfiguration),
		WithAPIVersion(APIVersion),
		WithMetadata("owner", "payments"),
	)

	assert.Equal(t, KindListenerConfiguration, h.Kind)
	assert.Equal(t, APIVersion, h.APIVersion)
	assert.Equal(t, map[string]string{"owner": "payments"}, h.Metadata)
}

func TestWithMetadata_NilMap(t *testing.T) {
	h := &Header{}
	WithMetadata("k", "v")(h)
	assert.Equal(t, "v", h.Metadata["k"])
}

func TestKind(t *testing.T) {
	assert.True(t, KindListenerConfiguration.IsValid())
	assert.False(t, Kind("Recipe").IsValid())
	assert.Equal(t, "ListenerConfiguration", KindListenerConfiguration.String())
}

func TestInit(t *testing.T) {
	h := Header{Metadata: map[string]string{"owner": "payments"}}

	h.Init(KindListenerConfiguration, "v1.2.3")

	assert.Equal(t, KindListenerConfiguration, h.Kind)
	assert.Equal(t, APIVersion, h.APIVersion)
	assert.Equal(t, "payments", h.Metadata["owner"])
	assert.Equal(t, "v1.2.3", h.Metadata["version"])
	ts, err := time.Parse(time.RFC3339, h.Metadata["timestamp"])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestInit_NoVersion(t *testing.T) {
	var h Header
	h.Init(KindListenerConfiguration, "")
	_, ok := h.Metadata["version"]
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		header   Header
		problems int
	}{
		{"empty header accepted", Header{}, 0},
		{"matching", Header{Kind: KindListenerConfiguration, APIVersion: APIVersion}, 0},
		{"wrong kind", Header{Kind: "Snapshot"}, 1},
		{"wrong api version", Header{APIVersion: "cnm.nvidia.com/v2"}, 1},
		{"both wrong", Header{Kind: "Snapshot", APIVersion: "v0"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.header.Check(KindListenerConfiguration), tt.problems)
		})
	}
}
