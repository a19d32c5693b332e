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
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/cloud-native-messaging/pkg/defaults"
	"github.com/NVIDIA/cloud-native-messaging/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme prefixes ConfigMap sources: cm://namespace/name.
	ConfigMapURIScheme = "cm://"

	// ConfigMapDataKey is the data key prefix holding the document; the
	// format extension is appended, e.g. "listeners.yaml".
	ConfigMapDataKey = "listeners"

	// FieldManager owns the fields written with server-side apply.
	FieldManager = "cnm"
)

// ParseConfigMapURI splits cm://namespace/name into its parts.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}

func configMapKey(f Format) string {
	return ConfigMapDataKey + "." + string(f)
}

// readConfigMap returns the document stored in a ConfigMap. The "format"
// entry selects the key when present; otherwise yaml then json is tried.
func readConfigMap(ctx context.Context, kc client.Interface, namespace, name string) (Format, string, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := kc.CoreV1().ConfigMaps(namespace).Get(readCtx, name, metav1.GetOptions{})
	if err != nil {
		return "", "", fmt.Errorf("failed to get ConfigMap %s/%s: %w", namespace, name, err)
	}

	candidates := []Format{FormatYAML, FormatJSON}
	if f := Format(cm.Data["format"]); f == FormatYAML || f == FormatJSON {
		candidates = []Format{f}
	}
	for _, f := range candidates {
		if content, ok := cm.Data[configMapKey(f)]; ok {
			slog.Debug("reading from ConfigMap",
				"namespace", namespace,
				"name", name,
				"key", configMapKey(f),
				"size", len(content))
			return f, content, nil
		}
	}
	return "", "", fmt.Errorf("ConfigMap %s/%s has no %s data", namespace, name, ConfigMapDataKey)
}

// ConfigMapWriter stores a serialized document in a ConfigMap, creating or
// updating it with server-side apply.
type ConfigMapWriter struct {
	client    client.Interface
	namespace string
	name      string
	format    Format
}

// NewConfigMapWriter creates a writer for namespace/name. A nil client is
// resolved with client.Default on first use. Table format is stored as-is
// but cannot be loaded back.
func NewConfigMapWriter(kc client.Interface, namespace, name string, format Format) *ConfigMapWriter {
	return &ConfigMapWriter{
		client:    kc,
		namespace: namespace,
		name:      name,
		format:    formatOrDefault(format, FormatYAML),
	}
}

// Serialize applies v to the ConfigMap under listeners.<format>, alongside
// "format" and "timestamp" entries.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	content, err := marshal(w.format, v)
	if err != nil {
		return err
	}

	kc := w.client
	if kc == nil {
		if kc, err = client.Default(); err != nil {
			return fmt.Errorf("failed to get kubernetes client: %w", err)
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":       "cnm",
			"app.kubernetes.io/component":  "listener-config",
			"app.kubernetes.io/managed-by": FieldManager,
		}).
		WithData(map[string]string{
			configMapKey(w.format): string(content),
			"format":               string(w.format),
			"timestamp":            time.Now().UTC().Format(time.RFC3339),
		})

	slog.Info("applying ConfigMap", "namespace", w.namespace, "name", w.name, "format", w.format)

	if _, err := kc.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, cm,
		metav1.ApplyOptions{FieldManager: FieldManager, Force: true}); err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}
