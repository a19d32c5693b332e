package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
	"github.com/NVIDIA/cloud-native-messaging/pkg/header"
	"github.com/NVIDIA/cloud-native-messaging/pkg/listener"
	"github.com/NVIDIA/cloud-native-messaging/pkg/serializer"
)

const sampleYAML = `defaultFactory: default
factories:
  - name: default
    concurrency: 2
  - name: throttled
    autoStartup: false
    rateLimit: 5
endpoints:
  - id: orders
    group: billing
  - id: audit
    destination: orders
    factory: throttled
    handler: discard
`

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "listeners.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sampleYAML), 0o600))

	cfg, err := Load(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, cfg.Factories, 2)
	assert.Equal(t, 2, *cfg.Factories[0].Concurrency)
	assert.True(t, *cfg.Factories[0].AutoStartup)
	assert.Equal(t, listener.DefaultPhase, *cfg.Factories[0].Phase)
	assert.False(t, *cfg.Factories[1].AutoStartup)
	assert.InDelta(t, 5.0, *cfg.Factories[1].RateLimit, 0)

	require.Len(t, cfg.Endpoints, 2)
	assert.Equal(t, "orders", cfg.Endpoints[0].Destination, "destination defaults to id")
	assert.Equal(t, "log", cfg.Endpoints[0].Handler, "handler defaults to log")
	assert.Equal(t, "discard", cfg.Endpoints[1].Handler)
}

func TestLoad_ConfigMap(t *testing.T) {
	cs := fake.NewClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "listeners", Namespace: "messaging"},
		Data:       map[string]string{"listeners.yaml": sampleYAML},
	})

	cfg, err := Load(context.Background(), "cm://messaging/listeners", serializer.WithKubeClient(cs))
	require.NoError(t, err)
	assert.Len(t, cfg.Endpoints, 2)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), filepath.Join(dir, "absent.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	p := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(p, []byte("factorys: []\n"), 0o600))
	_, err = Load(context.Background(), p)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	p = filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(p, []byte("factories: []\nendpoints: []\n"), 0o600))
	_, err = Load(context.Background(), p)
	assert.ErrorContains(t, err, "at least one factory is required")
}

func TestApplyDefaults_SingleFactoryBecomesDefault(t *testing.T) {
	cfg := &Config{Factories: []FactoryConfig{{Name: "only"}}}
	cfg.ApplyDefaults()
	assert.Equal(t, "only", cfg.DefaultFactory)

	cfg = &Config{Factories: []FactoryConfig{{Name: "a"}, {Name: "b"}}}
	cfg.ApplyDefaults()
	assert.Empty(t, cfg.DefaultFactory)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DefaultFactory: "default",
			Factories:      []FactoryConfig{{Name: "default"}},
			Endpoints:      []EndpointConfig{{ID: "orders", Destination: "orders", Handler: "log"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		problem string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no factories", mutate: func(c *Config) { c.Factories = nil; c.DefaultFactory = "" },
			problem: "at least one factory"},
		{name: "unnamed factory", mutate: func(c *Config) { c.Factories = append(c.Factories, FactoryConfig{}) },
			problem: "name is required"},
		{name: "duplicate factory", mutate: func(c *Config) { c.Factories = append(c.Factories, FactoryConfig{Name: "default"}) },
			problem: `duplicate factory name "default"`},
		{name: "zero concurrency", mutate: func(c *Config) { c.Factories[0].Concurrency = ptr.To(0) },
			problem: "concurrency must be positive"},
		{name: "negative rate", mutate: func(c *Config) { c.Factories[0].RateLimit = ptr.To(-1.0) },
			problem: "rateLimit must not be negative"},
		{name: "conflicting phases", mutate: func(c *Config) {
			c.Factories[0].Phase = ptr.To(1)
			c.Factories = append(c.Factories, FactoryConfig{Name: "other", Phase: ptr.To(2)})
		}, problem: "conflicts with phase 1"},
		{name: "unknown default factory", mutate: func(c *Config) { c.DefaultFactory = "missing" },
			problem: `defaultFactory "missing"`},
		{name: "empty endpoint id", mutate: func(c *Config) { c.Endpoints[0].ID = "" },
			problem: "id is required"},
		{name: "duplicate endpoint id", mutate: func(c *Config) { c.Endpoints = append(c.Endpoints, c.Endpoints[0]) },
			problem: `duplicate endpoint id "orders"`},
		{name: "missing destination", mutate: func(c *Config) { c.Endpoints[0].Destination = "" },
			problem: "destination is required"},
		{name: "unknown endpoint factory", mutate: func(c *Config) { c.Endpoints[0].Factory = "missing" },
			problem: `unknown factory "missing"`},
		{name: "no factory resolvable", mutate: func(c *Config) { c.DefaultFactory = "" },
			problem: "no defaultFactory set"},
		{name: "unknown handler", mutate: func(c *Config) { c.Endpoints[0].Handler = "nope" },
			problem: `unknown handler "nope"`},
		{name: "stamped header", mutate: func(c *Config) { c.Header.Init(header.KindListenerConfiguration, "dev") }},
		{name: "wrong kind", mutate: func(c *Config) { c.Kind = "Snapshot" },
			problem: `kind "Snapshot"`},
		{name: "unsupported api version", mutate: func(c *Config) { c.APIVersion = "cnm.nvidia.com/v9" },
			problem: `apiVersion "cnm.nvidia.com/v9"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.problem == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := &Config{
		Endpoints: []EndpointConfig{{ID: ""}, {ID: "x", Handler: "nope"}},
	}
	err := c.Validate()
	require.Error(t, err)

	var se *errors.StructuredError
	require.ErrorAs(t, err, &se)
	problems, ok := se.Context["problems"].([]string)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(problems), 4)
}

func TestSummary(t *testing.T) {
	cfg := &Config{
		DefaultFactory: "default",
		Factories: []FactoryConfig{
			{Name: "default", Concurrency: ptr.To(3)},
			{Name: "phased", Phase: ptr.To(5), AutoStartup: ptr.To(false)},
		},
		Endpoints: []EndpointConfig{
			{ID: "a"},
			{ID: "b", Factory: "phased", Group: "g"},
		},
	}
	cfg.ApplyDefaults()

	s := cfg.Summary()
	require.Len(t, s.Endpoints, 2)
	assert.Equal(t, "default", s.Endpoints[0].Factory)
	assert.Equal(t, 3, s.Endpoints[0].Concurrency)
	assert.Equal(t, "default", s.Endpoints[0].Phase)
	assert.Equal(t, "5", s.Endpoints[1].Phase)
	assert.False(t, s.Endpoints[1].AutoStartup)

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(s.Columns()))
	assert.Equal(t, "-", rows[0][2])
	assert.Equal(t, "g", rows[1][2])
}

func TestLoad_Header(t *testing.T) {
	doc := "kind: ListenerConfiguration\napiVersion: " + header.APIVersion +
		"\nmetadata:\n  owner: payments\n" + sampleYAML
	p := filepath.Join(t.TempDir(), "listeners.yaml")
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))

	cfg, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, header.KindListenerConfiguration, cfg.Kind)
	assert.Equal(t, "payments", cfg.Metadata["owner"])
	assert.Len(t, cfg.Endpoints, 2)
}
