package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
)

func TestResolveKubeconfig(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/from/env")
		assert.Equal(t, "/explicit", ResolveKubeconfig("/explicit"))
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/from/env")
		assert.Equal(t, "/from/env", ResolveKubeconfig(""))
	})

	t.Run("home directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("KUBECONFIG", "")
		assert.Equal(t, "", ResolveKubeconfig(""))

		path := filepath.Join(home, ".kube", "config")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("apiVersion: v1\n"), 0o600))
		assert.Equal(t, path, ResolveKubeconfig(""))
	})
}

func TestNew_InvalidKubeconfig(t *testing.T) {
	_, _, err := New("/nonexistent/path/to/kubeconfig")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestNew_ValidKubeconfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	kubeconfig := `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
users:
- name: test
  user:
    token: secret
`
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))

	cs, cfg, err := New(path)
	require.NoError(t, err)
	assert.NotNil(t, cs)
	assert.Equal(t, UserAgent, cfg.UserAgent)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)
}
