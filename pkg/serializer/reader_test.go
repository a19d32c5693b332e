package serializer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type doc struct {
	Name  string   `json:"name" yaml:"name"`
	Count int      `json:"count" yaml:"count"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewReader(t *testing.T) {
	_, err := NewReader(FormatTable, strings.NewReader(""))
	assert.Error(t, err)

	_, err = NewReader(Format("xml"), strings.NewReader(""))
	assert.Error(t, err)

	r, err := NewReader(FormatJSON, strings.NewReader(`{"name":"a","count":2}`))
	require.NoError(t, err)
	var d doc
	require.NoError(t, r.Deserialize(&d))
	assert.Equal(t, doc{Name: "a", Count: 2}, d)
	assert.NoError(t, r.Close())
}

func TestReader_RejectsUnknownFields(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatJSON, `{"name":"a","cuont":2}`},
		{FormatYAML, "name: a\ncuont: 2\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			r, err := NewReader(tt.format, strings.NewReader(tt.input))
			require.NoError(t, err)
			var d doc
			assert.Error(t, r.Deserialize(&d))
		})
	}
}

func TestReader_NilChecks(t *testing.T) {
	var r *Reader
	assert.Error(t, r.Deserialize(&doc{}))
	assert.NoError(t, r.Close())

	r, err := NewReader(FormatJSON, nil)
	require.NoError(t, err)
	assert.Error(t, r.Deserialize(&doc{}))
}

func TestLoad_File(t *testing.T) {
	ctx := context.Background()

	t.Run("yaml", func(t *testing.T) {
		p := writeTemp(t, "doc.yaml", "name: orders\ncount: 3\ntags: [a, b]\n")
		d, err := Load[doc](ctx, p)
		require.NoError(t, err)
		assert.Equal(t, &doc{Name: "orders", Count: 3, Tags: []string{"a", "b"}}, d)
	})

	t.Run("json", func(t *testing.T) {
		p := writeTemp(t, "doc.json", `{"name":"orders","count":1}`)
		d, err := Load[doc](ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "orders", d.Name)
	})

	t.Run("unknown extension assumes yaml", func(t *testing.T) {
		p := writeTemp(t, "doc.conf", "name: x\n")
		d, err := Load[doc](ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "x", d.Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load[doc](ctx, filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty source", func(t *testing.T) {
		_, err := Load[doc](ctx, "  ")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		p := writeTemp(t, "doc.json", `{"name":`)
		_, err := Load[doc](ctx, p)
		assert.Error(t, err)
	})
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HTTPUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/doc.yaml":
			_, _ = w.Write([]byte("name: from-path\n"))
		case "/doc":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"from-content-type"}`))
		case "/plain":
			_, _ = w.Write([]byte("name: fallback\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "/doc.yaml", want: "from-path"},
		{path: "/doc", want: "from-content-type"},
		{path: "/plain", want: "fallback"},
		{path: "/missing.yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, err := Load[doc](ctx, srv.URL+tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name)
		})
	}
}

func TestLoad_ConfigMap(t *testing.T) {
	ctx := context.Background()
	cs := fake.NewClientset(
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "yaml", Namespace: "messaging"},
			Data:       map[string]string{"listeners.yaml": "name: cm-yaml\ncount: 7\n"},
		},
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "json", Namespace: "messaging"},
			Data: map[string]string{
				"format":         "json",
				"listeners.json": `{"name":"cm-json"}`,
				"listeners.yaml": "name: ignored\n",
			},
		},
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "empty", Namespace: "messaging"},
			Data:       map[string]string{"other": "x"},
		},
	)

	d, err := Load[doc](ctx, "cm://messaging/yaml", WithKubeClient(cs))
	require.NoError(t, err)
	assert.Equal(t, &doc{Name: "cm-yaml", Count: 7}, d)

	d, err = Load[doc](ctx, "cm://messaging/json", WithKubeClient(cs))
	require.NoError(t, err)
	assert.Equal(t, "cm-json", d.Name)

	_, err = Load[doc](ctx, "cm://messaging/empty", WithKubeClient(cs))
	assert.ErrorContains(t, err, "no listeners data")

	_, err = Load[doc](ctx, "cm://messaging/absent", WithKubeClient(cs))
	assert.Error(t, err)

	_, err = Load[doc](ctx, "cm://broken", WithKubeClient(cs))
	assert.Error(t, err)
}
