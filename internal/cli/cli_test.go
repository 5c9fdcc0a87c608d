package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/itemstore/pkg/itemstore"
)

// isolate keeps the host's config files and environment out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, name := range []string{
		"ITEMSTORE_CONFIG", "PORT", "ITEMSTORE_SERVER_PORT", "ITEMSTORE_SERVER_HOST",
		"ITEMSTORE_STORE_BACKEND", "ITEMSTORE_STORE_SEED_DEFAULTS", "ITEMSTORE_STORE_SEED_FILE",
		"ITEMSTORE_LOG_LEVEL", "ITEMSTORE_LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
	return dir
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a
// running server and the reads of the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("itemstore v%s\nmodule: %s\n", itemstore.Version, itemstore.ModulePath), out)
}

func TestVersion_IgnoresBrokenConfig(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "itemstore.yaml", "server:\n  port: -1\n")
	_, err := run(t, "version")
	assert.NoError(t, err)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) []string
		check func(t *testing.T, out string, doc map[string]any)
	}{
		{
			name:  "defaults",
			setup: func(t *testing.T, dir string) []string { return []string{"config"} },
			check: func(t *testing.T, out string, doc map[string]any) {
				assert.True(t, strings.HasPrefix(out, "# config file: none"))
				server := doc["server"].(map[string]any)
				assert.Equal(t, 3000, server["port"])
				assert.Equal(t, "10s", server["shutdown_timeout"])
				assert.Equal(t, "memory", doc["store"].(map[string]any)["backend"])
			},
		},
		{
			name: "local file and PORT",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, dir, "itemstore.yaml", "store:\n  backend: sqlite\n")
				t.Setenv("PORT", "8081")
				return []string{"config"}
			},
			check: func(t *testing.T, out string, doc map[string]any) {
				assert.Contains(t, out, "itemstore.yaml")
				assert.Equal(t, 8081, doc["server"].(map[string]any)["port"])
				assert.Equal(t, "sqlite", doc["store"].(map[string]any)["backend"])
			},
		},
		{
			name: "flag overrides",
			setup: func(t *testing.T, dir string) []string {
				path := writeFile(t, dir, "custom.yaml", "log:\n  level: warn\n")
				return []string{"config", "--config", path, "--log-level", "debug"}
			},
			check: func(t *testing.T, out string, doc map[string]any) {
				assert.Contains(t, out, "custom.yaml")
				assert.Equal(t, "debug", doc["log"].(map[string]any)["level"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			out, err := run(t, tt.setup(t, dir)...)
			require.NoError(t, err)

			var doc map[string]any
			require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
			tt.check(t, out, doc)
		})
	}
}

func TestConfig_Invalid(t *testing.T) {
	isolate(t)
	_, err := run(t, "config", "--log-level", "loud")
	assert.Error(t, err)

	_, err = run(t, "config", "--config", "does-not-exist.yaml")
	assert.Error(t, err)
}

func TestSeedCheck(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "valid file checked against defaults",
			body: "{\"id\":\"10\",\"name\":\"a\",\"description\":\"b\"}\nnot json\n",
			want: "%s: 1 items, 1 malformed lines skipped\nnext id: 11\n",
		},
		{
			name:    "clash with defaults",
			body:    `{"id":"1","name":"a","description":"b"}` + "\n",
			wantErr: true,
		},
		{
			name: "clash ignored without defaults",
			body: `{"id":"1","name":"a","description":"b"}` + "\n",
			args: []string{"--with-defaults=false"},
			want: "%s: 1 items, 0 malformed lines skipped\nnext id: 2\n",
		},
		{
			name:    "invalid item",
			body:    `{"id":"9","name":""}` + "\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeFile(t, dir, "items.jsonl", tt.body)
			out, err := run(t, append([]string{"seed", "check", path}, tt.args...)...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf(tt.want, path), out)
		})
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServe(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a real listener")
	}
	isolate(t)
	port := freePort(t)
	t.Setenv("ITEMSTORE_SERVER_HOST", "127.0.0.1")
	t.Setenv("ITEMSTORE_SERVER_PORT", fmt.Sprint(port))

	var out syncBuffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 25*time.Millisecond)

	resp, err := http.Get(base + "/items/3")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"3","name":"Headphones","description":"Audio output device"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}

	logs := out.String()
	assert.Contains(t, logs, fmt.Sprintf("Server running on http://localhost:%d", port))
	assert.Contains(t, logs, "GET /items/3 - Retrieving item by ID")
}
