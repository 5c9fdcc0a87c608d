package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT",
		"ITEMSTORE_SERVER_HOST",
		"ITEMSTORE_SERVER_PORT",
		"ITEMSTORE_SERVER_SHUTDOWN_TIMEOUT",
		"ITEMSTORE_STORE_BACKEND",
		"ITEMSTORE_STORE_SEED_DEFAULTS",
		"ITEMSTORE_STORE_SEED_FILE",
		"ITEMSTORE_LOG_LEVEL",
		"ITEMSTORE_LOG_FORMAT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itemstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "", cfg.Server.Host)
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, types.Config{Backend: types.BackendMemory, SeedDefaults: true}, cfg.Store)
				assert.Equal(t, LogConfig{Level: "info", Format: "text"}, cfg.Log)
			},
		},
		{
			name: "PORT is honoured",
			env:  map[string]string{"PORT": "8080"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "prefixed port beats PORT",
			env:  map[string]string{"PORT": "8080", "ITEMSTORE_SERVER_PORT": "9090"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
			},
		},
		{
			name: "file values",
			file: "server:\n  host: 127.0.0.1\n  port: 4000\n  shutdown_timeout: 3s\nstore:\n  backend: sqlite\n  seed_defaults: false\nlog:\n  level: debug\n  format: json\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "127.0.0.1:4000", cfg.Server.Addr())
				assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, types.BackendSQLite, cfg.Store.Backend)
				assert.False(t, cfg.Store.SeedDefaults)
				assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
			},
		},
		{
			name: "env beats file",
			file: "log:\n  level: debug\n",
			env:  map[string]string{"ITEMSTORE_LOG_LEVEL": "warn", "ITEMSTORE_STORE_SEED_DEFAULTS": "false"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.Log.Level)
				assert.False(t, cfg.Store.SeedDefaults)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			file := ""
			if tt.file != "" {
				file = writeFile(t, tt.file)
			}

			cfg, err := Load(NewViper(), file)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr error
	}{
		{name: "port zero", env: map[string]string{"PORT": "0"}, wantErr: ErrInvalidPort},
		{name: "port too large", env: map[string]string{"ITEMSTORE_SERVER_PORT": "70000"}, wantErr: ErrInvalidPort},
		{name: "unknown backend", env: map[string]string{"ITEMSTORE_STORE_BACKEND": "redis"}, wantErr: types.ErrBackendUnknown},
		{name: "unknown level", env: map[string]string{"ITEMSTORE_LOG_LEVEL": "loud"}, wantErr: ErrInvalidLogLevel},
		{name: "unknown format", env: map[string]string{"ITEMSTORE_LOG_FORMAT": "xml"}, wantErr: ErrInvalidLogFormat},
		{name: "negative timeout", file: "server:\n  shutdown_timeout: -1s\n", wantErr: ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			file := ""
			if tt.file != "" {
				file = writeFile(t, tt.file)
			}
			_, err := Load(NewViper(), file)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_YAML(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "shutdown_timeout: 10s")
	assert.Contains(t, string(out), "backend: memory")
	assert.Contains(t, string(out), "seed_defaults: true")
}

func TestWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on filesystem events")
	}
	clearEnv(t)
	path := writeFile(t, "log:\n  level: info\n")
	v := NewViper()
	_, err := Load(v, path)
	require.NoError(t, err)

	var mu sync.Mutex
	var latest *Config
	Watch(v, func(_ fsnotify.Event, cfg *Config, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		latest = cfg
		mu.Unlock()
	})

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.Log.Level == "debug"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_NoFileIsNoop(t *testing.T) {
	clearEnv(t)
	v := NewViper()
	called := false
	Watch(v, func(fsnotify.Event, *Config, error) { called = true })
	assert.False(t, called)
}
