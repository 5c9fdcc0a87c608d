package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/itemstore", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "itemstore"), got)
	})
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "itemstore"), got)
}

// withDirs points the working directory and XDG config home at temp dirs
// for the duration of the test.
func withDirs(t *testing.T) (cwd, xdg string) {
	t.Helper()
	cwd = t.TempDir()
	xdg = t.TempDir()

	orig := platformDir.getwd
	platformDir.getwd = func() (string, error) { return cwd, nil }
	t.Cleanup(func() { platformDir.getwd = orig })

	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfigFile, "")
	return cwd, xdg
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))
	return path
}

func TestResolveConfigFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relies on XDG_CONFIG_HOME")
	}

	tests := []struct {
		name    string
		setup   func(t *testing.T, cwd, xdg string) (flag, want string)
		wantErr bool
	}{
		{
			name: "nothing found runs on defaults",
			setup: func(t *testing.T, cwd, xdg string) (string, string) {
				return "", ""
			},
		},
		{
			name: "platform config dir",
			setup: func(t *testing.T, cwd, xdg string) (string, string) {
				return "", touch(t, filepath.Join(xdg, "itemstore", "config.yaml"))
			},
		},
		{
			name: "local file beats platform dir",
			setup: func(t *testing.T, cwd, xdg string) (string, string) {
				touch(t, filepath.Join(xdg, "itemstore", "config.yaml"))
				return "", touch(t, filepath.Join(cwd, "itemstore.yaml"))
			},
		},
		{
			name: "env beats local file",
			setup: func(t *testing.T, cwd, xdg string) (string, string) {
				touch(t, filepath.Join(cwd, "itemstore.yaml"))
				env := touch(t, filepath.Join(t.TempDir(), "env.yaml"))
				t.Setenv(EnvConfigFile, env)
				return "", env
			},
		},
		{
			name: "flag beats env",
			setup: func(t *testing.T, cwd, xdg string) (string, string) {
				t.Setenv(EnvConfigFile, touch(t, filepath.Join(t.TempDir(), "env.yaml")))
				flag := touch(t, filepath.Join(t.TempDir(), "flag.yaml"))
				return flag, flag
			},
		},
		{
			name: "missing explicit file is an error",
			setup: func(t *testing.T, cwd, xdg string) (string, string) {
				return filepath.Join(t.TempDir(), "absent.yaml"), ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd, xdg := withDirs(t)
			flag, want := tt.setup(t, cwd, xdg)

			got, err := ResolveConfigFile(flag)
			if tt.wantErr {
				assert.ErrorIs(t, err, os.ErrNotExist)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
