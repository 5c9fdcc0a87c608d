// Package paths resolves where itemstore looks for its configuration file.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// File and directory names.
const (
	AppDirName        = "itemstore"
	LocalConfigFile   = "itemstore.yaml"
	DefaultConfigFile = "config.yaml"
)

// EnvConfigFile overrides the config file location.
const EnvConfigFile = "ITEMSTORE_CONFIG"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/itemstore (fallback ~/.config/itemstore)
// macOS:   ~/Library/Application Support/itemstore
// Windows: %APPDATA%/itemstore
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppDirName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
}

// ResolveConfigFile returns the config file to load following the
// precedence chain: flag > ITEMSTORE_CONFIG env > ./itemstore.yaml >
// DefaultConfigDir()/config.yaml.
//
// An explicit flag or env value must name an existing file. The two
// implicit locations are used only if present; when neither exists the
// result is "" and the caller runs on defaults.
func ResolveConfigFile(flag string) (string, error) {
	for _, explicit := range []string{flag, os.Getenv(EnvConfigFile)} {
		if explicit == "" {
			continue
		}
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return abs, nil
	}

	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	candidates := []string{filepath.Join(cwd, LocalConfigFile)}
	if dir, err := DefaultConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, DefaultConfigFile))
	}

	for _, c := range candidates {
		_, err := os.Stat(c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config file: %w", err)
		}
	}
	return "", nil
}
