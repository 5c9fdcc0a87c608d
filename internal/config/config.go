// Package config loads itemstore settings from defaults, an optional YAML
// file and ITEMSTORE_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/itemstore/internal/logging"
	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ITEMSTORE"

// Config keys.
const (
	KeyServerHost      = "server.host"
	KeyServerPort      = "server.port"
	KeyShutdownTimeout = "server.shutdown_timeout"
	KeyStoreBackend    = "store.backend"
	KeySeedDefaults    = "store.seed_defaults"
	KeySeedFile        = "store.seed_file"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

// Defaults.
const (
	DefaultPort            = 3000
	DefaultShutdownTimeout = 10 * time.Second
)

// Validation errors.
var (
	ErrInvalidPort      = errors.New("server.port must be between 1 and 65535")
	ErrInvalidTimeout   = errors.New("server.shutdown_timeout must be positive")
	ErrInvalidLogLevel  = errors.New("log.level must be one of debug, info, warn, error")
	ErrInvalidLogFormat = errors.New("log.format must be text or json")
)

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Store  types.Config `mapstructure:"store" yaml:"store"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// MarshalYAML renders the timeout as a duration string instead of
// nanoseconds.
func (s ServerConfig) MarshalYAML() (any, error) {
	return struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	}{s.Host, s.Port, s.ShutdownTimeout.String()}, nil
}

// Addr is the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// NewViper returns a Viper instance with defaults and environment binding
// applied. The plain PORT variable is honoured for server.port after
// ITEMSTORE_SERVER_PORT.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyServerHost, "")
	v.SetDefault(KeyServerPort, DefaultPort)
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)
	v.SetDefault(KeyStoreBackend, types.BackendMemory)
	v.SetDefault(KeySeedDefaults, true)
	v.SetDefault(KeySeedFile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatText)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyServerPort, EnvPrefix+"_SERVER_PORT", "PORT")
	return v
}

// Load reads file (if non-empty) into v and decodes the result. The
// returned Config has been validated.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals the current state of v and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w, got %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store.backend: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w, got %q", ErrInvalidLogLevel, c.Log.Level)
	}
	switch c.Log.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}

// Watch re-decodes the config whenever the file backing v changes and
// passes the result to onChange. Invalid edits are reported through err
// and the previous configuration stays in effect. Watch is a no-op when v
// has no config file.
func Watch(v *viper.Viper, onChange func(e fsnotify.Event, cfg *Config, err error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Decode(v)
		onChange(e, cfg, err)
	})
	v.WatchConfig()
}
