package types

import "errors"

// Config selects the backend and the initial collection for a store.
type Config struct {
	Backend      string `json:"backend" yaml:"backend" mapstructure:"backend"`
	SeedDefaults bool   `json:"seed_defaults" yaml:"seed_defaults" mapstructure:"seed_defaults"`
	SeedFile     string `json:"seed_file" yaml:"seed_file" mapstructure:"seed_file"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}
