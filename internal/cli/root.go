// Package cli implements the itemstore command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/itemstore/internal/config"
	"github.com/mesh-intelligence/itemstore/internal/logging"
	"github.com/mesh-intelligence/itemstore/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
)

// rootFlags holds global flag values and the state PersistentPreRunE
// builds from them for subcommands.
type rootFlags struct {
	configFile string
	logLevel   string

	// Populated before any subcommand runs.
	viper      *viper.Viper
	cfg        *config.Config
	configUsed string
}

// NewRootCmd creates the top-level "itemstore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "itemstore",
		Short: "An in-memory item store with a JSON REST API",
		Long: "itemstore keeps a collection of items in memory and serves create, read,\n" +
			"update and delete operations over HTTP.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"config file (default: ./itemstore.yaml or $XDG_CONFIG_HOME/itemstore/config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	root.AddCommand(newVersionCmd())
	root.AddCommand(newSeedCmd(flags))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
	os.Exit(exitSuccess)
}

// load resolves the config file, applies flag overrides and validates the
// result.
func (f *rootFlags) load(cmd *cobra.Command) error {
	file, err := paths.ResolveConfigFile(f.configFile)
	if err != nil {
		return err
	}

	v := config.NewViper()
	if f.logLevel != "" {
		v.Set(config.KeyLogLevel, f.logLevel)
	}
	cfg, err := config.Load(v, file)
	if err != nil {
		return err
	}

	f.viper = v
	f.cfg = cfg
	f.configUsed = file
	return nil
}

// newLogger builds the service logger writing to out.
func newLogger(cfg config.LogConfig, out io.Writer) (*logging.ServiceLogger, error) {
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: out,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
