package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/itemstore/internal/config"
	"github.com/mesh-intelligence/itemstore/internal/logging"
	"github.com/mesh-intelligence/itemstore/internal/server"
	"github.com/mesh-intelligence/itemstore/pkg/itemstore"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Start the item API on server.host:server.port (PORT is honoured) and\n" +
			"serve until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *rootFlags) error {
	cfg := flags.cfg
	logger, err := newLogger(cfg.Log, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := itemstore.Open(cfg.Store)
	if err != nil {
		logger.Error(ctx, err, "opening store")
		return err
	}
	defer store.Detach()

	items, err := store.List(ctx)
	if err != nil {
		return err
	}
	logger.Info(ctx, "store ready", "backend", cfg.Store.Backend, "items", len(items))

	if flags.configUsed != "" {
		logger.Info(ctx, "using config file", "path", flags.configUsed)
		config.Watch(flags.viper, reloadLogLevel(ctx, logger))
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		logger.Error(ctx, err, "listen failed", "addr", cfg.Server.Addr())
		return err
	}

	router := server.NewRouter(cfg.Server, server.NewItemHandlers(store, logger), server.DefaultChain(logger))
	logBanner(ctx, logger, ln.Addr())

	if err := router.Serve(ctx, ln); err != nil {
		logger.Error(ctx, err, "server stopped")
		return err
	}
	logger.Info(ctx, "server stopped")
	return nil
}

// reloadLogLevel applies log.level from an edited config file. Other keys
// need a restart.
func reloadLogLevel(ctx context.Context, logger *logging.ServiceLogger) func(fsnotify.Event, *config.Config, error) {
	return func(e fsnotify.Event, cfg *config.Config, err error) {
		if err != nil {
			logger.Warn(ctx, err, "ignoring invalid config change", "file", e.Name)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			logger.Warn(ctx, err, "ignoring log level change", "file", e.Name)
			return
		}
		logger.Info(ctx, "config reloaded", "file", e.Name, "log_level", cfg.Log.Level)
	}
}

func logBanner(ctx context.Context, logger logging.Logger, addr net.Addr) {
	port := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = fmt.Sprint(tcp.Port)
	}
	logger.Info(ctx, fmt.Sprintf("Server running on http://localhost:%s", port))
	for _, line := range []string{
		"API Endpoints:",
		"GET /items - Retrieve all items",
		"GET /items/:id - Retrieve item by ID",
		"POST /items - Create new item",
		"PUT /items/:id - Update item by ID",
		"DELETE /items/:id - Delete item by ID",
	} {
		logger.Info(ctx, line)
	}
}
