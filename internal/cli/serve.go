package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/presenced/internal/config"
	"github.com/roach88/presenced/internal/server"
	"github.com/roach88/presenced/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Socket   string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the presence protocol on a unix socket",
		Long: `Open the interval store and serve ingestion and query sessions on a
unix stream socket until interrupted.

Settings come from the optional YAML config file; flags override it.

Example:
  presenced serve --db ./presence.db --socket /tmp/presenced.sock
  presenced -c /etc/presenced.yaml serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Socket, "socket", "", "unix socket path")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Socket != "" {
		cfg.Socket = opts.Socket
	}
	if cfg.Verbose && !opts.Verbose {
		configureLogging(true)
	}

	slog.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Graceful shutdown: a signal cancels the context, the server finishes
	// the in-flight request, and the deferred close tears down the store
	// exactly once.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := server.New(st)
	if err := srv.ListenAndServe(ctx, cfg.Socket); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	return nil
}

// loadConfig resolves the effective configuration: defaults, overlaid by the
// config file when one was given.
func loadConfig(rootOpts *RootOptions) (config.Config, error) {
	if rootOpts.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(rootOpts.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}
