package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vmsantos44/alfa-platform/internal/alerts"
	"github.com/vmsantos44/alfa-platform/internal/api"
	"github.com/vmsantos44/alfa-platform/internal/config"
	"github.com/vmsantos44/alfa-platform/internal/remote"
	"github.com/vmsantos44/alfa-platform/internal/store"
	enginesync "github.com/vmsantos44/alfa-platform/internal/sync"
	"github.com/vmsantos44/alfa-platform/internal/sync/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync service",
	Long: `Start the sync scheduler and the HTTP control surface.

The server requires a configuration file (--config) that specifies:
- The remote CRM endpoint and credentials
- The sync schedule and pagination settings
- The database connection

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	serveCmd.Flags().String("env-file", "", "Optional .env file loaded before reading configuration")

	for _, flag := range []string{"address", "config", "env-file"} {
		if err := viper.BindPFlag(flag, serveCmd.Flags().Lookup(flag)); err != nil {
			slog.Error("Failed to bind flag", "flag", flag, "error", err)
			os.Exit(1)
		}
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")

	if err := config.LoadDotEnv(viper.GetString("env-file")); err != nil {
		return err
	}

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"remote", cfg.Remote.Endpoint,
		"interval", cfg.Sync.DefaultInterval())

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return err
	}
	pool, err := store.NewPool(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	st := store.New(pool)
	slog.Info("Database connection established",
		"host", cfg.Database.Host, "database", cfg.Database.Database)

	token, err := cfg.Remote.GetToken()
	if err != nil {
		return err
	}
	var sourceOpts []remote.HTTPOption
	if cfg.Remote.MaxRetries > 0 {
		sourceOpts = append(sourceOpts, remote.WithMaxRetries(uint(cfg.Remote.MaxRetries)))
	}
	source := remote.NewHTTPSource(cfg.Remote.Endpoint, remote.StaticTokenProvider(token), sourceOpts...)

	var engineOpts []enginesync.Option
	if cfg.Sync.PageSize > 0 {
		engineOpts = append(engineOpts, enginesync.WithPageSize(cfg.Sync.PageSize))
	}
	if cfg.Sync.MaxPages > 0 {
		engineOpts = append(engineOpts, enginesync.WithMaxPages(cfg.Sync.MaxPages))
	}
	engine := enginesync.New(source, st, engineOpts...)

	sched := scheduler.New(engine)
	if err := sched.Start(cfg.Sync.DefaultInterval(), cfg.Sync.RunOnStart); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	router := api.NewServer(engine, sched, alerts.New(st), st,
		api.WithMiddlewares(api.DefaultMiddlewares()...))

	// No WriteTimeout: manual sync triggers hold the response open until the
	// run finishes.
	server := &http.Server{
		Addr:        address,
		Handler:     router,
		ReadTimeout: serverReadTimeout,
		IdleTimeout: serverIdleTimeout,
	}

	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Stop the scheduler first; an in-flight run is allowed to finish.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}
