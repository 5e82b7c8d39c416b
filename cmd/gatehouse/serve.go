// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/access"
	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	candidatepg "github.com/gatehouse/gatehouse/internal/candidate/postgres"
	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
	"github.com/gatehouse/gatehouse/internal/web"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var runMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication and candidate API server",
		Long: `Start the HTTP server that handles registration, login, token refresh,
logout, TOTP enrollment, and the role-gated candidate endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, runMigrations, nil)
		},
	}

	defaults := config.Default()
	cmd.Flags().String("server.addr", defaults.Server.Addr, "API listen address")
	cmd.Flags().String("metrics.addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL)")
	cmd.Flags().String("log.format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("log.level", defaults.Log.Level, "log level")
	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "run pending migrations before serving")

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, runMigrations bool, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}

	// Set up default factories
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = func(ctx context.Context, url string) (Database, error) {
			return store.NewPool(ctx, url)
		}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (DatabaseMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup("gatehouse", version, cfg.Log.Format, cfg.Log.Level, nil)
	slog.SetDefault(logger)

	slog.Info("starting server",
		"addr", cfg.Server.Addr,
		"log_format", cfg.Log.Format,
	)

	if runMigrations {
		migrator, err := deps.MigratorFactory(cfg.Database.URL)
		if err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		if err := migrator.Close(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "close migrator").Wrap(err)
		}
		slog.Info("migrations applied")
	}

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	slog.Info("connected to database")

	hasher := auth.NewArgon2idHasher()
	totp, err := auth.NewTimeStepVerifier(cfg.TOTP.Issuer)
	if err != nil {
		return err
	}
	tokens, err := auth.NewJWTIssuer(
		[]byte(cfg.Tokens.AccessKey),
		[]byte(cfg.Tokens.RefreshKey),
		auth.WithTokenTTLs(cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL),
	)
	if err != nil {
		return err
	}

	principals := authpg.NewPrincipalRepository(db)
	candidates := candidatepg.NewCandidateRepository(db)

	authService, err := auth.NewService(principals, hasher, totp, tokens, logger)
	if err != nil {
		return err
	}

	roles := access.NewDefaultRoleTable()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Second)
			defer pingCancel()
			return db.Ping(pingCtx) == nil
		})
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVER_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	handler := web.NewHandler(authService, candidates, roles, metrics, logger)
	apiServer := web.NewServer(cfg.Server.Addr, handler.Routes(), logger)
	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopObservability(obsServer)
		return oops.Code("SERVER_START_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Server started")
	slog.Info("server ready", "addr", apiServer.Addr())

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// stopObservability stops the observability server during startup cleanup.
func stopObservability(obsServer ObservabilityServer) {
	if obsServer == nil {
		return
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors watches a server error channel and cancels the serve
// context when the server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
