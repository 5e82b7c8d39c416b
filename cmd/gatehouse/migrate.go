// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var (
		down         bool
		steps        int
		showStatus   bool
		forceVersion string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending database migrations against the PostgreSQL database.
With no flags all pending migrations are applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, down, steps, showStatus, forceVersion)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations")
	cmd.Flags().IntVar(&steps, "steps", 0, "apply n migrations (negative rolls back)")
	cmd.Flags().BoolVar(&showStatus, "status", false, "show current and pending migration versions")
	cmd.Flags().StringVar(&forceVersion, "force", "", "force the schema version without running migrations")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL)")

	return cmd
}

func runMigrate(cmd *cobra.Command, down bool, steps int, showStatus bool, forceVersion string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	databaseURL := cfg.Database.URL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			cmd.PrintErrln("warning: failed to close migrator:", closeErr)
		}
	}()

	switch {
	case showStatus:
		return printMigrationStatus(cmd, migrator)

	case forceVersion != "":
		v, err := parseForceVersion(forceVersion)
		if err != nil {
			return err
		}
		if err := migrator.Force(v); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "force version").Wrap(err)
		}
		cmd.Printf("Forced schema version to %d\n", v)
		return nil

	case down:
		cmd.Println("Rolling back migrations...")
		if err := migrator.Down(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
		}
		cmd.Println("Rollback completed successfully")
		return nil

	case steps != 0:
		cmd.Printf("Applying %d migration step(s)...\n", steps)
		if err := migrator.Steps(steps); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "apply migration steps").Wrap(err)
		}
		cmd.Println("Migrations completed successfully")
		return nil

	default:
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		cmd.Println("Migrations completed successfully")
		return nil
	}
}

// printMigrationStatus reports the current schema version and any pending
// migrations.
func printMigrationStatus(cmd *cobra.Command, migrator *store.Migrator) error {
	version, dirty, err := migrator.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	if version == 0 {
		cmd.Println("Current version: none")
	} else {
		cmd.Printf("Current version: %d (dirty: %t)\n", version, dirty)
	}

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "list pending migrations").Wrap(err)
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	cmd.Printf("Pending migrations: %v\n", pending)
	return nil
}

// parseForceVersion parses the --force flag value. Sscanf stops at the first
// non-digit, so trailing garbage is ignored.
func parseForceVersion(input string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(input, "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").
			With("input", input).
			Errorf("force version must be an integer")
	}
	return v, nil
}
