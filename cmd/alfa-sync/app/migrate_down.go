package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long: `Roll back database migrations. By default all migrations are reverted;
use --num-steps to roll back a fixed number of versions.`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, cfg, err := newMigrator(cmd)
	if err != nil {
		return err
	}

	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	// Rolling back drops mirrored data; make the operator confirm it.
	ok, err := confirm(cmd, fmt.Sprintf("About to ROLL BACK migrations on %s@%s:%d/%s. Continue?",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Rollback cancelled by user")
		return nil
	}

	slog.Info("Rolling back database migrations...")
	if steps > 0 {
		err = m.Steps(-int(steps))
	} else {
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	slog.Info("Rollback complete")
	return nil
}
