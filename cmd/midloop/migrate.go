package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"midloop/storage"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version|reset]",
	Short:     "Manage the bookmark database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "version", "reset"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sqliteStorage := storage.NewSQLiteStorage(cfg.DataPath, logger)
	if err := sqliteStorage.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer sqliteStorage.Close()

	out := cmd.OutOrStdout()
	switch args[0] {
	case "up":
		if err := sqliteStorage.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Fprintln(out, "Migrations completed successfully")

	case "down":
		if err := sqliteStorage.RollbackMigration(); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		fmt.Fprintln(out, "Migration rolled back successfully")

	case "status":
		if err := sqliteStorage.GetMigrationManager().Status(); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		version, err := sqliteStorage.GetDatabaseVersion()
		if err != nil {
			return fmt.Errorf("failed to get database version: %w", err)
		}
		fmt.Fprintf(out, "Database version: %d\n", version)

	case "reset":
		if err := sqliteStorage.ResetDatabase(); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintln(out, "Database reset completed successfully")
	}
	return nil
}
