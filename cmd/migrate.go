package main

import (
	"database/sql"
	"fmt"

	"github.com/sm8ta/webike_garage_service/internal/adapter/postgres"
	"github.com/sm8ta/webike_garage_service/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
		Long:  "Applies or rolls back the goose migrations under MIGRATIONS_DIR (override with --dir).",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory")

	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", &dir, postgres.MigrateUp),
		migrateSubcommand("down", "Roll back the latest migration", &dir, postgres.MigrateDown),
		migrateSubcommand("status", "Print applied and pending migrations", &dir, postgres.MigrationStatus),
	)
	return cmd
}

func migrateSubcommand(use, short string, dir *string, run func(db *sql.DB, dir string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if cfg.DB.Driver == "memory" {
				return fmt.Errorf("migrate %s: DB_DRIVER=memory has no schema", use)
			}
			if *dir == "" {
				*dir = cfg.DB.MigrationsDir
			}

			db, err := postgres.Open(cmd.Context(), cfg.DB.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := run(db, *dir); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", use)
			return nil
		},
	}
}
