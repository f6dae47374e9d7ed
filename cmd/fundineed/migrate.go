package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/fundineed/internal/adapters/repository"
	"github.com/okian/fundineed/pkg/logger"
)

func migrateCmd(c *cli) *cobra.Command {
	var (
		dbPath string
		status bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Create or upgrade the SQLite schema to the latest version.

The server migrates on start as well; this command is for preparing a
database ahead of a deploy or checking its version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if dbPath == "" {
				dbPath = c.cfg.DBPath
			}

			store, err := repository.NewSQLiteStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if !status {
				logger.Get().Info(ctx, "running database migrations", logger.String("database", dbPath))
				if err := store.Migrate(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			}

			v, err := store.Version(ctx)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database: %s\nschema version: %d (latest %d)\n", dbPath, v, repository.SchemaVersion)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: config db_path)")
	cmd.Flags().BoolVar(&status, "status", false, "show the schema version without applying migrations")
	return cmd
}
