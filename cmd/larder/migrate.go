package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/database"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenNoMigrate(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			version, err := database.Version(db)
			if err != nil {
				return err
			}
			a.logger.Info("database migrated", "path", a.cfg.DBPath, "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
