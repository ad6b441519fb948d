package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/database"
)

func (a *app) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore encrypted database backups",
	}
	cmd.AddCommand(a.backupCreateCmd(), a.backupListCmd(), a.backupRestoreCmd())
	return cmd
}

func (a *app) backupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot the database now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Backup.Passphrase == "" {
				return errors.New("set LARDER_BACKUP_PASSPHRASE to create backups")
			}
			db, err := database.Open(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			mgr := backup.NewManager(db, a.cfg.Backup.Target(), backup.Config{
				Passphrase: a.cfg.Backup.Passphrase,
				Keep:       a.cfg.Backup.Keep,
			}, a.logger.With("component", "backup"))
			key, err := mgr.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func (a *app) backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.cfg.Backup.Target().List(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func (a *app) backupRestoreCmd() *cobra.Command {
	var (
		to    string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "restore KEY",
		Short: "Decrypt a backup into a database file",
		Long:  "Decrypt a backup into a database file. Stop the server before restoring over its database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Backup.Passphrase == "" {
				return errors.New("set LARDER_BACKUP_PASSPHRASE to restore backups")
			}
			if to == "" {
				to = a.cfg.DBPath
			}
			if err := backup.Restore(cmd.Context(), a.cfg.Backup.Target(), args[0], a.cfg.Backup.Passphrase, to, force); err != nil {
				return err
			}
			a.logger.Info("backup restored", "key", args[0], "path", to)
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination database path (defaults to the configured db_path)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file at the destination")
	return cmd
}
