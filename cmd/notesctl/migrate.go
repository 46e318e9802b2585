package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notesai/notes-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return err
		}
		log.Info("migrations applied")
		return printVersion()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.RollbackMigration(cfg.Database); err != nil {
			return err
		}
		log.Info("migration rolled back")
		return printVersion()
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion()
	},
}

func printVersion() error {
	version, dirty, err := database.MigrationVersion(cfg.Database)
	if err != nil {
		return err
	}

	if dirty {
		fmt.Printf("schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Printf("schema version %d\n", version)
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
