package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notesai/notes-backend/internal/config"
	"github.com/notesai/notes-backend/internal/logging"
)

var (
	verbose    bool
	configPath string

	cfg *config.Config
	log *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Administrative tasks for the notes backend",
	Long: `notesctl manages the notes backend database: schema migrations and
user accounts. It reads the same configuration as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}

		if verbose {
			cfg.Log.Level = "debug"
		}
		log = logging.New(cfg.Log)

		if cfg.Database.UseInMemory {
			return fmt.Errorf("notesctl needs a database, unset NOTES_IN_MEMORY")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file")
}
