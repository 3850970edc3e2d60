// Package root contains the root command for the application
package root

import (
	"github.com/leviipope/finance-dashboard/internal/auth"
	"github.com/leviipope/finance-dashboard/internal/config"
	"github.com/leviipope/finance-dashboard/internal/service"
	"github.com/leviipope/finance-dashboard/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Username string
	Password string
	Input    string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded application configuration, set by PersistentPreRun
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "findash",
		Short: "A CLI tool to ingest bank statements, categorize transactions and keep your ledger encrypted at rest.",
		Long: `findash ingests Revolut-style bank statement CSV exports, normalizes and
categorizes the transactions, and merges them into a per-user ledger stored
encrypted at rest.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to findash!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize and configure logging
			config.LoadEnv()
			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to load configuration: %v", err)
			}
			Cfg = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)

			// Set the configured logger for all internal packages
			service.SetLogger(Log)
			auth.SetLogger(Log)
			storage.SetLogger(Log)
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Username, "user", "u", "", "Username (omit for a guest session)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Password, "password", "p", "", "Password for the account")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
}
