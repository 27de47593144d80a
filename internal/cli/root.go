// Package cli provides the command-line interface for vitacoach.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhartinger/vitacoach-go/internal/config"
	"github.com/jhartinger/vitacoach-go/internal/db"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	owner   string

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
)

// serverCommands talk to a running server instead of the database.
var serverCommands = map[string]bool{
	"chat":  true,
	"stats": true,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vitacoach",
	Short: "Conversational wellness coaching",
	Long: `Vitacoach is the conversational pipeline of a wellness-coaching backend.

Chat with the coach over a running vitacoach-server, and administer the
stored conversations and long-term memories directly against the database.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Server-backed and informational commands need no DB connection.
		if cmd.Name() == "version" || cmd.Name() == "help" || serverCommands[commandRoot(cmd)] {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// commandRoot walks up to the top-level subcommand name.
func commandRoot(cmd *cobra.Command) string {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd.Name()
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&owner, "owner", "u", defaultOwner(), "owner reference")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(memoriesCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statsCmd)
}

func defaultOwner() string {
	if o := os.Getenv("VITACOACH_OWNER"); o != "" {
		return o
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
