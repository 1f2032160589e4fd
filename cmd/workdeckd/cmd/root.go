package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/workdeckhq/workdeck/cmd/workdeckd/cmd/principals"
	"github.com/workdeckhq/workdeck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "workdeckd",
	Short: "Workdeck identity and access control service",
	Long: `Workdeck API server with hybrid credential verification.
It accepts identity-provider tokens and legacy session tokens on the same
Authorization header and resolves both to a single principal directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; the environment wins either way.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DEBUG)")

	rootCmd.AddCommand(principals.PrincipalsCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
