package principals

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/repository"
)

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <principal-id>",
	Short: "Deactivate a principal",
	Long:  `Soft-disables a principal. Its credentials stop resolving on the next request; no records are deleted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		repo := repository.NewBunPrincipalRepository(db)
		if err := repo.Deactivate(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to deactivate principal: %w", err)
		}

		fmt.Printf("Deactivated principal %s\n", args[0])
		return nil
	},
}
