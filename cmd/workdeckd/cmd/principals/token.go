package principals

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/identity"
	"github.com/workdeckhq/workdeck/internal/repository"
)

var ttlFlag time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a legacy session token for a principal",
	Long: `Signs a legacy HS256 session token for the given principal. Intended for
bootstrap and local development; production callers authenticate via the
identity provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Identity.LegacySecret == "" {
			return fmt.Errorf("LEGACY_TOKEN_SECRET is not configured")
		}

		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		repo := repository.NewBunPrincipalRepository(db)
		principal, err := repo.GetByEmail(context.Background(), emailFlag)
		if err != nil {
			return fmt.Errorf("failed to look up principal: %w", err)
		}
		if !principal.IsActive {
			return fmt.Errorf("principal %s is deactivated", principal.ID)
		}

		ttl := ttlFlag
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}

		token, err := identity.SignLegacyToken(cfg.Identity.LegacySecret,
			principal.ID, principal.Email, principal.Role, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}
