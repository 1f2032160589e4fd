package principals

import (
	"bufio"
	"context"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/workdeckhq/workdeck/internal/authz"
	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/identity"
	"github.com/workdeckhq/workdeck/internal/repository"
)

var (
	emailFlag      string
	nameFlag       string
	roleFlag       string
	departmentFlag string
	tenantFlag     bool
	passwordFlag   string
	stdinFlag      bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new principal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if nameFlag == "" {
			return fmt.Errorf("--name flag is required")
		}
		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}

		role := models.Role(strings.ToUpper(roleFlag))
		if !authz.ValidRole(role) {
			return fmt.Errorf("unknown role %q", roleFlag)
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		first, last := identity.SplitDisplayName(nameFlag)
		principal := &models.Principal{
			Email:         strings.ToLower(emailFlag),
			FirstName:     first,
			LastName:      last,
			Role:          role,
			PrincipalType: models.PrincipalInternal,
			AuthProvider:  models.ProviderModern,
			IsActive:      true,
		}
		if tenantFlag {
			principal.PrincipalType = models.PrincipalTenant
		}
		if departmentFlag != "" {
			dept := models.Department(strings.ToUpper(departmentFlag))
			principal.Department = &dept
		}
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			hashed := string(hash)
			principal.PasswordHash = &hashed
			principal.AuthProvider = models.ProviderLegacy
		}

		repo := repository.NewBunPrincipalRepository(db)
		if err := repo.Create(context.Background(), principal); err != nil {
			return fmt.Errorf("failed to create principal: %w", err)
		}

		fmt.Printf("Created principal %s (%s, role=%s)\n", principal.ID, principal.Email, principal.Role)
		return nil
	},
}
