package principals

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/repository"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all principals",
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
		records, err := repo.List(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list principals: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tROLE\tTYPE\tPROVIDER\tSTATUS")
		for i := range records {
			p := &records[i]
			status := "active"
			if p.Deactivated() {
				status = "deactivated"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Email, p.Role, p.PrincipalType, p.AuthProvider, status)
		}
		return w.Flush()
	},
}
