package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/workdeckhq/workdeck/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260110000002, down_20260110000002)
}

// up_20260110000002 creates the tasks and projects tables consulted by the
// ownership check and by tenant-scoped listing.
func up_20260110000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating tasks table...")
	_, err := db.NewCreateTable().
		Model((*models.Task)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tasks_client_id ON tasks(client_id)`)
	if err != nil {
		return fmt.Errorf("failed to create tasks client_id index: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tasks_assignee_id ON tasks(assignee_id)`)
	if err != nil {
		return fmt.Errorf("failed to create tasks assignee_id index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating projects table...")
	_, err = db.NewCreateTable().
		Model((*models.Project)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create projects table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id)`)
	if err != nil {
		return fmt.Errorf("failed to create projects client_id index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

func down_20260110000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping tasks and projects tables...")
	if _, err := db.NewDropTable().Model((*models.Task)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop tasks table: %w", err)
	}
	if _, err := db.NewDropTable().Model((*models.Project)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop projects table: %w", err)
	}
	fmt.Println(" OK")
	return nil
}
