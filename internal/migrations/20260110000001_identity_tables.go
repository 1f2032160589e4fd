package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/workdeckhq/workdeck/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260110000001, down_20260110000001)
}

// up_20260110000001 creates the principals table and its uniqueness indexes.
//
// The unique indexes on email and external_id are load-bearing: concurrent
// first-time resolution of the same identity is settled by these constraints,
// not by in-process locking. The loser of the race re-reads the winner's row.
func up_20260110000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating principals table...")
	_, err := db.NewCreateTable().
		Model((*models.Principal)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create principals table: %w", err)
	}

	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_principals_email ON principals(email)`)
	if err != nil {
		return fmt.Errorf("failed to create principals email index: %w", err)
	}

	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_principals_external_id ON principals(external_id) WHERE external_id IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("failed to create principals external_id index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

func down_20260110000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping principals table...")
	_, err := db.NewDropTable().
		Model((*models.Principal)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop principals table: %w", err)
	}
	fmt.Println(" OK")
	return nil
}
