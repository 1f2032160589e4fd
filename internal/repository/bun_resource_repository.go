package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/db/models"
)

// BunResourceRepository implements ResourceRepository using Bun ORM
type BunResourceRepository struct {
	db *bun.DB
}

// NewBunResourceRepository creates a new Bun-based resource repository
func NewBunResourceRepository(db *bun.DB) *BunResourceRepository {
	return &BunResourceRepository{db: db}
}

// GetOwnership loads ownership references for the given resource. Only the
// columns the permission evaluator needs are populated.
func (r *BunResourceRepository) GetOwnership(ctx context.Context, resourceType, id string) (models.Ownership, error) {
	switch resourceType {
	case models.ResourceTypeTask:
		task, err := r.GetTask(ctx, id)
		if err != nil {
			return models.Ownership{}, err
		}
		return models.TaskOwnership(task), nil
	case models.ResourceTypeProject:
		project, err := r.GetProject(ctx, id)
		if err != nil {
			return models.Ownership{}, err
		}
		return models.ProjectOwnership(project), nil
	default:
		return models.Ownership{}, fmt.Errorf("unknown resource type: %s", resourceType)
	}
}

// GetTask retrieves a task by id
func (r *BunResourceRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task := new(models.Task)
	err := r.db.NewSelect().
		Model(task).
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetProject retrieves a project by id
func (r *BunResourceRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project := new(models.Project)
	err := r.db.NewSelect().
		Model(project).
		Where("pr.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListTasks retrieves tasks matching the filter, newest first. Filter keys
// are column names matched with equality; the caller is expected to have
// passed the filter through tenant scoping already.
func (r *BunResourceRepository) ListTasks(ctx context.Context, filter QueryFilter) ([]models.Task, error) {
	var tasks []models.Task
	q := r.db.NewSelect().
		Model(&tasks).
		Order("created_at DESC")
	for column, value := range filter {
		q = q.Where("? = ?", bun.Ident(column), value)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a new task
func (r *BunResourceRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = bunx.NewUUIDv7()
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = "OPEN"
	}

	_, err := r.db.NewInsert().
		Model(task).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateProject inserts a new project
func (r *BunResourceRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = bunx.NewUUIDv7()
	}
	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(project).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}
