package repository

import (
	"context"
	"errors"

	"github.com/workdeckhq/workdeck/internal/db/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// QueryFilter carries column filters for list queries. Keys are column names,
// values are matched with equality. The tenant scoping filter rewrites this
// map before it reaches a repository.
type QueryFilter map[string]any

// Clone returns an independent copy of the filter.
func (f QueryFilter) Clone() QueryFilter {
	out := make(QueryFilter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// PrincipalRepository exposes persistence operations for principals.
//
// Principals are never hard-deleted: Deactivate performs a soft disable and
// subsequent resolutions for the record fail closed.
type PrincipalRepository interface {
	Create(ctx context.Context, principal *models.Principal) error
	GetByID(ctx context.Context, id string) (*models.Principal, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Principal, error)
	GetByEmail(ctx context.Context, email string) (*models.Principal, error)
	Update(ctx context.Context, principal *models.Principal) error
	TouchAuthenticated(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Principal, error)
}

// ResourceRepository exposes the generic resource reads used by the
// ownership check and by tenant-scoped listing.
type ResourceRepository interface {
	// GetOwnership loads the owner/assignee/creator/client references of the
	// resource identified by (resourceType, id). Returns ErrNotFound when the
	// resource does not exist and an error for unknown resource types.
	GetOwnership(ctx context.Context, resourceType, id string) (models.Ownership, error)

	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListTasks(ctx context.Context, filter QueryFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	CreateProject(ctx context.Context, project *models.Project) error
}
