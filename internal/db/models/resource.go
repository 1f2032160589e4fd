package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Resource type descriptors accepted by the ownership check.
const (
	ResourceTypeTask    = "task"
	ResourceTypeProject = "project"
)

// Task is a unit of work. Ownership-based authorization grants access to the
// owner, the assignee, or the creator. ClientID is the tenant-ownership field
// used by tenant scoping.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID         string    `bun:"id,pk,type:uuid"`
	Title      string    `bun:"title,notnull"`
	Status     string    `bun:"status,notnull,default:'OPEN'"`
	OwnerID    *string   `bun:"owner_id,type:uuid"`
	AssigneeID *string   `bun:"assignee_id,type:uuid"`
	CreatedBy  string    `bun:"created_by,notnull,type:uuid"`
	ClientID   *string   `bun:"client_id,type:uuid"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Project groups tasks under a client engagement.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:pr"`

	ID        string    `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	OwnerID   *string   `bun:"owner_id,type:uuid"`
	CreatedBy string    `bun:"created_by,notnull,type:uuid"`
	ClientID  *string   `bun:"client_id,type:uuid"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Ownership is the projection of a resource's ownership references used by
// the permission evaluator. Empty fields mean the reference is absent.
type Ownership struct {
	OwnerID    string
	AssigneeID string
	CreatedBy  string
	ClientID   string
}

// Grants reports whether the given principal id appears in any ownership slot.
func (o Ownership) Grants(principalID string) bool {
	if principalID == "" {
		return false
	}
	return o.OwnerID == principalID ||
		o.AssigneeID == principalID ||
		o.CreatedBy == principalID ||
		o.ClientID == principalID
}

// TaskOwnership extracts the ownership references from a task.
func TaskOwnership(t *Task) Ownership {
	o := Ownership{CreatedBy: t.CreatedBy}
	if t.OwnerID != nil {
		o.OwnerID = *t.OwnerID
	}
	if t.AssigneeID != nil {
		o.AssigneeID = *t.AssigneeID
	}
	if t.ClientID != nil {
		o.ClientID = *t.ClientID
	}
	return o
}

// ProjectOwnership extracts the ownership references from a project.
func ProjectOwnership(p *Project) Ownership {
	o := Ownership{CreatedBy: p.CreatedBy}
	if p.OwnerID != nil {
		o.OwnerID = *p.OwnerID
	}
	if p.ClientID != nil {
		o.ClientID = *p.ClientID
	}
	return o
}
