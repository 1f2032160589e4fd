package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workdeckhq/workdeck/internal/authz"
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/repository"
)

type taskResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	OwnerID    *string   `json:"ownerId,omitempty"`
	AssigneeID *string   `json:"assigneeId,omitempty"`
	CreatedBy  string    `json:"createdBy"`
	ClientID   *string   `json:"clientId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:         t.ID,
		Title:      t.Title,
		Status:     t.Status,
		OwnerID:    t.OwnerID,
		AssigneeID: t.AssigneeID,
		CreatedBy:  t.CreatedBy,
		ClientID:   t.ClientID,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   *string   `json:"ownerId,omitempty"`
	CreatedBy string    `json:"createdBy"`
	ClientID  *string   `json:"clientId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HandleListTasks lists tasks visible to the caller. Callers may filter by
// status and assignee; tenant principals additionally have the tenant filter
// forced onto the query, overriding anything they supplied.
func HandleListTasks(resources repository.ResourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authz.PrincipalFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "PRINCIPAL_UNAVAILABLE")
			return
		}

		filter := repository.QueryFilter{}
		if status := r.URL.Query().Get("status"); status != "" {
			filter["status"] = status
		}
		if assignee := r.URL.Query().Get("assignee_id"); assignee != "" {
			filter["assignee_id"] = assignee
		}
		if client := r.URL.Query().Get("client_id"); client != "" {
			filter["client_id"] = client
		}
		filter = authz.ScopeFilter(filter, principal)

		tasks, err := resources.ListTasks(r.Context(), filter)
		if err != nil {
			log.Printf("server: list tasks failed: %v", err)
			respondError(w, http.StatusInternalServerError, "INTERNAL")
			return
		}
		out := make([]taskResponse, 0, len(tasks))
		for i := range tasks {
			out = append(out, toTaskResponse(&tasks[i]))
		}
		respondJSON(w, http.StatusOK, map[string]any{"tasks": out})
	}
}

// HandleGetTask returns one task. The route guard has already performed the
// ownership check, so a missing record here is a plain 404.
func HandleGetTask(resources repository.ResourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		task, err := resources.GetTask(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusNotFound, "NOT_FOUND")
				return
			}
			log.Printf("server: get task %s failed: %v", id, err)
			respondError(w, http.StatusInternalServerError, "INTERNAL")
			return
		}
		respondJSON(w, http.StatusOK, toTaskResponse(task))
	}
}

// HandleGetProject returns one project after the guard's ownership check.
func HandleGetProject(resources repository.ResourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		project, err := resources.GetProject(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusNotFound, "NOT_FOUND")
				return
			}
			log.Printf("server: get project %s failed: %v", id, err)
			respondError(w, http.StatusInternalServerError, "INTERNAL")
			return
		}
		respondJSON(w, http.StatusOK, projectResponse{
			ID:        project.ID,
			Name:      project.Name,
			OwnerID:   project.OwnerID,
			CreatedBy: project.CreatedBy,
			ClientID:  project.ClientID,
			CreatedAt: project.CreatedAt,
			UpdatedAt: project.UpdatedAt,
		})
	}
}
