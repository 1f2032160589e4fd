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

// principalResponse is the wire shape for principal records. The password
// hash and other credential material never leave the server.
type principalResponse struct {
	ID                  string               `json:"id"`
	ExternalID          *string              `json:"externalId,omitempty"`
	Email               string               `json:"email"`
	Name                string               `json:"name"`
	Role                models.Role          `json:"role"`
	Department          *models.Department   `json:"department,omitempty"`
	PrincipalType       models.PrincipalType `json:"principalType"`
	AuthProvider        models.AuthProvider  `json:"authProvider"`
	EmailVerified       bool                 `json:"emailVerified"`
	IsActive            bool                 `json:"isActive"`
	LastAuthenticatedAt *time.Time           `json:"lastAuthenticatedAt,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
}

func toPrincipalResponse(p *models.Principal) principalResponse {
	return principalResponse{
		ID:                  p.ID,
		ExternalID:          p.ExternalID,
		Email:               p.Email,
		Name:                p.DisplayName(),
		Role:                p.Role,
		Department:          p.Department,
		PrincipalType:       p.PrincipalType,
		AuthProvider:        p.AuthProvider,
		EmailVerified:       p.EmailVerified,
		IsActive:            p.IsActive,
		LastAuthenticatedAt: p.LastAuthenticatedAt,
		CreatedAt:           p.CreatedAt,
	}
}

// HandleWhoAmI returns the principal attached to the request context.
func HandleWhoAmI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authz.PrincipalFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "PRINCIPAL_UNAVAILABLE")
			return
		}
		respondJSON(w, http.StatusOK, toPrincipalResponse(principal))
	}
}

// HandleListPrincipals lists all principals. Route-level guarding restricts
// this to administrators.
func HandleListPrincipals(principals repository.PrincipalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := principals.List(r.Context())
		if err != nil {
			log.Printf("server: list principals failed: %v", err)
			respondError(w, http.StatusInternalServerError, "INTERNAL")
			return
		}
		out := make([]principalResponse, 0, len(records))
		for i := range records {
			out = append(out, toPrincipalResponse(&records[i]))
		}
		respondJSON(w, http.StatusOK, map[string]any{"principals": out})
	}
}

// HandleDeactivatePrincipal soft-disables a principal. Deactivated
// principals fail resolution on their next request regardless of
// credential validity.
func HandleDeactivatePrincipal(principals repository.PrincipalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := principals.Deactivate(r.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusNotFound, "NOT_FOUND")
				return
			}
			log.Printf("server: deactivate principal %s failed: %v", id, err)
			respondError(w, http.StatusInternalServerError, "INTERNAL")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "id": id})
	}
}

// HandleReactivatePrincipal re-enables a previously deactivated principal.
func HandleReactivatePrincipal(principals repository.PrincipalRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := principals.Reactivate(r.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusNotFound, "NOT_FOUND")
				return
			}
			log.Printf("server: reactivate principal %s failed: %v", id, err)
			respondError(w, http.StatusInternalServerError, "INTERNAL")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "active", "id": id})
	}
}
