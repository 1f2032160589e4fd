package identity

import (
	"strings"

	"github.com/workdeckhq/workdeck/internal/db/models"
)

// Claims is the normalized set of facts extracted from a verified credential.
// Both verification paths produce the same shape; Provider records which path
// produced it.
type Claims struct {
	// SubjectID is the identity provider's stable subject. Empty for legacy
	// tokens, whose sub claim identifies a principal record, not a provider
	// identity.
	SubjectID string

	// Email is the credential's email claim. Always present: it is the
	// migration/linking key between the two identity spaces.
	Email string

	// DisplayName is the optional display name claim.
	DisplayName string

	// PhoneNumber is the optional phone claim (provider tokens only).
	PhoneNumber string

	// EmailVerified reports whether the provider confirmed the email.
	EmailVerified bool

	// Role is the role claim carried by legacy tokens. Empty for provider
	// tokens; provider identities get the configured default on creation.
	Role models.Role

	// Provider is the verification path that produced these claims.
	Provider models.AuthProvider
}

// SplitDisplayName derives first and last name from a display name: the
// first token becomes the first name, the remaining tokens joined become the
// last name. An empty display name yields the placeholder first name.
func SplitDisplayName(displayName string) (firstName, lastName string) {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return defaultFirstName, ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// defaultFirstName is the placeholder used when a credential carries no
// usable display name.
const defaultFirstName = "User"
