package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/models"
)

// Verifier validates an opaque bearer credential against the configured
// paths and produces normalized claims.
//
// Path A (identity provider) is always attempted first. Under
// PolicyAnyProvider, a provider failure falls through to path B (legacy
// local token). Verification is pure: no persistence, no mutation.
//
// When both paths reject the credential the returned *VerificationError
// reports a uniform "invalid token" to callers; which path failed and why is
// only available through its Detail() method for logging.
type Verifier struct {
	provider ProviderVerifier
	legacy   *LegacyVerifier
	policy   config.VerifyPolicy
}

// NewVerifier assembles the hybrid verifier. legacy may be nil under
// PolicyProviderOnly.
func NewVerifier(provider ProviderVerifier, legacy *LegacyVerifier, policy config.VerifyPolicy) *Verifier {
	if policy == "" {
		policy = config.PolicyAnyProvider
	}
	return &Verifier{provider: provider, legacy: legacy, policy: policy}
}

// Verify validates rawCredential and returns normalized claims.
func (v *Verifier) Verify(ctx context.Context, rawCredential string) (*Claims, error) {
	rawCredential = strings.TrimSpace(rawCredential)
	if rawCredential == "" {
		return nil, ErrCredentialMissing
	}

	identity, providerErr := v.provider.VerifyToken(ctx, rawCredential)
	if providerErr == nil {
		return &Claims{
			SubjectID:     identity.SubjectID,
			Email:         identity.Email,
			DisplayName:   identity.DisplayName,
			PhoneNumber:   identity.PhoneNumber,
			EmailVerified: identity.EmailVerified,
			Provider:      models.ProviderModern,
		}, nil
	}

	if v.policy == config.PolicyProviderOnly || v.legacy == nil {
		return nil, &VerificationError{
			Reason:      classifyFailure(providerErr, nil),
			ProviderErr: providerErr,
		}
	}

	legacyClaims, legacyErr := v.legacy.VerifyToken(rawCredential)
	if legacyErr != nil {
		return nil, &VerificationError{
			Reason:      classifyFailure(providerErr, legacyErr),
			ProviderErr: providerErr,
			LegacyErr:   legacyErr,
		}
	}

	return &Claims{
		Email:       legacyClaims.Email,
		Role:        legacyClaims.Role,
		DisplayName: "",
		Provider:    models.ProviderLegacy,
		// The legacy sub identifies a principal record, not a provider
		// identity; it is intentionally not mapped to SubjectID.
	}, nil
}

// classifyFailure picks the internal reason tag for a double rejection. The
// legacy error is the more precise signal when present, since the legacy
// verifier returns typed jwt errors.
func classifyFailure(providerErr, legacyErr error) FailureReason {
	for _, err := range []error{legacyErr, providerErr} {
		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ReasonExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ReasonMalformed
		}
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "expired") {
			return ReasonExpired
		}
		if strings.Contains(msg, "malformed") || strings.Contains(msg, "token contains an invalid number of segments") {
			return ReasonMalformed
		}
	}
	return ReasonUnknownIssuer
}
