package identity

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by credential verification and identity resolution.
var (
	// ErrCredentialMissing is returned when no bearer credential was supplied.
	ErrCredentialMissing = errors.New("credential missing")

	// ErrPrincipalInactive is returned when the resolved principal has been
	// deactivated. Resolution fails closed and never mutates the record.
	ErrPrincipalInactive = errors.New("principal is inactive")

	// ErrExternalIDConflict is returned when claims would re-link an email to
	// a different provider identity. External ids are immutable once set.
	ErrExternalIDConflict = errors.New("principal already linked to a different external identity")

	// ErrUpstreamUnavailable is returned when the verification call or the
	// record store itself failed. Callers map it to a generic denial rather
	// than a 5xx so infrastructure state never leaks to unauthenticated
	// clients.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// FailureReason tags why credential verification failed. Reasons are logged
// server-side only; the caller-visible message is always the same.
type FailureReason string

const (
	ReasonExpired       FailureReason = "EXPIRED"
	ReasonMalformed     FailureReason = "MALFORMED"
	ReasonUnknownIssuer FailureReason = "UNKNOWN_ISSUER"
)

// VerificationError reports that both verification paths rejected the
// credential. Error() returns a uniform message that never reveals which
// path was attempted; Detail() carries the per-path errors for the log.
type VerificationError struct {
	Reason      FailureReason
	ProviderErr error
	LegacyErr   error
}

func (e *VerificationError) Error() string {
	return "invalid token"
}

// Detail returns the internal failure description for server-side logging.
func (e *VerificationError) Detail() string {
	switch {
	case e.ProviderErr != nil && e.LegacyErr != nil:
		return fmt.Sprintf("reason=%s provider=%v legacy=%v", e.Reason, e.ProviderErr, e.LegacyErr)
	case e.ProviderErr != nil:
		return fmt.Sprintf("reason=%s provider=%v", e.Reason, e.ProviderErr)
	case e.LegacyErr != nil:
		return fmt.Sprintf("reason=%s legacy=%v", e.Reason, e.LegacyErr)
	default:
		return fmt.Sprintf("reason=%s", e.Reason)
	}
}
