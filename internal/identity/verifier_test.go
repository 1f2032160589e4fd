package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/models"
)

const testLegacySecret = "test-secret-at-least-sorta-long"

// fakeProviderVerifier for testing
type fakeProviderVerifier struct {
	identity *ProviderIdentity
	err      error
}

func (f *fakeProviderVerifier) VerifyToken(ctx context.Context, token string) (*ProviderIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func rejectingProvider(msg string) *fakeProviderVerifier {
	return &fakeProviderVerifier{err: fmt.Errorf("%s", msg)}
}

func newTestVerifier(t *testing.T, provider ProviderVerifier, policy config.VerifyPolicy) *Verifier {
	t.Helper()
	legacy, err := NewLegacyVerifier(testLegacySecret)
	require.NoError(t, err)
	return NewVerifier(provider, legacy, policy)
}

func signTestToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := SignLegacyToken(secret, "principal-1", "user@example.com", models.RoleManager, ttl)
	require.NoError(t, err)
	return token
}

func TestVerifyMissingCredential(t *testing.T) {
	v := newTestVerifier(t, rejectingProvider("no token"), config.PolicyAnyProvider)

	for _, raw := range []string{"", "   "} {
		_, err := v.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrCredentialMissing)
	}
}

func TestVerifyProviderPath(t *testing.T) {
	provider := &fakeProviderVerifier{identity: &ProviderIdentity{
		SubjectID:     "auth0|abc123",
		Email:         "user@example.com",
		DisplayName:   "Jane Doe",
		EmailVerified: true,
	}}
	v := newTestVerifier(t, provider, config.PolicyAnyProvider)

	claims, err := v.Verify(context.Background(), "opaque-provider-token")
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc123", claims.SubjectID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, models.ProviderModern, claims.Provider)
	assert.True(t, claims.EmailVerified)
	assert.Empty(t, claims.Role)
}

func TestVerifyLegacyFallback(t *testing.T) {
	v := newTestVerifier(t, rejectingProvider("token is unverifiable"), config.PolicyAnyProvider)

	token := signTestToken(t, testLegacySecret, time.Hour)
	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, models.ProviderLegacy, claims.Provider)
	// The legacy sub identifies a record, not a provider identity.
	assert.Empty(t, claims.SubjectID)
}

func TestVerifyProviderOnlyPolicySkipsLegacy(t *testing.T) {
	provider := rejectingProvider("token is unverifiable")
	legacy, err := NewLegacyVerifier(testLegacySecret)
	require.NoError(t, err)
	v := NewVerifier(provider, legacy, config.PolicyProviderOnly)

	// A perfectly valid legacy token is still rejected.
	token := signTestToken(t, testLegacySecret, time.Hour)
	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)

	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, verr.LegacyErr)
}

func TestVerifyUniformFailureMessage(t *testing.T) {
	v := newTestVerifier(t, rejectingProvider("issuer mismatch"), config.PolicyAnyProvider)

	tests := []struct {
		name       string
		credential string
		reason     FailureReason
	}{
		{"expired legacy token", signTestToken(t, testLegacySecret, -time.Hour), ReasonExpired},
		{"garbage credential", "not-a-jwt", ReasonMalformed},
		{"wrong signing secret", func() string {
			token, err := SignLegacyToken("other-secret", "principal-1", "user@example.com", models.RoleManager, time.Hour)
			require.NoError(t, err)
			return token
		}(), ReasonUnknownIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.credential)
			require.Error(t, err)

			var verr *VerificationError
			require.ErrorAs(t, err, &verr)
			// Callers always see the same opaque message.
			assert.Equal(t, "invalid token", verr.Error())
			assert.Equal(t, tt.reason, verr.Reason)
			// The internal detail names the paths that failed.
			assert.Contains(t, verr.Detail(), string(tt.reason))
		})
	}
}

func TestVerifyExpiryLeeway(t *testing.T) {
	v := newTestVerifier(t, rejectingProvider("no"), config.PolicyAnyProvider)

	// Expired, but within the clock-skew leeway.
	token := signTestToken(t, testLegacySecret, -10*time.Second)
	_, err := v.Verify(context.Background(), token)
	assert.NoError(t, err)
}

func TestLegacyVerifierRequiresClaims(t *testing.T) {
	legacy, err := NewLegacyVerifier(testLegacySecret)
	require.NoError(t, err)

	t.Run("missing email rejected", func(t *testing.T) {
		token, err := SignLegacyToken(testLegacySecret, "principal-1", "", models.RoleManager, time.Hour)
		require.NoError(t, err)
		_, err = legacy.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("missing sub rejected", func(t *testing.T) {
		token, err := SignLegacyToken(testLegacySecret, "", "user@example.com", models.RoleManager, time.Hour)
		require.NoError(t, err)
		_, err = legacy.VerifyToken(token)
		assert.Error(t, err)
	})
}

func TestNewLegacyVerifierRequiresSecret(t *testing.T) {
	_, err := NewLegacyVerifier("")
	assert.Error(t, err)
}

func TestClassifyFailurePrefersTypedErrors(t *testing.T) {
	legacy, err := NewLegacyVerifier(testLegacySecret)
	require.NoError(t, err)

	expired := signTestToken(t, testLegacySecret, -time.Hour)
	_, legacyErr := legacy.VerifyToken(expired)
	require.Error(t, legacyErr)

	reason := classifyFailure(errors.New("provider says no"), legacyErr)
	assert.Equal(t, ReasonExpired, reason)
}
