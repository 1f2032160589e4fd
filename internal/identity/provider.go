package identity

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"

	"github.com/workdeckhq/workdeck/internal/config"
)

// ProviderIdentity is the claim set returned by the identity provider's
// verification call.
type ProviderIdentity struct {
	SubjectID     string
	Email         string
	DisplayName   string
	PhoneNumber   string
	EmailVerified bool
}

// ProviderVerifier validates an identity-provider token and extracts the
// provider's claim set. The cryptographic verification itself is delegated:
// implementations call out to the provider (issuer discovery + JWKS) rather
// than holding key material locally.
type ProviderVerifier interface {
	VerifyToken(ctx context.Context, token string) (*ProviderIdentity, error)
}

// providerClaims mirrors the raw provider claim names.
type providerClaims struct {
	Sub           string `mapstructure:"sub"`
	Email         string `mapstructure:"email"`
	Name          string `mapstructure:"name"`
	PhoneNumber   string `mapstructure:"phone_number"`
	EmailVerified bool   `mapstructure:"email_verified"`
}

// OIDCProviderVerifier validates provider tokens as a resource server using
// go-oidc-middleware's token handler (issuer discovery, JWKS fetch and
// rotation, signature and expiry checks).
type OIDCProviderVerifier struct {
	tokenHandler *oidctoken.TokenHandler[map[string]any]
}

// NewOIDCProviderVerifier constructs a verifier for the configured provider.
func NewOIDCProviderVerifier(cfg config.IdentityConfig) (*OIDCProviderVerifier, error) {
	if cfg.ProviderIssuer == "" {
		return nil, fmt.Errorf("provider issuer is required")
	}
	if cfg.ProviderAudience == "" {
		return nil, fmt.Errorf("provider audience is required")
	}

	tokenHandler, err := oidctoken.New[map[string]any](nil,
		options.WithIssuer(cfg.ProviderIssuer),
		options.WithRequiredAudience(cfg.ProviderAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize oidc token handler: %w", err)
	}

	return &OIDCProviderVerifier{tokenHandler: tokenHandler}, nil
}

// VerifyToken validates the token against the provider's JWKS and extracts
// the normalized provider identity.
func (v *OIDCProviderVerifier) VerifyToken(ctx context.Context, token string) (*ProviderIdentity, error) {
	raw, err := v.tokenHandler.ParseToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("parse provider token: %w", err)
	}

	claims, err := decodeProviderClaims(raw)
	if err != nil {
		return nil, err
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("provider token missing sub claim")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("provider token missing email claim")
	}

	return &ProviderIdentity{
		SubjectID:     claims.Sub,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		PhoneNumber:   claims.PhoneNumber,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// decodeProviderClaims maps the raw claim map into the typed claim struct.
// WeaklyTypedInput tolerates providers that encode email_verified as a
// string ("true") instead of a JSON boolean.
func decodeProviderClaims(raw map[string]any) (*providerClaims, error) {
	var claims providerClaims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &claims,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build claims decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode provider claims: %w", err)
	}
	return &claims, nil
}
