package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workdeckhq/workdeck/internal/db/models"
)

// maxClockSkew is the leeway applied to legacy token expiry checks.
const maxClockSkew = 30 * time.Second

// LegacyClaims is the claim set carried by locally-signed legacy tokens.
type LegacyClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// LegacyVerifier validates legacy session tokens: HS256 signature with a
// stable local secret plus the standard expiry check. No network calls.
type LegacyVerifier struct {
	secret []byte
}

// NewLegacyVerifier constructs a verifier for locally-signed legacy tokens.
func NewLegacyVerifier(secret string) (*LegacyVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("legacy token secret is required")
	}
	return &LegacyVerifier{secret: []byte(secret)}, nil
}

// VerifyToken validates the token and extracts its {sub, email, role} claims.
func (v *LegacyVerifier) VerifyToken(raw string) (*LegacyClaims, error) {
	claims := new(LegacyClaims)
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(maxClockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("parse legacy token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid legacy token")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("legacy token missing sub claim")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("legacy token missing email claim")
	}

	return claims, nil
}

// SignLegacyToken mints a legacy token for the given subject. Used by tests
// and by the bootstrap tooling; the service itself never issues credentials
// to callers.
func SignLegacyToken(secret, subject, email string, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := LegacyClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign legacy token: %w", err)
	}
	return signed, nil
}
