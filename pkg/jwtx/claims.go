package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes for the session token pair.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultRefreshMargin is how long before the access token dies the
	// refresh token becomes due for renewal.
	DefaultRefreshMargin = 5 * time.Minute
)

// Claims are access-token claims. The registered claims carry iss, sub,
// aud, exp, nbf, iat and jti; the rest describe the identity.
type Claims struct {
	jwt.RegisteredClaims

	// UniqueName is the login name of the identity (its email).
	UniqueName string `json:"unique_name,omitempty"`

	// Email of the identity.
	Email string `json:"email,omitempty"`

	// Roles holds one entry per assigned role. ClaimStrings accepts both a
	// bare string and an array on decode.
	Roles jwt.ClaimStrings `json:"role,omitempty"`
}

// NewIdentityClaims builds the identity part of an access token. The
// registered time claims are filled in by Codec.Issue.
func NewIdentityClaims(subject, uniqueName, email string, roles []string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
		UniqueName: uniqueName,
		Email:      email,
		Roles:      jwt.ClaimStrings(roles),
	}
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateTimes checks exp, nbf and iat against now in that order. A token
// is expired at the exact exp instant. Leeway widens every window by the
// same amount to absorb clock skew.
func (c *Claims) ValidateTimes(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing exp", ErrMalformed)
	}

	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	if c.IssuedAt != nil && now.Before(c.IssuedAt.Add(-leeway)) {
		return ErrIssuedInFuture
	}

	return nil
}
