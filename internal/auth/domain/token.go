package domain

import "time"

// A refresh token row is keyed by (user, login provider, name). There is a
// single row per user, so issuing a new token replaces the previous one.
const (
	SessionLoginProvider = "Session"
	RefreshTokenName     = "RefreshToken"
)

// RefreshToken is the stored half of a session. The raw token is never
// stored, only its fingerprint.
type RefreshToken struct {
	UserID        string
	LoginProvider string
	Name          string
	TokenHash     string // base64url SHA-256 fingerprint

	// UserAgent recorded at login; renewal must present the same value.
	UserAgent string

	// ExpiresAt is when the refresh token becomes due for renewal.
	ExpiresAt time.Time

	// SessionExpiresAt is the expiry of the paired access token. Renewal
	// is refused from this instant on.
	SessionExpiresAt time.Time

	IssueCount   int64
	LastIssuedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenBundle is what a login or renewal hands back to the client.
type TokenBundle struct {
	UserID           string
	Email            string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
