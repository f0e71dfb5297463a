package authsdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string            `json:"error" example:"invalid_request"`
	ErrorDescription string            `json:"error_description" example:"email is required"`
	Details          map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Session Types
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password" example:"password"`
}

// SessionResponse is returned by login and renewal. Expiries are unix
// seconds.
type SessionResponse struct {
	// JWT is the signed access token.
	JWT       string `json:"jwt"`
	JWTExpiry int64  `json:"jwt_expiry" example:"1767225600"`

	Email string `json:"email" example:"admin@example.com"`
	ID    string `json:"id" example:"01JB8Z1Q2W3E4R5T6Y7U8I9O0P"`

	// RefreshToken is opaque and only valid together with JWT. It expires a
	// few minutes before the access token does.
	RefreshToken       string `json:"refresh_token"`
	RefreshTokenExpiry int64  `json:"refresh_token_expiry" example:"1767225300"`
}

// JWTExpiresAt returns JWTExpiry as a time.
func (s SessionResponse) JWTExpiresAt() time.Time {
	return time.Unix(s.JWTExpiry, 0)
}

// RefreshExpiresAt returns RefreshTokenExpiry as a time.
func (s SessionResponse) RefreshExpiresAt() time.Time {
	return time.Unix(s.RefreshTokenExpiry, 0)
}

// RenewSessionRequest is the body of POST /auth/renew-session. Keys are
// matched case-insensitively, so PascalCase bodies decode too.
type RenewSessionRequest struct {
	Email              string `json:"email"`
	JWT                string `json:"jwt"`
	RefreshToken       string `json:"refreshToken"`
	RefreshTokenExpiry int64  `json:"refreshTokenExpiry"`
	ID                 string `json:"id"`
}

// RenewRequestFor builds the renewal body for a session.
func RenewRequestFor(s SessionResponse) RenewSessionRequest {
	return RenewSessionRequest{
		Email:              s.Email,
		JWT:                s.JWT,
		RefreshToken:       s.RefreshToken,
		RefreshTokenExpiry: s.RefreshTokenExpiry,
		ID:                 s.ID,
	}
}

// LogoutResponse is returned by POST /auth/logout.
type LogoutResponse struct {
	Message string `json:"message" example:"Logout successful"`
}

// MeResponse describes the caller of GET /auth/me.
type MeResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username" example:"admin@example.com"`
	Email    string   `json:"email" example:"admin@example.com"`
	Roles    []string `json:"roles" example:"Admin,Agent"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	// Status is "ok" when healthy, "unavailable" otherwise.
	Status string `json:"status"`

	// Uptime is how long the service has been running (livez only).
	Uptime string `json:"uptime,omitempty"`

	Version string `json:"version,omitempty"`

	// Checks holds the individual results (readyz only).
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds the readiness checks.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// ============================================================================
// Key Management Types
// ============================================================================

// RotateKeyRequest is the body of POST /v1/keys/rotate.
type RotateKeyRequest struct {
	// RetireExisting retires all currently active keys after generating the
	// new one. Retired keys keep verifying for the grace period.
	RetireExisting bool `json:"retire_existing"`
}

// SigningKeyInfo describes a signing key. Secrets are never exposed.
type SigningKeyInfo struct {
	ID        string  `json:"id,omitempty"`
	Kid       string  `json:"kid"`
	Algorithm string  `json:"algorithm" example:"HS256"`
	CreatedAt string  `json:"created_at,omitempty"` // RFC3339
	RetiredAt *string `json:"retired_at,omitempty"` // RFC3339, nil while active
	ExpiresAt string  `json:"expires_at,omitempty"` // RFC3339
}

// RotateKeyResponse is returned by POST /v1/keys/rotate.
type RotateKeyResponse struct {
	NewKey      SigningKeyInfo   `json:"new_key"`
	RetiredKeys []SigningKeyInfo `json:"retired_keys,omitempty"`
	ActiveKeys  int              `json:"active_keys"`
}
