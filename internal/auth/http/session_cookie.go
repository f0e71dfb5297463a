package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie holding the signed session record.
const SessionCookieName = "__session"

// sessionRecord is what the cookie carries. It is signed with the access
// token keys and expires together with the jwt.
type sessionRecord struct {
	jwt.RegisteredClaims

	UserID             string `json:"id"`
	Email              string `json:"email"`
	JWT                string `json:"jwt"`
	RefreshToken       string `json:"refresh_token"`
	RefreshTokenExpiry int64  `json:"refresh_token_expiry"`
	UserAgent          string `json:"user_agent"`
}

// SessionCookies reads and writes the session cookie.
type SessionCookies struct {
	Codec *jwtx.Codec

	// Secure sets the Secure attribute. Off only for local development.
	Secure bool
}

// Set writes a cookie for bundle.
func (c *SessionCookies) Set(w http.ResponseWriter, b domain.TokenBundle, userAgent string) error {
	rec := sessionRecord{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(b.AccessExpiresAt),
		},
		UserID:             b.UserID,
		Email:              b.Email,
		JWT:                b.AccessToken,
		RefreshToken:       b.RefreshToken,
		RefreshTokenExpiry: b.RefreshExpiresAt.Unix(),
		UserAgent:          userAgent,
	}

	value, err := c.Codec.SignValue(rec)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  b.AccessExpiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the verified record from the request cookie. A missing,
// tampered or expired cookie reads as absent.
func (c *SessionCookies) Read(r *http.Request) (sessionRecord, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return sessionRecord{}, false
	}

	var rec sessionRecord
	if err := c.Codec.VerifyValue(cookie.Value, &rec); err != nil {
		return sessionRecord{}, false
	}
	return rec, true
}

// Clear expires the cookie.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
