package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the smallest HMAC secret accepted, matching the SHA-256
// block output.
const MinSecretSize = 32

// Header typ values. Access tokens carry AccessType; anything else signed
// with the same keys carries its own type so one cannot stand in for the
// other.
const (
	AccessType = "JWT"
	ValueType  = "session+jwt"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(jwt.Claims) (string, error)
	SignTyped(claims jwt.Claims, typ string) (string, error)
	Validate() error
}

// HS256Signer signs tokens with a shared HMAC-SHA256 secret.
type HS256Signer struct {
	kid    string
	secret []byte
}

// NewSignerHS256 creates an HS256 signer. The secret is copied.
func NewSignerHS256(kid string, secret []byte) (*HS256Signer, error) {
	s := &HS256Signer{kid: kid, secret: append([]byte(nil), secret...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign takes your claims and turns them into a signed JWT string with the
// kid header set so verifiers can pick the right secret.
func (s *HS256Signer) Sign(claims jwt.Claims) (string, error) {
	return s.SignTyped(claims, AccessType)
}

// SignTyped is Sign with an explicit typ header.
func (s *HS256Signer) SignTyped(claims jwt.Claims, typ string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	t.Header["typ"] = typ
	return t.SignedString(s.secret)
}

// Validate makes sure we actually have a usable key.
func (s *HS256Signer) Validate() error {
	if s.kid == "" {
		return errors.New("jwtx: empty kid")
	}
	if len(s.secret) < MinSecretSize {
		return fmt.Errorf("jwtx: secret for kid %q must be at least %d bytes", s.kid, MinSecretSize)
	}
	return nil
}
