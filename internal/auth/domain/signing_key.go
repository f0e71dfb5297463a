package domain

import "time"

// SigningKey is an HMAC signing secret stored encrypted at rest. Retired
// keys no longer sign but keep verifying until ExpiresAt.
type SigningKey struct {
	ID              string     // ULID
	Kid             string     // value of the JWT "kid" header
	Algorithm       string     // always HS256 today
	SecretEncrypted []byte     // AES-256-GCM sealed secret
	CreatedAt       time.Time  // When the key was created
	RetiredAt       *time.Time // nil while the key is signing
	ExpiresAt       time.Time  // deleted by housekeeping after this once retired
}

// IsActive returns true if the key still signs.
func (k *SigningKey) IsActive() bool {
	return k.RetiredAt == nil
}

// IsExpired returns true if a retired key is past its grace period.
func (k *SigningKey) IsExpired(now time.Time) bool {
	return k.RetiredAt != nil && !now.Before(k.ExpiresAt)
}
