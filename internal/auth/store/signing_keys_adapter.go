package store

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
)

// KeyStoreAdapter exposes the SigningKeys repo as a jwtx.KeyStore so jwtx
// never imports the domain package.
type KeyStoreAdapter struct {
	store Store
	now   func() time.Time
}

// NewKeyStoreAdapter creates a new adapter that implements jwtx.KeyStore using a store.Store.
func NewKeyStoreAdapter(store Store) *KeyStoreAdapter {
	return &KeyStoreAdapter{store: store, now: time.Now}
}

func (a *KeyStoreAdapter) ListAllSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListAllSigningKeys(ctx, a.now())
	if err != nil {
		return nil, err
	}
	return toRecords(keys), nil
}

func (a *KeyStoreAdapter) ListActiveSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	return toRecords(keys), nil
}

func (a *KeyStoreAdapter) CreateSigningKey(ctx context.Context, rec jwtx.SigningKeyRecord) error {
	return a.store.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
		ID:              rec.ID,
		Kid:             rec.Kid,
		Algorithm:       rec.Algorithm,
		SecretEncrypted: rec.SecretEncrypted,
		CreatedAt:       rec.CreatedAt,
		RetiredAt:       rec.RetiredAt,
		ExpiresAt:       rec.ExpiresAt,
	})
}

// ToRecord converts a stored key for jwtx.
func ToRecord(k domain.SigningKey) jwtx.SigningKeyRecord {
	return jwtx.SigningKeyRecord{
		ID:              k.ID,
		Kid:             k.Kid,
		Algorithm:       k.Algorithm,
		SecretEncrypted: k.SecretEncrypted,
		CreatedAt:       k.CreatedAt,
		RetiredAt:       k.RetiredAt,
		ExpiresAt:       k.ExpiresAt,
	}
}

func toRecords(keys []domain.SigningKey) []jwtx.SigningKeyRecord {
	out := make([]jwtx.SigningKeyRecord, len(keys))
	for i, k := range keys {
		out[i] = ToRecord(k)
	}
	return out
}
