package jwtx

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
)

// SigningKeyRecord is a signing key as persisted. Kept here so jwtx does
// not depend on the domain package.
type SigningKeyRecord struct {
	ID              string
	Kid             string
	Algorithm       string
	SecretEncrypted []byte
	CreatedAt       time.Time
	RetiredAt       *time.Time
	ExpiresAt       time.Time
}

// KeyStore is the persistence the persistent key manager needs.
type KeyStore interface {
	// ListAllSigningKeys returns every non-expired key, retired or not.
	ListAllSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// ListActiveSigningKeys returns keys that have not been retired.
	ListActiveSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// CreateSigningKey stores a new key with encrypted secret material.
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// PersistentKeyManagerOptions configures a KeyManager backed by a KeyStore.
type PersistentKeyManagerOptions struct {
	Store KeyStore

	// GracePeriod is how long retired keys keep verifying. Defaults to
	// 24 hours, comfortably longer than any access token lives.
	GracePeriod time.Duration
}

// NewPersistentKeyManager loads keys from the store, so tokens survive
// restarts and rotation keeps older tokens verifiable during the grace
// period. A fresh key is generated and stored when none is active.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("jwtx: Store is required for persistent key manager")
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 24 * time.Hour
	}

	all, err := opts.Store.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load keys: %w", err)
	}

	active, err := opts.Store.ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load active keys: %w", err)
	}

	km := &KeyManager{KeySet: NewKeySet()}

	activeKids := make(map[string]bool, len(active))
	for _, rec := range active {
		activeKids[rec.Kid] = true
	}

	// Retired keys only verify; active ones are added oldest first so the
	// newest ends up signing.
	for _, rec := range all {
		signer, err := SignerFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if activeKids[rec.Kid] {
			continue
		}
		if err := km.KeySet.AddSigner(signer); err != nil {
			return nil, err
		}
	}
	for _, rec := range active {
		signer, err := SignerFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}

	if km.NumSigners() == 0 {
		signer, err := GenerateStoredSigner(ctx, opts.Store, opts.GracePeriod, time.Now())
		if err != nil {
			return nil, err
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}

	return km, nil
}

// SignerFromRecord decrypts a stored key into a signer.
func SignerFromRecord(rec SigningKeyRecord) (*HS256Signer, error) {
	if rec.Algorithm != AlgorithmHS256 {
		return nil, fmt.Errorf("jwtx: key %s has unsupported algorithm %q", rec.Kid, rec.Algorithm)
	}

	secret, err := cryptox.DecryptKeyMaterial(rec.SecretEncrypted)
	if err != nil {
		return nil, fmt.Errorf("jwtx: decrypt key %s: %w", rec.Kid, err)
	}

	return NewSignerHS256(rec.Kid, secret)
}

// GenerateStoredSigner creates a random secret, persists it encrypted and
// returns the signer for it.
func GenerateStoredSigner(ctx context.Context, store KeyStore, grace time.Duration, now time.Time) (*HS256Signer, error) {
	kid, err := generateRandomKeyID()
	if err != nil {
		return nil, err
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate secret: %w", err)
	}

	sealed, err := cryptox.EncryptKeyMaterial([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("jwtx: encrypt secret: %w", err)
	}

	rec := SigningKeyRecord{
		ID:              idx.NewAt(now).String(),
		Kid:             kid,
		Algorithm:       AlgorithmHS256,
		SecretEncrypted: sealed,
		CreatedAt:       now,
		ExpiresAt:       now.Add(grace), // pushed out again when retired
	}
	if err := store.CreateSigningKey(ctx, rec); err != nil {
		return nil, fmt.Errorf("jwtx: store key: %w", err)
	}

	return NewSignerHS256(kid, []byte(secret))
}
