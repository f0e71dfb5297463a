package jwtx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
)

// AlgorithmHS256 is the only signing algorithm issued and accepted.
const AlgorithmHS256 = "HS256"

var (
	ErrLastSigner     = errors.New("jwtx: cannot retire the last signing key")
	ErrSignerNotFound = errors.New("jwtx: signer not found")
)

// Key is a versioned HMAC secret as loaded from configuration.
type Key struct {
	ID     string `mapstructure:"kid" json:"kid"`
	Secret string `mapstructure:"secret" json:"secret"`
}

// KeyManager manages the JWT signing and verification secrets for an
// instance. Every key in the KeySet can verify; only active signers sign,
// and the most recently added active signer is the one used.
type KeyManager struct {
	KeySet *KeySet

	signers []*HS256Signer
	mu      sync.RWMutex
}

// NewKeyManager builds a KeyManager from configured keys. active names the
// signing kid; when empty the last key in the list signs.
func NewKeyManager(keys []Key, active string) (*KeyManager, error) {
	km := &KeyManager{KeySet: NewKeySet()}
	if err := km.Replace(keys, active); err != nil {
		return nil, err
	}
	return km, nil
}

// NewEphemeralKeyManager creates a KeyManager with a single random secret
// that only lives in memory, so every token dies with the process.
func NewEphemeralKeyManager() (*KeyManager, error) {
	kid, err := generateRandomKeyID()
	if err != nil {
		return nil, err
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate secret: %w", err)
	}

	return NewKeyManager([]Key{{ID: kid, Secret: secret}}, kid)
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return AlgorithmHS256
}

// IsReady returns true if the KeyManager can both sign and verify.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady() && km.NumSigners() > 0
}

// GetSigner returns the newest active signer, or nil if none are loaded.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if len(km.signers) == 0 {
		return nil
	}
	return km.signers[len(km.signers)-1]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner adds a signing key. It becomes the signing key and is also
// registered for verification. Safe to call at runtime for rotation.
func (km *KeyManager) AddSigner(signer *HS256Signer) error {
	if signer == nil {
		return errors.New("jwtx: signer cannot be nil")
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("jwtx: add signer to keyset: %w", err)
	}

	km.signers = append(km.signers, signer)
	return nil
}

// RetireSignerByKid removes a signing key from active signing operations.
// The key remains in the KeySet for token verification (grace period).
// Returns an error if the key is not found or if it's the last active key.
func (km *KeyManager) RetireSignerByKid(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	found := false
	kept := make([]*HS256Signer, 0, len(km.signers))
	for _, s := range km.signers {
		if s.KID() == kid {
			found = true
			continue
		}
		kept = append(kept, s)
	}

	if !found {
		return fmt.Errorf("%w: kid %q", ErrSignerNotFound, kid)
	}
	if len(kept) == 0 {
		return ErrLastSigner
	}

	km.signers = kept
	return nil
}

// ForgetKey drops a retired key from verification once its grace period
// is over. Active signers cannot be forgotten.
func (km *KeyManager) ForgetKey(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	for _, s := range km.signers {
		if s.KID() == kid {
			return fmt.Errorf("jwtx: kid %q is still signing", kid)
		}
	}
	km.KeySet.Remove(kid)
	return nil
}

// GetSigners returns a copy of all active signing keys.
func (km *KeyManager) GetSigners() []Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	signers := make([]Signer, len(km.signers))
	for i, s := range km.signers {
		signers[i] = s
	}
	return signers
}

// Replace swaps the full key material in one step. All keys verify and
// only active signs. Used on startup and when the key file changes.
func (km *KeyManager) Replace(keys []Key, active string) error {
	if len(keys) == 0 {
		return errors.New("jwtx: at least one key is required")
	}
	if active == "" {
		active = keys[len(keys)-1].ID
	}

	secrets := make(map[string][]byte, len(keys))
	var signer *HS256Signer
	for _, k := range keys {
		if _, dup := secrets[k.ID]; dup {
			return fmt.Errorf("jwtx: duplicate kid %q", k.ID)
		}
		s, err := NewSignerHS256(k.ID, []byte(k.Secret))
		if err != nil {
			return err
		}
		secrets[k.ID] = s.secret
		if k.ID == active {
			signer = s
		}
	}
	if signer == nil {
		return fmt.Errorf("jwtx: active kid %q not among keys", active)
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	km.KeySet.reset(secrets)
	km.signers = []*HS256Signer{signer}
	return nil
}

// generateRandomKeyID creates a random key identifier using cryptographic entropy.
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: generate key id: %w", err)
	}
	return "gk-" + token, nil
}
