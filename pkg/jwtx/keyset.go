package jwtx

import (
	"errors"
	"slices"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds every verification secret by kid, including keys that were
// retired from signing but are still inside their grace period.
type KeySet struct {
	mu      sync.RWMutex
	secrets map[string][]byte
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		secrets: make(map[string][]byte),
	}
}

// AddSigner registers a signer's secret into the KeySet.
func (k *KeySet) AddSigner(s *HS256Signer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	k.Add(s.kid, s.secret)
	return nil
}

// Add stores a secret under kid, replacing any previous value.
func (k *KeySet) Add(kid string, secret []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.secrets[kid] = append([]byte(nil), secret...)
}

// Remove drops a kid. Tokens signed with it stop verifying.
func (k *KeySet) Remove(kid string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.secrets, kid)
}

// Get returns the secret for the given kid.
func (k *KeySet) Get(kid string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if s, ok := k.secrets[kid]; ok {
		return s, nil
	}
	return nil, ErrNoKey
}

// KIDs returns the known key ids in sorted order.
func (k *KeySet) KIDs() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	kids := make([]string, 0, len(k.secrets))
	for kid := range k.secrets {
		kids = append(kids, kid)
	}
	slices.Sort(kids)
	return kids
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.secrets) > 0
}

// reset swaps the whole map in one step, used on hot reload.
func (k *KeySet) reset(secrets map[string][]byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.secrets = secrets
}
