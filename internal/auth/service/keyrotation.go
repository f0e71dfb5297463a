package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

var (
	ErrKeyNotFound       = errors.New("key_not_found")
	ErrLastKey           = errors.New("last_signing_key")
	ErrKeyRotationStatic = errors.New("key rotation is not available for configured keys")
)

// KeyRotationService rotates and retires HS256 signing keys at runtime.
//
// With a Store (persistent mode) new secrets are stored encrypted and
// retirement is recorded so restarts keep the grace period. Without one
// (ephemeral mode) everything lives in the KeyManager until restart.
// Static and file keys are owned by their configuration and cannot be
// rotated through the API; set Disabled for those.
type KeyRotationService struct {
	Store       store.Store // nil for ephemeral mode
	KeyManager  *jwtx.KeyManager
	GracePeriod time.Duration
	Disabled    bool
	Now         func() time.Time
}

// RotateKeyRequest represents a request to rotate signing keys.
type RotateKeyRequest struct {
	// RetireExisting retires every currently active key once the new one
	// is in place.
	RetireExisting bool
}

// RotateKeyResponse represents the result of a key rotation operation.
type RotateKeyResponse struct {
	NewKey      domain.SigningKey
	RetiredKeys []domain.SigningKey
	ActiveKeys  int
}

// RotateKey generates a new signing key that signs from now on.
func (s *KeyRotationService) RotateKey(ctx context.Context, req RotateKeyRequest) (*RotateKeyResponse, error) {
	if s.Disabled {
		return nil, ErrKeyRotationStatic
	}

	now := s.now()
	grace := s.gracePeriod()
	l := slogx.FromContext(ctx)

	var (
		signer  *jwtx.HS256Signer
		newKey  domain.SigningKey
		retired []domain.SigningKey
	)

	if s.Store != nil {
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			var err error
			signer, err = jwtx.GenerateStoredSigner(ctx, store.NewKeyStoreAdapter(tx), grace, now)
			if err != nil {
				return err
			}

			newKey, err = tx.SigningKeys().GetSigningKeyByKid(ctx, signer.KID())
			if err != nil {
				return fmt.Errorf("reload new key: %w", err)
			}

			if !req.RetireExisting {
				return nil
			}

			active, err := tx.SigningKeys().ListActiveSigningKeys(ctx)
			if err != nil {
				return fmt.Errorf("list active keys: %w", err)
			}
			for _, key := range active {
				if key.Kid == newKey.Kid {
					continue
				}
				if err := tx.SigningKeys().RetireSigningKey(ctx, key.Kid, now, now.Add(grace)); err != nil {
					return fmt.Errorf("retire key %s: %w", key.Kid, err)
				}
				key.RetiredAt = &now
				key.ExpiresAt = now.Add(grace)
				retired = append(retired, key)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
		if err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("generate key id: %w", err)
		}
		signer, err = jwtx.NewSignerHS256("gk-"+kid, []byte(secret))
		if err != nil {
			return nil, err
		}

		newKey = domain.SigningKey{
			Kid:       signer.KID(),
			Algorithm: jwtx.AlgorithmHS256,
			CreatedAt: now,
			ExpiresAt: now.Add(grace),
		}

		if req.RetireExisting {
			for _, cur := range s.KeyManager.GetSigners() {
				retired = append(retired, domain.SigningKey{
					Kid:       cur.KID(),
					Algorithm: jwtx.AlgorithmHS256,
					RetiredAt: &now,
					ExpiresAt: now.Add(grace),
				})
			}
		}
	}

	if err := s.KeyManager.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("add signer: %w", err)
	}
	for _, key := range retired {
		if err := s.KeyManager.RetireSignerByKid(key.Kid); err != nil {
			l.Warn("retired key was not signing", slog.String("kid", key.Kid), slog.Any("error", err))
		}
	}

	l.Info("signing key rotated",
		slog.String("kid", newKey.Kid),
		slog.Int("retired", len(retired)),
	)

	return &RotateKeyResponse{
		NewKey:      newKey,
		RetiredKeys: retired,
		ActiveKeys:  s.KeyManager.NumSigners(),
	}, nil
}

// ListSigningKeys returns the keys that can still verify. In ephemeral
// mode only the signing keys are known.
func (s *KeyRotationService) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	if s.Store != nil {
		return s.Store.SigningKeys().ListAllSigningKeys(ctx, s.now())
	}

	signers := s.KeyManager.GetSigners()
	keys := make([]domain.SigningKey, len(signers))
	for i, signer := range signers {
		keys[i] = domain.SigningKey{
			Kid:       signer.KID(),
			Algorithm: signer.Alg(),
		}
	}
	return keys, nil
}

// RetireKey stops a key from signing. It keeps verifying for the grace
// period. The last active key cannot be retired.
func (s *KeyRotationService) RetireKey(ctx context.Context, kid string) error {
	if s.Disabled {
		return ErrKeyRotationStatic
	}

	if s.Store == nil {
		return mapRetireErr(s.KeyManager.RetireSignerByKid(kid))
	}

	now := s.now()
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SigningKeys().RetireSigningKey(ctx, kid, now, now.Add(s.gracePeriod())); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		// Retiring in memory last means a refusal here (last key) rolls
		// the database back too.
		return mapRetireErr(s.KeyManager.RetireSignerByKid(kid))
	})
}

func mapRetireErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwtx.ErrLastSigner):
		return ErrLastKey
	case errors.Is(err, jwtx.ErrSignerNotFound):
		return ErrKeyNotFound
	}
	return err
}

// ForgetExpired drops retired keys past their grace period from both the
// database and the KeyManager.
func (s *KeyRotationService) ForgetExpired(ctx context.Context) (int, error) {
	if s.Store == nil {
		return 0, nil
	}

	kids, err := s.Store.SigningKeys().DeleteExpiredSigningKeys(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, kid := range kids {
		if err := s.KeyManager.ForgetKey(kid); err != nil {
			slogx.FromContext(ctx).Warn("expired key still signing", slog.String("kid", kid), slog.Any("error", err))
		}
	}
	return len(kids), nil
}

func (s *KeyRotationService) gracePeriod() time.Duration {
	if s.GracePeriod <= 0 {
		return 24 * time.Hour
	}
	return s.GracePeriod
}

func (s *KeyRotationService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
