package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
)

var ErrIdentityNotFound = errors.New("identity_not_found")

// SessionBinding is what a refresh token is tied to besides its identity.
type SessionBinding struct {
	UserAgent string
	// SessionExpiresAt is the expiry of the access token issued alongside.
	SessionExpiresAt time.Time
}

// TokenStoreService keeps the single refresh token of each identity. Only
// fingerprints are persisted.
type TokenStoreService struct {
	Store store.Store
	Now   func() time.Time
}

// Set stores token as the refresh token of identityID, replacing any
// previous one.
func (s *TokenStoreService) Set(ctx context.Context, identityID, token string, expiry time.Time, binding SessionBinding) error {
	if token == "" {
		return errors.New("refresh token is empty")
	}

	if _, err := s.Store.Users().GetUserByID(ctx, identityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("load identity: %w", err)
	}

	now := s.now()
	err := s.Store.RefreshTokens().UpsertRefreshToken(ctx, domain.RefreshToken{
		UserID:           identityID,
		LoginProvider:    domain.SessionLoginProvider,
		Name:             domain.RefreshTokenName,
		TokenHash:        cryptox.FingerprintToken(token),
		UserAgent:        binding.UserAgent,
		ExpiresAt:        expiry,
		SessionExpiresAt: binding.SessionExpiresAt,
		LastIssuedAt:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if errors.Is(err, store.ErrNotFound) {
		// identity deleted between the lookup and the write
		return ErrIdentityNotFound
	}
	return err
}

// Get returns the stored row for identityID.
func (s *TokenStoreService) Get(ctx context.Context, identityID string) (domain.RefreshToken, error) {
	return s.Store.RefreshTokens().GetRefreshToken(ctx, identityID, domain.SessionLoginProvider, domain.RefreshTokenName)
}

// Delete revokes the refresh token of identityID.
func (s *TokenStoreService) Delete(ctx context.Context, identityID string) error {
	return s.Store.RefreshTokens().DeleteRefreshToken(ctx, identityID, domain.SessionLoginProvider, domain.RefreshTokenName)
}

// Matches compares a presented token against the stored fingerprint in
// constant time.
func Matches(stored domain.RefreshToken, presented string) bool {
	if presented == "" {
		return false
	}
	return cryptox.MatchFingerprint(stored.TokenHash, presented)
}

func (s *TokenStoreService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
