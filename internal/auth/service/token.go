package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials       = errors.New("invalid_credentials")
	ErrSessionInvalid           = errors.New("session_invalid")
	ErrSessionUserAgentMismatch = errors.New("session_user_agent_mismatch")
	ErrServerError              = errors.New("server_error")
)

// decoyHash is checked against when there is no usable identity, so every
// failed login costs one argon2id verification.
var decoyHash = sync.OnceValues(func() (string, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	return cryptox.HashPassword(secret)
})

// TokenService issues and renews session token pairs.
type TokenService struct {
	Store  store.Store
	Codec  *jwtx.Codec
	Tokens *TokenStoreService

	Issuer   string
	Audience []string

	// AccessTTL is the access token lifetime. RefreshMargin is how long
	// before the access token expires the refresh token does.
	AccessTTL     time.Duration
	RefreshMargin time.Duration

	Metrics *Metrics

	// VerifyPassword defaults to cryptox.VerifyPassword.
	VerifyPassword func(password, encodedHash string) error
}

// RenewRequest is what a client presents to extend its session.
type RenewRequest struct {
	ID                 string
	Email              string
	JWT                string
	RefreshToken       string
	RefreshTokenExpiry time.Time
	UserAgent          string
}

// Login checks an email/password pair and issues a fresh token pair bound
// to userAgent. Any earlier refresh token of the identity is replaced.
func (s *TokenService) Login(ctx context.Context, email, password, userAgent string) (domain.TokenBundle, error) {
	bundle, err := s.login(ctx, email, password, userAgent)
	s.Metrics.login(resultLabel(err))
	return bundle, err
}

func (s *TokenService) login(ctx context.Context, email, password, userAgent string) (domain.TokenBundle, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByNormalizedEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login for unknown email")
			s.decoyVerify(ctx, password)
			return domain.TokenBundle{}, ErrInvalidCredentials
		}
		return domain.TokenBundle{}, fmt.Errorf("%w: load identity: %w", ErrServerError, err)
	}
	if !u.Active {
		l.Info("login for inactive identity", slog.String("user_id", u.ID))
		s.decoyVerify(ctx, password)
		return domain.TokenBundle{}, ErrInvalidCredentials
	}

	if err := s.verifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login password mismatch", slog.String("user_id", u.ID))
			return domain.TokenBundle{}, ErrInvalidCredentials
		}
		return domain.TokenBundle{}, fmt.Errorf("%w: verify password: %w", ErrServerError, err)
	}

	return s.issue(ctx, u, userAgent)
}

func (s *TokenService) verifyPassword(password, encodedHash string) error {
	if s.VerifyPassword != nil {
		return s.VerifyPassword(password, encodedHash)
	}
	return cryptox.VerifyPassword(password, encodedHash)
}

// decoyVerify runs a verification whose result is thrown away. Without it
// an unknown email answers faster than a wrong password.
func (s *TokenService) decoyVerify(ctx context.Context, password string) {
	hash, err := decoyHash()
	if err != nil {
		slogx.FromContext(ctx).Warn("decoy password hash unavailable", slog.Any("error", err))
		return
	}
	_ = s.verifyPassword(password, hash)
}

// RenewSession swaps a still-live session for a new token pair. Checks run
// in a fixed order: identity, stored row, user agent, refresh token,
// session expiry, then the access token itself. Everything except a user
// agent mismatch is reported as ErrSessionInvalid.
func (s *TokenService) RenewSession(ctx context.Context, req RenewRequest) (domain.TokenBundle, error) {
	bundle, err := s.renew(ctx, req)
	s.Metrics.renewal(resultLabel(err))
	return bundle, err
}

func (s *TokenService) renew(ctx context.Context, req RenewRequest) (domain.TokenBundle, error) {
	l := slogx.FromContext(ctx).With(slog.String("user_id", req.ID))

	if req.ID == "" {
		return domain.TokenBundle{}, ErrSessionInvalid
	}

	u, err := s.Store.Users().GetUserByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("renewal for unknown identity")
			return domain.TokenBundle{}, ErrSessionInvalid
		}
		return domain.TokenBundle{}, fmt.Errorf("%w: load identity: %w", ErrServerError, err)
	}
	if !u.Active || u.NormalizedEmail != domain.NormalizeEmail(req.Email) {
		l.Info("renewal identity mismatch")
		return domain.TokenBundle{}, ErrSessionInvalid
	}

	stored, err := s.Tokens.Get(ctx, u.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("renewal without stored refresh token")
			return domain.TokenBundle{}, ErrSessionInvalid
		}
		return domain.TokenBundle{}, fmt.Errorf("%w: load refresh token: %w", ErrServerError, err)
	}

	if stored.UserAgent != req.UserAgent {
		l.Warn("renewal from a different user agent")
		return domain.TokenBundle{}, ErrSessionUserAgentMismatch
	}

	if !Matches(stored, req.RefreshToken) {
		l.Warn("renewal with wrong refresh token")
		return domain.TokenBundle{}, ErrSessionInvalid
	}

	now := s.Codec.Now()
	if !now.Before(stored.SessionExpiresAt) {
		l.Info("renewal after session end", slog.Time("session_expires_at", stored.SessionExpiresAt))
		return domain.TokenBundle{}, ErrSessionInvalid
	}

	claims, err := s.Codec.Validate(req.JWT)
	if err != nil {
		l.Info("renewal with invalid access token", slog.Any("error", err))
		return domain.TokenBundle{}, ErrSessionInvalid
	}
	if claims.Subject != u.ID {
		l.Warn("renewal access token subject mismatch")
		return domain.TokenBundle{}, ErrSessionInvalid
	}

	return s.issue(ctx, u, req.UserAgent)
}

// Logout revokes the refresh token of an identity.
func (s *TokenService) Logout(ctx context.Context, identityID string) error {
	if identityID == "" {
		return nil
	}
	if err := s.Tokens.Delete(ctx, identityID); err != nil {
		return fmt.Errorf("%w: delete refresh token: %w", ErrServerError, err)
	}
	slogx.FromContext(ctx).Info("session ended", slog.String("user_id", identityID))
	return nil
}

// issue signs an access token for u, mints a refresh token that expires
// RefreshMargin before it, and stores the refresh token.
func (s *TokenService) issue(ctx context.Context, u domain.User, userAgent string) (domain.TokenBundle, error) {
	now := s.Codec.Now()

	// exp is carried in whole seconds, so derive the refresh expiry from
	// the value the token will actually hold.
	accessExp := now.Add(s.AccessTTL).Truncate(jwt.TimePrecision)
	refreshExp := accessExp.Add(-s.RefreshMargin)

	claims := jwtx.NewIdentityClaims(u.ID, u.Email, u.Email, u.Roles)
	accessToken, err := s.Codec.Issue(s.Issuer, s.Audience, claims, accessExp)
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("%w: sign access token: %w", ErrServerError, err)
	}

	refreshToken, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("%w: generate refresh token: %w", ErrServerError, err)
	}

	err = s.Tokens.Set(ctx, u.ID, refreshToken, refreshExp, SessionBinding{
		UserAgent:        userAgent,
		SessionExpiresAt: accessExp,
	})
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("%w: store refresh token: %w", ErrServerError, err)
	}

	slogx.FromContext(ctx).Info("session issued",
		slog.String("user_id", u.ID),
		slog.Time("expires_at", accessExp),
	)

	return domain.TokenBundle{
		UserID:           u.ID,
		Email:            u.Email,
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}
