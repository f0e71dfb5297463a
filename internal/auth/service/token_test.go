package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLogin_IssuesValidToken(t *testing.T) {
	f := newFixture(t)
	b := f.login(t)

	claims, err := f.codec.Validate(b.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.admin.ID, claims.Subject)
	require.Equal(t, adminEmail, claims.Email)
	require.Equal(t, adminEmail, claims.UniqueName)
	require.True(t, claims.HasRole(domain.RoleAdmin))
	require.True(t, claims.HasRole(domain.RoleAgent))
	require.Equal(t, f.admin.ID, b.UserID)
	require.Equal(t, adminEmail, b.Email)
}

func TestLogin_ExpiryRelations(t *testing.T) {
	f := newFixture(t)
	b := f.login(t)

	claims, err := f.codec.Decode(b.AccessToken)
	require.NoError(t, err)

	require.Equal(t, b.AccessExpiresAt.Unix(), claims.ExpiresAt.Unix())
	require.Equal(t, f.clock.Now().Add(jwtx.DefaultAccessTokenTTL).Unix(), claims.ExpiresAt.Unix())
	require.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
	require.Equal(t, b.AccessExpiresAt.Add(-jwtx.DefaultRefreshMargin), b.RefreshExpiresAt)
	require.Len(t, b.RefreshToken, 86)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", adminEmail, "nope"},
		{"unknown email", "ghost@example.com", adminPassword},
		{"empty password", adminEmail, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tokens.Login(ctx, tt.email, tt.password, testUserAgent)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_EveryFailureVerifiesAPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("dormant-password")
	require.NoError(t, err)
	now := f.clock.Now()
	require.NoError(t, f.store.Users().CreateUser(ctx, domain.User{
		ID:              idx.NewAt(now).String(),
		Email:           "dormant@example.com",
		NormalizedEmail: domain.NormalizeEmail("dormant@example.com"),
		DisplayName:     "Dormant",
		PasswordHash:    hash,
		Active:          false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))

	var hashes []string
	f.tokens.VerifyPassword = func(password, encodedHash string) error {
		hashes = append(hashes, encodedHash)
		return cryptox.VerifyPassword(password, encodedHash)
	}

	tests := []struct {
		name  string
		email string
	}{
		{"wrong password", adminEmail},
		{"unknown email", "ghost@example.com"},
		{"inactive identity", "dormant@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashes = nil
			_, err := f.tokens.Login(ctx, tt.email, "not-the-password", testUserAgent)
			require.ErrorIs(t, err, ErrInvalidCredentials)
			require.Len(t, hashes, 1)
			require.True(t, strings.HasPrefix(hashes[0], "$argon2id$"), hashes[0])
		})
	}

	decoy, err := decoyHash()
	require.NoError(t, err)

	hashes = nil
	_, err = f.tokens.Login(ctx, "ghost@example.com", adminPassword, testUserAgent)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, []string{decoy}, hashes)
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	b, err := f.tokens.Login(context.Background(), "  ADMIN@Example.COM ", adminPassword, testUserAgent)
	require.NoError(t, err)
	require.Equal(t, f.admin.ID, b.UserID)
}

func TestLogin_TwiceGivesDifferentRefreshTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.login(t)
	second := f.login(t)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Only the latest refresh token is kept.
	_, err := f.tokens.RenewSession(ctx, renewRequest(first))
	require.ErrorIs(t, err, ErrSessionInvalid)

	row, err := f.tokens.Tokens.Get(ctx, f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), row.IssueCount)
}

func TestRenewSession_AfterRefreshExpiryBeforeJWTExpiry(t *testing.T) {
	f := newFixture(t)
	b := f.login(t)

	f.clock.Advance(jwtx.DefaultAccessTokenTTL - jwtx.DefaultRefreshMargin + time.Minute)
	require.True(t, f.clock.Now().After(b.RefreshExpiresAt))
	require.True(t, f.clock.Now().Before(b.AccessExpiresAt))

	renewed, err := f.tokens.RenewSession(context.Background(), renewRequest(b))
	require.NoError(t, err)
	require.True(t, renewed.RefreshExpiresAt.After(b.RefreshExpiresAt))
	require.True(t, renewed.AccessExpiresAt.After(b.AccessExpiresAt))
	require.NotEqual(t, b.RefreshToken, renewed.RefreshToken)

	claims, err := f.codec.Validate(renewed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.admin.ID, claims.Subject)
}

func TestRenewSession_AfterJWTExpiry(t *testing.T) {
	f := newFixture(t)
	b := f.login(t)

	f.clock.Advance(jwtx.DefaultAccessTokenTTL)

	_, err := f.tokens.RenewSession(context.Background(), renewRequest(b))
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestRenewSession_UserAgentMismatch(t *testing.T) {
	f := newFixture(t)
	b := f.login(t)

	tests := []struct {
		name   string
		mutate func(*RenewRequest)
	}{
		{"valid tokens", func(r *RenewRequest) {}},
		{"garbage tokens", func(r *RenewRequest) {
			r.JWT = "not-a-jwt"
			r.RefreshToken = "not-a-refresh-token"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := renewRequest(b)
			req.UserAgent = "other-agent/2.0"
			tt.mutate(&req)

			_, err := f.tokens.RenewSession(context.Background(), req)
			require.ErrorIs(t, err, ErrSessionUserAgentMismatch)
		})
	}
}

func TestRenewSession_GenericFailures(t *testing.T) {
	f := newFixture(t)
	b := f.login(t)

	other, err := f.codec.Issue(testIssuer, []string{testAudience},
		jwtx.NewIdentityClaims("someone-else", "x@example.com", "x@example.com", nil),
		f.clock.Now().Add(time.Minute))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*RenewRequest)
	}{
		{"unknown identity", func(r *RenewRequest) { r.ID = "01HZZZZZZZZZZZZZZZZZZZZZZZ" }},
		{"empty identity", func(r *RenewRequest) { r.ID = "" }},
		{"email mismatch", func(r *RenewRequest) { r.Email = "someone@example.com" }},
		{"wrong refresh token", func(r *RenewRequest) { r.RefreshToken = "tampered" }},
		{"empty refresh token", func(r *RenewRequest) { r.RefreshToken = "" }},
		{"invalid jwt", func(r *RenewRequest) { r.JWT = b.AccessToken + "x" }},
		{"jwt for another subject", func(r *RenewRequest) { r.JWT = other }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := renewRequest(b)
			tt.mutate(&req)

			_, err := f.tokens.RenewSession(context.Background(), req)
			require.ErrorIs(t, err, ErrSessionInvalid)
		})
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.login(t)

	require.NoError(t, f.tokens.Logout(ctx, b.UserID))
	require.NoError(t, f.tokens.Logout(ctx, b.UserID))

	_, err := f.tokens.RenewSession(ctx, renewRequest(b))
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestLogin_RecordsMetrics(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	f.tokens.Metrics = NewMetrics(reg)

	f.login(t)
	_, _ = f.tokens.Login(context.Background(), adminEmail, "wrong", testUserAgent)

	require.Equal(t, 1.0, testutil.ToFloat64(f.tokens.Metrics.logins.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.tokens.Metrics.logins.WithLabelValues("invalid_credentials")))
}
