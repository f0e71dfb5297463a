package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := domain.User{
		ID:              idx.New().String(),
		Email:           email,
		NormalizedEmail: domain.NormalizeEmail(email),
		DisplayName:     email,
		PasswordHash:    "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := createUser(t, s, "Alice@Example.com")

	got, err := s.Users().GetUserByNormalizedEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "Alice@Example.com", got.Email)
	require.True(t, got.Active)
	require.Equal(t, u.CreatedAt, got.CreatedAt)
	require.Empty(t, got.Roles)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "admin@example.com")

	for _, name := range []string{domain.RoleAgent, domain.RoleAdmin} {
		require.NoError(t, s.Roles().CreateRole(ctx, domain.Role{
			ID:             idx.New().String(),
			Name:           name,
			NormalizedName: domain.NormalizeRoleName(name),
			CreatedAt:      time.Now(),
		}))
	}

	err := s.Roles().CreateRole(ctx, domain.Role{
		ID:             idx.New().String(),
		Name:           "admin",
		NormalizedName: "ADMIN",
		CreatedAt:      time.Now(),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	all, err := s.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, domain.RoleAdmin, all[0].Name)

	admin, err := s.Roles().GetRoleByName(ctx, "ADMIN")
	require.NoError(t, err)
	agent, err := s.Roles().GetRoleByName(ctx, "AGENT")
	require.NoError(t, err)

	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, agent.ID))
	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, admin.ID))
	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, admin.ID))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleAdmin, domain.RoleAgent}, got.Roles)

	_, err = s.Roles().GetRoleByName(ctx, "NOPE")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "bob@example.com")

	now := time.Now().UTC().Truncate(time.Millisecond)
	row := domain.RefreshToken{
		UserID:           u.ID,
		LoginProvider:    domain.SessionLoginProvider,
		Name:             domain.RefreshTokenName,
		TokenHash:        "first",
		UserAgent:        "agent/1",
		ExpiresAt:        now.Add(25 * time.Minute),
		SessionExpiresAt: now.Add(30 * time.Minute),
		LastIssuedAt:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, s.RefreshTokens().UpsertRefreshToken(ctx, row))

	got, err := s.RefreshTokens().GetRefreshToken(ctx, u.ID, domain.SessionLoginProvider, domain.RefreshTokenName)
	require.NoError(t, err)
	require.Equal(t, "first", got.TokenHash)
	require.Equal(t, int64(1), got.IssueCount)
	require.Equal(t, row.SessionExpiresAt, got.SessionExpiresAt)

	row.TokenHash = "second"
	row.LastIssuedAt = now.Add(time.Minute)
	require.NoError(t, s.RefreshTokens().UpsertRefreshToken(ctx, row))

	got, err = s.RefreshTokens().GetRefreshToken(ctx, u.ID, domain.SessionLoginProvider, domain.RefreshTokenName)
	require.NoError(t, err)
	require.Equal(t, "second", got.TokenHash)
	require.Equal(t, int64(2), got.IssueCount)
	require.Equal(t, now, got.CreatedAt)

	orphan := row
	orphan.UserID = "nobody"
	require.ErrorIs(t, s.RefreshTokens().UpsertRefreshToken(ctx, orphan), store.ErrNotFound)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.RefreshTokens().GetRefreshToken(ctx, u.ID, domain.SessionLoginProvider, domain.RefreshTokenName)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.RefreshTokens().DeleteRefreshToken(ctx, u.ID, domain.SessionLoginProvider, domain.RefreshTokenName))
}

func TestSigningKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i, kid := range []string{"gk-old", "gk-new"} {
		require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
			ID:              idx.NewAt(now.Add(time.Duration(i) * time.Second)).String(),
			Kid:             kid,
			Algorithm:       "HS256",
			SecretEncrypted: []byte("sealed-" + kid),
			CreatedAt:       now.Add(time.Duration(i) * time.Second),
			ExpiresAt:       now.Add(24 * time.Hour),
		}))
	}

	active, err := s.SigningKeys().ListActiveSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "gk-old", active[0].Kid)

	require.NoError(t, s.SigningKeys().RetireSigningKey(ctx, "gk-old", now, now.Add(time.Hour)))
	require.ErrorIs(t, s.SigningKeys().RetireSigningKey(ctx, "gk-old", now, now.Add(time.Hour)), store.ErrNotFound)

	old, err := s.SigningKeys().GetSigningKeyByKid(ctx, "gk-old")
	require.NoError(t, err)
	require.False(t, old.IsActive())
	require.Equal(t, []byte("sealed-gk-old"), old.SecretEncrypted)

	active, err = s.SigningKeys().ListActiveSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := s.SigningKeys().ListAllSigningKeys(ctx, now)
	require.NoError(t, err)
	require.Len(t, all, 2)

	all, err = s.SigningKeys().ListAllSigningKeys(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 1)

	kids, err := s.SigningKeys().DeleteExpiredSigningKeys(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []string{"gk-old"}, kids)

	_, err = s.SigningKeys().GetSigningKeyByKid(ctx, "gk-old")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		createUser(t, tx, "carol@example.com")
		return boom
	})
	require.ErrorIs(t, err, boom)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		createUser(t, tx, "carol@example.com")
		return nil
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByNormalizedEmail(ctx, "CAROL@EXAMPLE.COM")
	require.NoError(t, err)
}
