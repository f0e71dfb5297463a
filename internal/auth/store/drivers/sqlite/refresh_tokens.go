package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

type refreshTokensRepo struct {
	q dbtx
}

func (r *refreshTokensRepo) UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (
			user_id, login_provider, name, token_hash, user_agent,
			expires_at, session_expires_at, issue_count, last_issued_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT (user_id, login_provider, name) DO UPDATE SET
			token_hash         = excluded.token_hash,
			user_agent         = excluded.user_agent,
			expires_at         = excluded.expires_at,
			session_expires_at = excluded.session_expires_at,
			issue_count        = refresh_tokens.issue_count + 1,
			last_issued_at     = excluded.last_issued_at,
			updated_at         = excluded.updated_at`,
		t.UserID, t.LoginProvider, t.Name, t.TokenHash, t.UserAgent,
		toMillis(t.ExpiresAt), toMillis(t.SessionExpiresAt), toMillis(t.LastIssuedAt),
		toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, userID, provider, name string) (domain.RefreshToken, error) {
	var (
		t                                  domain.RefreshToken
		expiresAt, sessionExpiresAt        int64
		lastIssuedAt, createdAt, updatedAt int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT user_id, login_provider, name, token_hash, user_agent,
			expires_at, session_expires_at, issue_count, last_issued_at, created_at, updated_at
		FROM refresh_tokens
		WHERE user_id = ? AND login_provider = ? AND name = ?`,
		userID, provider, name,
	).Scan(
		&t.UserID, &t.LoginProvider, &t.Name, &t.TokenHash, &t.UserAgent,
		&expiresAt, &sessionExpiresAt, &t.IssueCount, &lastIssuedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}

	t.ExpiresAt = fromMillis(expiresAt)
	t.SessionExpiresAt = fromMillis(sessionExpiresAt)
	t.LastIssuedAt = fromMillis(lastIssuedAt)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, userID, provider, name string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = ? AND login_provider = ? AND name = ?`,
		userID, provider, name,
	)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE session_expires_at <= ?`,
		toMillis(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
