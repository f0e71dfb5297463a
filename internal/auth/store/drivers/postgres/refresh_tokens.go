package postgres

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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9, $10)
		ON CONFLICT (user_id, login_provider, name) DO UPDATE SET
			token_hash         = EXCLUDED.token_hash,
			user_agent         = EXCLUDED.user_agent,
			expires_at         = EXCLUDED.expires_at,
			session_expires_at = EXCLUDED.session_expires_at,
			issue_count        = refresh_tokens.issue_count + 1,
			last_issued_at     = EXCLUDED.last_issued_at,
			updated_at         = EXCLUDED.updated_at`,
		t.UserID, t.LoginProvider, t.Name, t.TokenHash, t.UserAgent,
		t.ExpiresAt, t.SessionExpiresAt, t.LastIssuedAt, t.CreatedAt, t.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, userID, provider, name string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.q.QueryRowContext(ctx, `
		SELECT user_id, login_provider, name, token_hash, user_agent,
			expires_at, session_expires_at, issue_count, last_issued_at, created_at, updated_at
		FROM refresh_tokens
		WHERE user_id = $1 AND login_provider = $2 AND name = $3`,
		userID, provider, name,
	).Scan(
		&t.UserID, &t.LoginProvider, &t.Name, &t.TokenHash, &t.UserAgent,
		&t.ExpiresAt, &t.SessionExpiresAt, &t.IssueCount, &t.LastIssuedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, userID, provider, name string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND login_provider = $2 AND name = $3`,
		userID, provider, name,
	)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE session_expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
