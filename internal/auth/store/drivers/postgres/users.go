package postgres

import (
	"context"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, email, normalized_email, display_name, password_hash, active, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanWithRoles(ctx, row)
}

func (r *usersRepo) GetUserByNormalizedEmail(ctx context.Context, normalizedEmail string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE normalized_email = $1`, normalizedEmail)
	return r.scanWithRoles(ctx, row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, normalized_email, display_name, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.NormalizedEmail, u.DisplayName, u.PasswordHash, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}

func (r *usersRepo) scanWithRoles(ctx context.Context, row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.NormalizedEmail, &u.DisplayName, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	roles, err := (&rolesRepo{q: r.q}).ListUserRoles(ctx, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	u.Roles = roles
	return u, nil
}
