package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are reached through methods so a Tx can
// hand out the same repos bound to the transaction, and nobody can open a
// transaction inside a transaction by accident.
type Store interface {
	Users() Users
	Roles() Roles
	RefreshTokens() RefreshTokens
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Prefer this over Tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id, roles included.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByNormalizedEmail is the login lookup, roles included.
	GetUserByNormalizedEmail(ctx context.Context, normalizedEmail string) (domain.User, error)

	// CreateUser inserts a new user. Roles on the struct are ignored; use
	// Roles().AssignRole. Returns ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByName fetches a role by its normalized name.
	GetRoleByName(ctx context.Context, normalizedName string) (domain.Role, error)

	// ListAll returns all roles ordered by name.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role. Returns ErrAlreadyExists on a duplicate name.
	CreateRole(ctx context.Context, r domain.Role) error

	// AssignRole links a user to a role; assigning twice is a no-op.
	AssignRole(ctx context.Context, userID, roleID string) error

	// ListUserRoles returns the role names of a user ordered by name.
	ListUserRoles(ctx context.Context, userID string) ([]string, error)
}

type RefreshTokens interface {
	// UpsertRefreshToken writes the single row for (user, provider, name),
	// overwriting any previous token and bumping the issue counter.
	// Returns ErrNotFound if the user does not exist.
	UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshToken returns the row for (user, provider, name).
	GetRefreshToken(ctx context.Context, userID, provider, name string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes the row. Missing rows are not an error.
	DeleteRefreshToken(ctx context.Context, userID, provider, name string) error

	// DeleteExpiredRefreshTokens removes rows whose session ended before
	// now and reports how many went.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted secret material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// GetSigningKeyByKid fetches a signing key by its key identifier.
	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListActiveSigningKeys returns non-retired keys, oldest first.
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns active keys and retired keys still inside
	// their grace period, oldest first.
	ListAllSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error)

	// RetireSigningKey sets retired_at and pushes expires_at to the end of
	// the grace period.
	RetireSigningKey(ctx context.Context, kid string, retiredAt, expiresAt time.Time) error

	// DeleteExpiredSigningKeys removes retired keys past expires_at and
	// returns their kids.
	DeleteExpiredSigningKeys(ctx context.Context, now time.Time) ([]string, error)
}
