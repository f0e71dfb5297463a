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
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// DefaultSeed is the seed used when nothing else is configured.
func DefaultSeed() domain.SeedData {
	return domain.SeedData{
		AdminEmail:       "admin@example.com",
		AdminDisplayName: "Administrator",
		Roles:            []string{domain.RoleAdmin, domain.RoleAgent},
		AdminRoles:       []string{domain.RoleAdmin, domain.RoleAgent},
	}
}

type SeedService struct {
	Store store.Store
	Now   func() time.Time
}

// EnsureAdmin creates the built-in roles and the admin identity if they are
// missing. Running it again changes nothing. When the seed has no password
// one is generated and returned so the caller can show it once; otherwise
// the returned password is empty.
func (s *SeedService) EnsureAdmin(ctx context.Context, seed domain.SeedData) (string, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	if seed.AdminEmail == "" {
		return "", errors.New("seed: admin email is required")
	}

	var generated string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		roleIDs := make(map[string]string, len(seed.Roles))
		for _, name := range seed.Roles {
			id, err := ensureRole(ctx, tx, name, now)
			if err != nil {
				return err
			}
			roleIDs[domain.NormalizeRoleName(name)] = id
		}

		normalized := domain.NormalizeEmail(seed.AdminEmail)
		admin, err := tx.Users().GetUserByNormalizedEmail(ctx, normalized)
		switch {
		case err == nil:
			// already seeded; still make sure the roles are attached
		case errors.Is(err, store.ErrNotFound):
			password := seed.AdminPassword
			if password == "" {
				if password, err = cryptox.GeneratePassword(); err != nil {
					return fmt.Errorf("seed: generate password: %w", err)
				}
				generated = password
			}

			hash, err := cryptox.HashPassword(password)
			if err != nil {
				return fmt.Errorf("seed: hash password: %w", err)
			}

			admin = domain.User{
				ID:              idx.NewAt(now).String(),
				Email:           seed.AdminEmail,
				NormalizedEmail: normalized,
				DisplayName:     seed.AdminDisplayName,
				PasswordHash:    hash,
				Active:          true,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Users().CreateUser(ctx, admin); err != nil {
				return fmt.Errorf("seed: create admin: %w", err)
			}
			l.Info("seeded admin identity", slog.String("user_id", admin.ID), slog.String("email", admin.Email))
		default:
			return fmt.Errorf("seed: load admin: %w", err)
		}

		for _, name := range seed.AdminRoles {
			roleID, ok := roleIDs[domain.NormalizeRoleName(name)]
			if !ok {
				return fmt.Errorf("seed: admin role %q is not in the role list", name)
			}
			if err := tx.Roles().AssignRole(ctx, admin.ID, roleID); err != nil {
				return fmt.Errorf("seed: assign role %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return generated, nil
}

func ensureRole(ctx context.Context, tx store.Tx, name string, now time.Time) (string, error) {
	normalized := domain.NormalizeRoleName(name)

	role, err := tx.Roles().GetRoleByName(ctx, normalized)
	if err == nil {
		return role.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("seed: load role %s: %w", name, err)
	}

	role = domain.Role{
		ID:             idx.NewAt(now).String(),
		Name:           name,
		NormalizedName: normalized,
		CreatedAt:      now,
	}
	if err := tx.Roles().CreateRole(ctx, role); err != nil {
		return "", fmt.Errorf("seed: create role %s: %w", name, err)
	}
	return role.ID, nil
}
