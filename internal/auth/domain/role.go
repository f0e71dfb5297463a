package domain

import (
	"strings"
	"time"
)

// Built-in roles created by the seeder.
const (
	RoleAdmin = "Admin"
	RoleAgent = "Agent"
)

type Role struct {
	ID             string
	Name           string
	NormalizedName string
	CreatedAt      time.Time
}

// NormalizeRoleName is the case-insensitive lookup key for a role.
func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
