package domain

import (
	"strings"
	"time"
)

// User is an identity that can log in with email and password.
type User struct {
	ID              string
	Email           string
	NormalizedEmail string // upper-cased, unique
	DisplayName     string
	PasswordHash    string // argon2id PHC string
	Active          bool
	Roles           []string // role names, loaded alongside the user
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeEmail is the case-insensitive lookup key for an email.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}
