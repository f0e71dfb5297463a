package domain

// SeedData describes the identities and roles created on first start.
type SeedData struct {
	AdminEmail       string
	AdminDisplayName string
	AdminPassword    string
	Roles            []string // every role to ensure exists
	AdminRoles       []string // roles assigned to the admin
}
