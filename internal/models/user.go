package models

import (
	"fmt"
	"strings"

	"github.com/julianstephens/sutra/internal/constants"
)

// UserRole is the access level the backend assigns to a principal
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// ParseUserRole parses a role name case-insensitively.
func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleUser, RoleGuest:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role: %s", s)
	}
}

// CanUseApp reports whether the role may read and write habits.
func (r UserRole) CanUseApp() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserProfile holds the caller's display settings
type UserProfile struct {
	DisplayName string `json:"display_name"`
}

// Identity is a signed-in principal supplied by the identity provider
type Identity struct {
	Principal string `json:"principal"`
}

// Anonymous returns the identity used while signed out.
func Anonymous() Identity {
	return Identity{Principal: constants.AnonymousPrincipal}
}

// IsAnonymous reports whether id is the signed-out identity.
func (id Identity) IsAnonymous() bool {
	return id.Principal == "" || id.Principal == constants.AnonymousPrincipal
}
