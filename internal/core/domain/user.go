package domain

import (
	"strings"
	"time"
)

// SessionUser models the authenticated dashboard user. It is replaced
// wholesale on login and hydrate, never partially mutated.
type SessionUser struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	OrganizationID string    `json:"organization_id"`
	Roles          []string  `json:"roles"`
	Permissions    []string  `json:"permissions"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullName joins first and last name, tolerating either being empty.
func (u *SessionUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the user carries the given role.
func (u *SessionUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user carries the given permission.
func (u *SessionUser) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the user carries at least one of the
// given permissions. An empty list yields false.
func (u *SessionUser) HasAnyPermission(perms ...string) bool {
	for _, p := range perms {
		if u.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user carries every one of the
// given permissions. An empty list yields true.
func (u *SessionUser) HasAllPermissions(perms ...string) bool {
	for _, p := range perms {
		if !u.HasPermission(p) {
			return false
		}
	}
	return true
}

// Organization is the tenant the session is scoped to.
type Organization struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// Credentials is the durable session record: the token pair plus the
// identity and tenant claims persisted alongside it.
type Credentials struct {
	Tokens TokenPair    `json:"tokens"`
	User   *SessionUser `json:"user,omitempty"`
	Org    Organization `json:"org"`
}
