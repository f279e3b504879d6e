package handler

import "time"

type organizationRequest struct {
	ID   string `json:"id"   validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type sessionUserRequest struct {
	ID             string    `json:"id"              validate:"required"`
	Email          string    `json:"email"           validate:"required,email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	OrganizationID string    `json:"organization_id"`
	Roles          []string  `json:"roles"`
	Permissions    []string  `json:"permissions"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// loginRequest carries the credentials minted by the identity service
// after the upstream login form succeeded. The edge only persists them;
// it never sees a password.
type loginRequest struct {
	AccessToken  string               `json:"access_token"  validate:"required"`
	RefreshToken string               `json:"refresh_token" validate:"required"`
	ExpiresAt    time.Time            `json:"expires_at"    validate:"required"`
	User         *sessionUserRequest  `json:"user"          validate:"required"`
	Organization *organizationRequest `json:"organization"  validate:"required"`
}

type sessionUserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"is_active"`
}

// sessionResponse is the consumer-facing snapshot: read-only fields,
// refreshed on every state transition.
type sessionResponse struct {
	User            *sessionUserResponse `json:"user"`
	IsAuthenticated bool                 `json:"is_authenticated"`
	IsHydrated      bool                 `json:"is_hydrated"`
}
