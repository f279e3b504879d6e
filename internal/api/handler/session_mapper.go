package handler

import (
	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/service"
)

// toCredentials maps a validated login payload into the domain record.
func toCredentials(req *loginRequest) domain.Credentials {
	user := &domain.SessionUser{
		ID:             req.User.ID,
		Email:          req.User.Email,
		FirstName:      req.User.FirstName,
		LastName:       req.User.LastName,
		OrganizationID: req.User.OrganizationID,
		Roles:          req.User.Roles,
		Permissions:    req.User.Permissions,
		IsActive:       req.User.IsActive,
		CreatedAt:      req.User.CreatedAt,
		UpdatedAt:      req.User.UpdatedAt,
	}
	if user.OrganizationID == "" {
		user.OrganizationID = req.Organization.ID
	}

	return domain.Credentials{
		Tokens: domain.TokenPair{
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
			ExpiresAt:    req.ExpiresAt,
		},
		User: user,
		Org: domain.Organization{
			ID:   req.Organization.ID,
			Slug: req.Organization.Slug,
		},
	}
}

// toSessionResponse maps a session snapshot into the wire shape.
func toSessionResponse(snap service.Snapshot) sessionResponse {
	resp := sessionResponse{
		IsAuthenticated: snap.Authenticated,
		IsHydrated:      snap.Hydrated,
	}
	if snap.User != nil {
		resp.User = &sessionUserResponse{
			ID:          snap.User.ID,
			Email:       snap.User.Email,
			FullName:    snap.User.FullName(),
			Roles:       snap.User.Roles,
			Permissions: snap.User.Permissions,
			IsActive:    snap.User.IsActive,
		}
	}
	return resp
}
