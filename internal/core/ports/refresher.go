package ports

import (
	"context"

	"github.com/invenly/dashboard-session/internal/core/domain"
)

// TokenRefresher exchanges a refresh token for a fresh credential pair at
// the identity service. Returns domain.ErrRefreshRejected when the service
// refuses the token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}
