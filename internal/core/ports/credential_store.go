package ports

import (
	"context"

	"github.com/invenly/dashboard-session/internal/core/domain"
)

// CredentialStore is the single durable home of the session's token pair
// and identity claims. Reads never fail: absence is the zero value.
// TokenExpired treats a missing expiry as expired.
//
// Only the session service's login/logout path and the transport client's
// refresh path may write through it.
type CredentialStore interface {
	AccessToken() string
	RefreshToken() string
	User() *domain.SessionUser
	OrganizationID() string
	OrganizationSlug() string
	TokenExpired() bool

	// Credentials returns the full stored record, or ErrNoCredentials
	// when nothing is persisted.
	Credentials() (domain.Credentials, error)

	SetCredentials(creds domain.Credentials) error
	Clear() error
}

// ChangeNotifier reports external mutations of the stored credentials.
// The channel fires after another surface (process, tab) has written or
// cleared the store; delivery is eventually consistent and may coalesce
// bursts into a single notification.
type ChangeNotifier interface {
	Watch(ctx context.Context) <-chan struct{}
}

// WatchableStore is a credential store whose external mutations can be
// observed, the combination the token bridge needs.
type WatchableStore interface {
	CredentialStore
	ChangeNotifier
}
