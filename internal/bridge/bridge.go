// Package bridge keeps the route-gate cookie equal to the access token in
// the credential store, and folds external store mutations (another
// surface logging in or out) back into the session state. The mirror is
// strictly one-way: cookie state is derived from store state, never the
// reverse.
package bridge

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/ports"
	"github.com/invenly/dashboard-session/internal/core/service"
)

// CookieName is the fixed identifier of the auth token cookie the route
// gate reads. The cookie is never sent as authorization on the wire.
const CookieName = "auth_token"

// TokenCookie builds the gate cookie for the given access token. An empty
// token yields the clearing form: empty value with an already-expired
// date. Not HttpOnly: the render process must be able to set it.
func TokenCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.Expires = time.Unix(0, 0)
		c.MaxAge = -1
	}
	return c
}

// CookieSink receives the derived cookie on every sync. The edge server
// applies it to outgoing responses; tests record it.
type CookieSink interface {
	Apply(*http.Cookie)
}

// CookieSinkFunc adapts a plain function to a CookieSink.
type CookieSinkFunc func(*http.Cookie)

func (f CookieSinkFunc) Apply(c *http.Cookie) { f(c) }

// Bridge mirrors the store's access token into the gate cookie and
// re-hydrates the session whenever another surface mutates the store.
type Bridge struct {
	store   ports.WatchableStore
	session *service.Session
	sink    CookieSink
	log     zerolog.Logger
}

// New wires the bridge to the session's lifecycle: every visible session
// transition (hydrate, login, logout) re-derives the cookie.
func New(store ports.WatchableStore, session *service.Session, sink CookieSink, log zerolog.Logger) *Bridge {
	b := &Bridge{store: store, session: session, sink: sink, log: log}
	session.Subscribe(func(service.Snapshot) { b.Sync() })
	return b
}

// Sync derives the cookie from current store state and hands it to the
// sink. Safe to call at any time.
func (b *Bridge) Sync() {
	b.sink.Apply(TokenCookie(b.store.AccessToken()))
}

// Start consumes store change notifications until ctx is cancelled. Each
// notification re-hydrates the session, which in turn re-syncs the cookie
// through the subscription installed in New. Cross-surface visibility is
// eventually consistent: a change lands here only when its notification
// is delivered.
func (b *Bridge) Start(ctx context.Context) {
	updates := b.store.Watch(ctx)
	go func() {
		for range updates {
			b.log.Debug().Msg("bridge: external credential change, re-hydrating")
			b.session.Hydrate()
		}
	}()
}
