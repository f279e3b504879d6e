package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/ports"
)

// Snapshot is the read-only view of the session handed to consumers.
// Fields are copies; consumers must never write through them.
type Snapshot struct {
	User          *domain.SessionUser
	Tokens        *domain.TokenPair
	Authenticated bool
	Hydrated      bool
}

// Observer is notified after every visible session transition with the
// resulting snapshot. Observers run synchronously on the mutating call.
type Observer func(Snapshot)

// Session is the in-memory authoritative session state for this process.
// Exactly one instance is constructed and shared by reference; mutation
// happens only through Hydrate, Login, and Logout, so the in-memory state
// and the credential store converge after every operation.
type Session struct {
	store ports.CredentialStore
	log   zerolog.Logger
	now   func() time.Time

	mu        sync.Mutex
	user      *domain.SessionUser
	tokens    *domain.TokenPair
	authed    bool
	hydrated  bool
	observers []Observer
}

// SessionOption customises a Session at construction time.
type SessionOption func(*Session)

// WithNow overrides the clock, primarily for tests.
func WithNow(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession builds the process-wide session container around the given
// credential store. The session starts unhydrated and unauthenticated.
func NewSession(store ports.CredentialStore, log zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads persisted credentials into memory. It is idempotent:
// repeated calls with unchanged storage yield identical state. A stored
// pair that is missing or expired hydrates to the unauthenticated shape.
// Hydrated never reverts to false once set.
func (s *Session) Hydrate() Snapshot {
	s.mu.Lock()

	creds, err := s.store.Credentials()
	if err != nil || creds.Tokens.Zero() || creds.Tokens.Expired(s.now()) {
		s.user = nil
		s.tokens = nil
		s.authed = false
	} else {
		tokens := creds.Tokens
		s.user = creds.User
		s.tokens = &tokens
		s.authed = true
	}
	s.hydrated = true

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

// Login writes the credentials through to the store, then applies the
// in-memory transition atomically: no observer ever sees authenticated
// state with a nil user or the reverse.
func (s *Session) Login(creds domain.Credentials) error {
	if err := s.store.SetCredentials(creds); err != nil {
		return err
	}

	s.mu.Lock()
	tokens := creds.Tokens
	s.user = creds.User
	s.tokens = &tokens
	s.authed = true
	s.hydrated = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Str("user_id", userID(creds.User)).Msg("session: login")
	s.notify(snap)
	return nil
}

// Logout clears the store and resets the in-memory state to the initial
// shape. Safe to call in any state, including repeatedly.
func (s *Session) Logout() error {
	if err := s.store.Clear(); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.tokens = nil
	s.authed = false
	s.hydrated = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Msg("session: logout")
	s.notify(snap)
	return nil
}

// Snapshot returns the current state as an immutable copy.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer for subsequent transitions.
func (s *Session) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Authenticated reports whether a valid session is loaded.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// Hydrated reports whether the store has been read at least once.
func (s *Session) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Authenticated: s.authed,
		Hydrated:      s.hydrated,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.tokens != nil {
		t := *s.tokens
		snap.Tokens = &t
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	s.mu.Lock()
	obs := make([]Observer, len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()

	for _, fn := range obs {
		fn(snap)
	}
}

func userID(u *domain.SessionUser) string {
	if u == nil {
		return ""
	}
	return u.ID
}
