package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/domain"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// stubStore is an in-memory credential store for session tests.
type stubStore struct {
	creds *domain.Credentials
}

func (s *stubStore) AccessToken() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.Tokens.AccessToken
}

func (s *stubStore) RefreshToken() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.Tokens.RefreshToken
}

func (s *stubStore) User() *domain.SessionUser {
	if s.creds == nil {
		return nil
	}
	return s.creds.User
}

func (s *stubStore) OrganizationID() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.Org.ID
}

func (s *stubStore) OrganizationSlug() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.Org.Slug
}

func (s *stubStore) TokenExpired() bool {
	if s.creds == nil {
		return true
	}
	return s.creds.Tokens.Expired(testNow)
}

func (s *stubStore) Credentials() (domain.Credentials, error) {
	if s.creds == nil {
		return domain.Credentials{}, domain.ErrNoCredentials
	}
	return *s.creds, nil
}

func (s *stubStore) SetCredentials(creds domain.Credentials) error {
	s.creds = &creds
	return nil
}

func (s *stubStore) Clear() error {
	s.creds = nil
	return nil
}

func validCredentials() domain.Credentials {
	return domain.Credentials{
		Tokens: domain.TokenPair{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    testNow.Add(time.Hour),
		},
		User: &domain.SessionUser{
			ID:    "user_1",
			Email: "maria@acme.io",
			Roles: []string{"manager"},
		},
		Org: domain.Organization{ID: "org_1", Slug: "acme"},
	}
}

func newTestSession(store *stubStore) *Session {
	return NewSession(store, zerolog.Nop(), WithNow(fixedNow))
}

func TestSession_StartsUnhydrated(t *testing.T) {
	sess := newTestSession(&stubStore{})

	snap := sess.Snapshot()
	if snap.Hydrated || snap.Authenticated || snap.User != nil || snap.Tokens != nil {
		t.Fatalf("initial state not empty: %+v", snap)
	}
}

func TestSession_Hydrate_ValidCredentials(t *testing.T) {
	store := &stubStore{}
	creds := validCredentials()
	_ = store.SetCredentials(creds)
	sess := newTestSession(store)

	snap := sess.Hydrate()

	if !snap.Hydrated || !snap.Authenticated {
		t.Fatalf("expected hydrated+authenticated, got %+v", snap)
	}
	if snap.User == nil || snap.User.ID != "user_1" {
		t.Fatalf("user not populated: %+v", snap.User)
	}
	if snap.Tokens == nil || snap.Tokens.AccessToken != "access-1" {
		t.Fatalf("tokens not populated: %+v", snap.Tokens)
	}
}

func TestSession_Hydrate_ExpiredToken(t *testing.T) {
	store := &stubStore{}
	creds := validCredentials()
	creds.Tokens.ExpiresAt = testNow.Add(-time.Minute)
	_ = store.SetCredentials(creds)
	sess := newTestSession(store)

	snap := sess.Hydrate()

	if !snap.Hydrated {
		t.Fatalf("hydrate must always set hydrated")
	}
	if snap.Authenticated || snap.User != nil || snap.Tokens != nil {
		t.Fatalf("expired credentials must hydrate unauthenticated: %+v", snap)
	}
}

func TestSession_Hydrate_EmptyStore(t *testing.T) {
	sess := newTestSession(&stubStore{})

	snap := sess.Hydrate()
	if !snap.Hydrated || snap.Authenticated {
		t.Fatalf("empty store must hydrate unauthenticated: %+v", snap)
	}
}

func TestSession_Hydrate_Idempotent(t *testing.T) {
	store := &stubStore{}
	_ = store.SetCredentials(validCredentials())
	sess := newTestSession(store)

	first := sess.Hydrate()
	second := sess.Hydrate()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("hydrate not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSession_Login_RoundTrip(t *testing.T) {
	store := &stubStore{}
	sess := newTestSession(store)
	sess.Hydrate()

	creds := validCredentials()
	if err := sess.Login(creds); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Store read immediately after login returns what was passed in.
	if store.AccessToken() != "access-1" || store.RefreshToken() != "refresh-1" {
		t.Fatalf("store tokens not written through")
	}
	if u := store.User(); u == nil || u.Email != "maria@acme.io" {
		t.Fatalf("store user not written through: %+v", u)
	}
	if store.OrganizationSlug() != "acme" {
		t.Fatalf("store org not written through")
	}

	snap := sess.Snapshot()
	if !snap.Authenticated || snap.User == nil || snap.Tokens == nil {
		t.Fatalf("in-memory state incomplete after login: %+v", snap)
	}
}

func TestSession_Login_AtomicTransition(t *testing.T) {
	store := &stubStore{}
	sess := newTestSession(store)
	sess.Hydrate()

	// Every observed snapshot must be internally consistent: never
	// authenticated with a nil user, never a user while unauthenticated.
	sess.Subscribe(func(snap Snapshot) {
		if snap.Authenticated != (snap.User != nil) {
			t.Fatalf("inconsistent snapshot observed: %+v", snap)
		}
		if snap.Authenticated != (snap.Tokens != nil) {
			t.Fatalf("inconsistent tokens observed: %+v", snap)
		}
	})

	if err := sess.Login(validCredentials()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := sess.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
}

func TestSession_Logout_ClearsEverything(t *testing.T) {
	store := &stubStore{}
	sess := newTestSession(store)
	sess.Hydrate()
	_ = sess.Login(validCredentials())

	if err := sess.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}

	snap := sess.Snapshot()
	if snap.Authenticated || snap.User != nil || snap.Tokens != nil {
		t.Fatalf("logout left state behind: %+v", snap)
	}
	if !snap.Hydrated {
		t.Fatalf("logout must not revert hydration")
	}
	if _, err := store.Credentials(); err != domain.ErrNoCredentials {
		t.Fatalf("store not cleared: %v", err)
	}

	// A fresh session over the same store (a new tab) also hydrates
	// unauthenticated.
	fresh := newTestSession(store)
	if snap := fresh.Hydrate(); snap.Authenticated {
		t.Fatalf("new session saw stale credentials")
	}

	// Logout is idempotent.
	if err := sess.Logout(); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestSession_Relogin_Overwrites(t *testing.T) {
	store := &stubStore{}
	sess := newTestSession(store)
	sess.Hydrate()
	_ = sess.Login(validCredentials())

	next := validCredentials()
	next.Tokens.AccessToken = "access-2"
	next.User.ID = "user_2"
	if err := sess.Login(next); err != nil {
		t.Fatalf("re-login: %v", err)
	}

	snap := sess.Snapshot()
	if snap.Tokens.AccessToken != "access-2" || snap.User.ID != "user_2" {
		t.Fatalf("re-login did not overwrite: %+v", snap)
	}
}

func TestSession_ObserverNotified(t *testing.T) {
	store := &stubStore{}
	sess := newTestSession(store)

	var seen []bool
	sess.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Authenticated)
	})

	sess.Hydrate()
	_ = sess.Login(validCredentials())
	_ = sess.Logout()

	want := []bool{false, true, false}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("observer sequence = %v, want %v", seen, want)
	}
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	store := &stubStore{}
	sess := newTestSession(store)
	sess.Hydrate()
	_ = sess.Login(validCredentials())

	snap := sess.Snapshot()
	snap.User.Email = "tampered@acme.io"
	snap.Tokens.AccessToken = "tampered"

	again := sess.Snapshot()
	if again.User.Email != "maria@acme.io" || again.Tokens.AccessToken != "access-1" {
		t.Fatalf("snapshot mutation leaked into session state")
	}
}
