package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/bridge"
	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/service"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// stubStore is an in-memory credential store.
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
	return s.creds == nil || s.creds.Tokens.Expired(testNow)
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

func newSessionEcho(store *stubStore) (*echo.Echo, *service.Session) {
	sess := service.NewSession(store, zerolog.Nop(), service.WithNow(func() time.Time { return testNow }))

	e := echo.New()
	e.Validator = NewValidator()

	h := NewSessionHandler(sess)
	e.GET("/api/session", h.Current)
	e.POST("/api/session/login", h.Login)
	e.POST("/api/session/logout", h.Logout)
	return e, sess
}

const validLoginBody = `{
	"access_token": "access-1",
	"refresh_token": "refresh-1",
	"expires_at": "2026-03-14T13:00:00Z",
	"user": {
		"id": "user_1",
		"email": "ana@acme.test",
		"first_name": "Ana",
		"last_name": "Torres",
		"roles": ["admin"],
		"permissions": ["inventory:read"],
		"is_active": true
	},
	"organization": {"id": "org_1", "slug": "acme"}
}`

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == bridge.CookieName {
			return c
		}
	}
	return nil
}

func TestSessionHandler_CurrentBeforeLogin(t *testing.T) {
	e, sess := newSessionEcho(&stubStore{})
	sess.Hydrate()

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"is_authenticated":false`) || !strings.Contains(body, `"is_hydrated":true`) {
		t.Fatalf("body = %s", body)
	}
	if !strings.Contains(body, `"user":null`) {
		t.Fatalf("unauthenticated snapshot must carry no user: %s", body)
	}
}

func TestSessionHandler_LoginSetsCookieAndState(t *testing.T) {
	store := &stubStore{}
	e, sess := newSessionEcho(store)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(validLoginBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value != "access-1" {
		t.Fatalf("login response missing auth token cookie: %+v", cookie)
	}

	if !sess.Authenticated() {
		t.Fatalf("session not authenticated after login")
	}
	if store.AccessToken() != "access-1" || store.RefreshToken() != "refresh-1" {
		t.Fatalf("credentials not written through to the store")
	}
	if user := store.User(); user == nil || user.Email != "ana@acme.test" {
		t.Fatalf("user not persisted: %+v", user)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"full_name":"Ana Torres"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestSessionHandler_LoginValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"missing user", `{"access_token":"a","refresh_token":"r","expires_at":"2026-03-14T13:00:00Z","organization":{"id":"org_1","slug":"acme"}}`},
		{"bad email", strings.Replace(validLoginBody, "ana@acme.test", "not-an-email", 1)},
		{"not json", `<html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			e, sess := newSessionEcho(store)

			req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if sess.Authenticated() || store.creds != nil {
				t.Fatalf("rejected login must not mutate state")
			}
		})
	}
}

func TestSessionHandler_LogoutClearsCookieAndStore(t *testing.T) {
	store := &stubStore{}
	e, sess := newSessionEcho(store)

	login := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(validLoginBody))
	login.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(httptest.NewRecorder(), login)

	req := httptest.NewRequest(http.MethodPost, "/api/session/logout", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("logout must clear the auth token cookie: %+v", cookie)
	}
	if sess.Authenticated() {
		t.Fatalf("session still authenticated after logout")
	}
	if store.creds != nil {
		t.Fatalf("store not cleared")
	}
	if !strings.Contains(rec.Body.String(), `"is_authenticated":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSessionHandler_LogoutIdempotent(t *testing.T) {
	e, _ := newSessionEcho(&stubStore{})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/session/logout", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d: status = %d", i, rec.Code)
		}
	}
}
