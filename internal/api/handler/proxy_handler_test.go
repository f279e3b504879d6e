package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/infrastructure/apiclient"
)

func proxyEcho(upstream string, store *stubStore) *echo.Echo {
	client := apiclient.New(upstream, store, nil, zerolog.Nop())

	e := echo.New()
	h := NewProxyHandler(client)
	e.Any("/api/proxy/*", h.Forward)
	return e
}

func authedStore() *stubStore {
	return &stubStore{creds: &domain.Credentials{
		Tokens: domain.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
		User:   &domain.SessionUser{ID: "user_1"},
		Org:    domain.Organization{ID: "org_1", Slug: "acme"},
	}}
}

func TestProxyHandler_ForwardsPathQueryAndAuth(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer upstream.Close()

	e := proxyEcho(upstream.URL, authedStore())

	req := httptest.NewRequest(http.MethodGet, "/api/proxy/products?page=2", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotPath != "/products" || gotQuery != "page=2" {
		t.Fatalf("upstream saw %q?%q", gotPath, gotQuery)
	}
	if gotAuth != "Bearer access-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if body := rec.Body.String(); body != `{"items":[]}` {
		t.Fatalf("body = %s", body)
	}
}

func TestProxyHandler_ForwardsJSONBody(t *testing.T) {
	var gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p1"}`))
	}))
	defer upstream.Close()

	e := proxyEcho(upstream.URL, authedStore())

	req := httptest.NewRequest(http.MethodPost, "/api/proxy/products", strings.NewReader(`{"name":"widget"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotBody != `{"name":"widget"}` {
		t.Fatalf("upstream body = %s", gotBody)
	}
}
