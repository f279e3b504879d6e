// Package apiclient is the authenticated HTTP transport the dashboard
// uses against the inventory API. Every request reads the credential
// store, attaches the bearer and tenant headers, and on a 401 runs the
// refresh-or-expire policy exactly once before giving up.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/api/metrics"
	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/ports"
)

const defaultRequestTimeout = 30 * time.Second

// Header names attached to every authenticated request. The tenant
// headers are informational: they never key refresh or retry decisions.
const (
	headerOrgSlug = "X-Organization-Slug"
	headerOrgID   = "X-Organization-ID"
	headerUserID  = "X-User-ID"
)

// HTTPError is the failure surfaced for any non-2xx response left after
// the retry policy is exhausted.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Body)
}

// Response is a fully-buffered API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Client issues authenticated requests against the inventory API.
// It holds no per-request state: the retry flag for the 401 policy is
// scoped to each Do call, so concurrent requests that fail together each
// get at most one refresh attempt of their own.
type Client struct {
	http      *http.Client
	baseURL   string
	store     ports.CredentialStore
	refresher ports.TokenRefresher
	log       zerolog.Logger
	now       func() time.Time
}

// ClientOption customises a Client at construction time.
type ClientOption func(*Client)

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClock overrides the clock, primarily for tests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// New builds a Client for the API rooted at baseURL. refresher may be nil,
// in which case a 401 immediately clears the store.
func New(baseURL string, store ports.CredentialStore, refresher ports.TokenRefresher, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultRequestTimeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     store,
		refresher: refresher,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do runs the full request pipeline: attach credentials, send, and on a
// 401 refresh and replay the original request at most once. Any other
// non-2xx status propagates as *HTTPError without retry. The body is
// buffered up front so the single replay can re-send it byte-identical.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	start := c.now()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = raw
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	// Refresh-or-expire policy: one attempt per originating request.
	if resp.Status == http.StatusUnauthorized {
		replayToken, refreshed := c.refreshOrExpire(ctx)
		if refreshed {
			resp, err = c.sendWithToken(ctx, method, path, payload, replayToken)
			if err != nil {
				return nil, err
			}
		}
	}

	metrics.APIRequestsTotal.WithLabelValues(method, statusClass(resp.Status)).Inc()
	metrics.APIRequestDuration.WithLabelValues(method).Observe(c.now().Sub(start).Seconds())

	if resp.Status < 200 || resp.Status > 299 {
		return nil, &HTTPError{Status: resp.Status, Body: string(resp.Body)}
	}
	return resp, nil
}

// refreshOrExpire runs the 401 recovery policy. It returns the access
// token to replay with and whether a replay should happen at all. On any
// terminal outcome (no refresh token, refresh token expired, exchange
// failed) it clears the store so every subsequent read sees "logged out",
// and the caller propagates the original 401.
func (c *Client) refreshOrExpire(ctx context.Context) (string, bool) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" || c.refresher == nil {
		metrics.RefreshAttemptsTotal.WithLabelValues("rejected").Inc()
		c.expire()
		return "", false
	}

	if refreshTokenExpired(refreshToken, c.now()) {
		metrics.RefreshAttemptsTotal.WithLabelValues("expired").Inc()
		c.log.Info().Msg("apiclient: refresh token expired, forcing logout")
		c.expire()
		return "", false
	}

	pair, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		result := "error"
		if domainErr(err) {
			result = "rejected"
		}
		metrics.RefreshAttemptsTotal.WithLabelValues(result).Inc()
		c.log.Warn().Err(err).Msg("apiclient: refresh exchange failed, forcing logout")
		c.expire()
		return "", false
	}
	metrics.RefreshAttemptsTotal.WithLabelValues("success").Inc()

	// Guard the write-back: a logout or a concurrent refresh may have
	// changed the store while the exchange was in flight.
	switch current := c.store.RefreshToken(); current {
	case "":
		// Store was cleared mid-flight; the session is over, discard the
		// minted pair and let the original 401 stand.
		return "", false
	case refreshToken:
		creds, err := c.store.Credentials()
		if err != nil {
			creds = domain.Credentials{}
		}
		creds.Tokens = pair
		if err := c.store.SetCredentials(creds); err != nil {
			c.log.Error().Err(err).Msg("apiclient: failed to persist refreshed credentials")
		}
		return pair.AccessToken, true
	default:
		// Another request refreshed first; replay with whatever won.
		return c.store.AccessToken(), true
	}
}

func (c *Client) expire() {
	if err := c.store.Clear(); err != nil {
		c.log.Error().Err(err).Msg("apiclient: failed to clear credentials")
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	return c.sendWithToken(ctx, method, path, payload, c.store.AccessToken())
}

func (c *Client) sendWithToken(ctx context.Context, method, path string, payload []byte, accessToken string) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// attachHeaders adds the bearer and tenant headers when present. Absence
// of any of them is not an error: the request goes out unauthenticated
// and the server decides.
func (c *Client) attachHeaders(req *http.Request, accessToken string) {
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if slug := c.store.OrganizationSlug(); slug != "" {
		req.Header.Set(headerOrgSlug, slug)
	}
	if id := c.store.OrganizationID(); id != "" {
		req.Header.Set(headerOrgID, id)
	}
	if user := c.store.User(); user != nil && user.ID != "" {
		req.Header.Set(headerUserID, user.ID)
	}
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func domainErr(err error) bool {
	return errors.Is(err, domain.ErrRefreshRejected) || errors.Is(err, domain.ErrTokenExpired)
}
