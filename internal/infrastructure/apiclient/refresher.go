package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/ports"
)

// refreshResponse is the identity service's token-exchange reply. The wire
// schema is owned by the identity service; decoding is strict about the
// fields this subsystem depends on and normalizes the rest rather than
// trusting the shape implicitly.
type refreshResponse struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	ExpiresAt    string `json:"expires_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ExpiresIn    int64  `json:"expires_in,omitempty" validate:"omitempty,gt=0"`
}

// Refresher performs the refresh exchange against the identity service.
type Refresher struct {
	http     *http.Client
	url      string
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

// RefresherOption customises a Refresher at construction time.
type RefresherOption func(*Refresher)

// WithRefresherHTTPClient substitutes the underlying http.Client.
func WithRefresherHTTPClient(hc *http.Client) RefresherOption {
	return func(r *Refresher) { r.http = hc }
}

// NewRefresher builds a Refresher posting to the given token endpoint URL.
func NewRefresher(url string, log zerolog.Logger, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		http:     &http.Client{Timeout: defaultRequestTimeout},
		url:      url,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.TokenRefresher = (*Refresher)(nil)

// Refresh exchanges the refresh token for a new pair. A 4xx from the
// identity service maps to domain.ErrRefreshRejected (terminal for the
// session); transport failures and malformed replies surface as plain
// errors the caller treats the same way.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh exchange: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		r.log.Info().Int("status", resp.StatusCode).Msg("apiclient: identity service rejected refresh token")
		return domain.TokenPair{}, domain.ErrRefreshRejected
	}
	if resp.StatusCode != http.StatusOK {
		return domain.TokenPair{}, fmt.Errorf("refresh exchange: unexpected status %d", resp.StatusCode)
	}

	var dto refreshResponse
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if err := r.validate.Struct(dto); err != nil {
		return domain.TokenPair{}, fmt.Errorf("invalid refresh response: %w", err)
	}

	expiresAt, err := r.resolveExpiry(dto)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  dto.AccessToken,
		RefreshToken: dto.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// resolveExpiry picks the access token expiry in precedence order:
// explicit expires_at, then expires_in relative to now, then the access
// JWT's own exp claim. A response yielding none of the three is rejected.
func (r *Refresher) resolveExpiry(dto refreshResponse) (time.Time, error) {
	if dto.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, dto.ExpiresAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse expires_at: %w", err)
		}
		return t, nil
	}
	if dto.ExpiresIn > 0 {
		return r.now().Add(time.Duration(dto.ExpiresIn) * time.Second), nil
	}
	if exp, ok := jwtExpiry(dto.AccessToken); ok {
		return exp, nil
	}
	return time.Time{}, fmt.Errorf("refresh response carries no usable expiry")
}

// jwtExpiry extracts the exp claim from a JWT without verifying the
// signature; verification belongs to the API servers, this side only
// needs the timestamp.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// refreshTokenExpired reports whether a refresh token is past its own exp
// claim. Opaque (non-JWT) refresh tokens and JWTs without exp are treated
// as not expired; the exchange itself is the authority for those.
func refreshTokenExpired(token string, now time.Time) bool {
	exp, ok := jwtExpiry(token)
	if !ok {
		return false
	}
	return !exp.After(now)
}
