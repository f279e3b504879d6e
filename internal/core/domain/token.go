package domain

import "time"

// TokenPair is the bearer credential pair issued by the identity service.
// It is a value object: login and refresh replace the whole pair, nothing
// ever mutates an existing one.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Zero reports whether the pair carries no token material at all.
func (t TokenPair) Zero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Expired reports whether the access token has expired at the given
// instant. A pair with no recorded expiry counts as expired, and so does a
// pair expiring exactly at now.
func (t TokenPair) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !t.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the access token expires within d of now.
// An already-expired pair is "about to expire" for any non-negative d.
func (t TokenPair) ExpiresWithin(now time.Time, d time.Duration) bool {
	if d < 0 {
		return false
	}
	if t.Expired(now) {
		return true
	}
	return t.ExpiresAt.Sub(now) <= d
}
