package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/invenly/dashboard-session/internal/api/metrics"
	"github.com/invenly/dashboard-session/internal/bridge"
)

// GateConfig configures the route gate. Zero values fall back to the
// dashboard defaults.
type GateConfig struct {
	// PublicPaths are locale-stripped path prefixes reachable without a
	// token cookie.
	PublicPaths []string
	// LoginPath is the locale-stripped login surface.
	LoginPath string
	// LandingPath is where an already-authenticated visit to the login
	// surface is sent.
	LandingPath string
	// Locales are the two-letter prefixes the router may prepend.
	Locales []string
}

func (cfg *GateConfig) applyDefaults() {
	if len(cfg.PublicPaths) == 0 {
		cfg.PublicPaths = []string{"/login", "/register", "/forgot-password", "/reset-password"}
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/dashboard"
	}
	if len(cfg.Locales) == 0 {
		cfg.Locales = []string{"en", "es"}
	}
}

// RouteGate classifies each navigation as public or protected before
// anything renders, using only the request path and the auth token
// cookie. It checks token presence, not validity: expiry is re-checked by
// the transport client on actual API calls. Static assets and
// framework-internal paths pass through untouched.
func RouteGate(cfg GateConfig) echo.MiddlewareFunc {
	cfg.applyDefaults()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqPath := c.Request().URL.Path
			if skipGate(reqPath) {
				return next(c)
			}

			locale, rest := splitLocale(reqPath, cfg.Locales)
			hasToken := tokenPresent(c)

			if isPublic(rest, cfg.PublicPaths) {
				// Bounce an authenticated user off the login surface.
				if hasToken && strings.HasPrefix(rest, cfg.LoginPath) {
					metrics.GateRedirectsTotal.WithLabelValues("already_authenticated").Inc()
					return c.Redirect(http.StatusFound, withLocale(locale, cfg.LandingPath))
				}
				return next(c)
			}

			if !hasToken {
				metrics.GateRedirectsTotal.WithLabelValues("unauthenticated").Inc()
				// The callback is a path, already URL-safe; kept literal so
				// the login surface can echo it straight back.
				target := withLocale(locale, cfg.LoginPath) + "?callbackUrl=" + reqPath
				return c.Redirect(http.StatusFound, target)
			}

			return next(c)
		}
	}
}

// skipGate excludes API endpoints, health/metrics probes, static assets,
// and framework-internal paths from gating. The gate classifies
// navigations; API calls answer with statuses, not redirects.
func skipGate(reqPath string) bool {
	switch {
	case strings.HasPrefix(reqPath, "/api/"):
		return true
	case reqPath == "/health" || strings.HasPrefix(reqPath, "/health/"):
		return true
	case reqPath == "/metrics":
		return true
	case strings.HasPrefix(reqPath, "/static/") || strings.HasPrefix(reqPath, "/_next/"):
		return true
	case path.Ext(reqPath) != "":
		return true
	}
	return false
}

func tokenPresent(c echo.Context) bool {
	cookie, err := c.Cookie(bridge.CookieName)
	return err == nil && cookie.Value != ""
}

// splitLocale strips a known two-letter locale prefix, returning it and
// the remainder ("/en/dashboard" -> "en", "/dashboard"). Paths without a
// recognised locale return an empty locale and the path unchanged.
func splitLocale(reqPath string, locales []string) (locale, rest string) {
	trimmed := strings.TrimPrefix(reqPath, "/")
	seg, remainder, _ := strings.Cut(trimmed, "/")
	for _, l := range locales {
		if seg == l {
			return l, "/" + remainder
		}
	}
	return "", reqPath
}

func isPublic(rest string, publicPaths []string) bool {
	for _, p := range publicPaths {
		if rest == p || strings.HasPrefix(rest, p+"/") {
			return true
		}
	}
	return false
}

func withLocale(locale, p string) string {
	if locale == "" {
		return p
	}
	return "/" + locale + p
}
