package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/invenly/dashboard-session/internal/bridge"
	"github.com/invenly/dashboard-session/internal/core/service"
)

// SessionHandler exposes the session lifecycle to the render layer:
// the current snapshot, login write-through, and logout. The auth token
// cookie is set and cleared here because these responses are the defined
// lifecycle points for the cookie mirror.
type SessionHandler struct {
	session *service.Session
}

func NewSessionHandler(session *service.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

// Current returns the session snapshot. Consumers treat every field as a
// read-only value refreshed per transition.
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

// Login persists identity-service credentials and flips the session to
// authenticated in one visible transition.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	creds := toCredentials(&req)
	if err := h.session.Login(creds); err != nil {
		return err
	}

	c.SetCookie(bridge.TokenCookie(creds.Tokens.AccessToken))
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

// Logout tears the session down; idempotent from any state.
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.session.Logout(); err != nil {
		return err
	}

	c.SetCookie(bridge.TokenCookie(""))
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}
