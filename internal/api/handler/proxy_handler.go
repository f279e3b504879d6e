package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/invenly/dashboard-session/internal/infrastructure/apiclient"
)

// ProxyHandler forwards dashboard data requests to the inventory API
// through the authenticated transport, so every fetch gets the bearer
// and tenant headers and the 401 refresh policy without the render layer
// handling tokens itself.
type ProxyHandler struct {
	client *apiclient.Client
}

func NewProxyHandler(client *apiclient.Client) *ProxyHandler {
	return &ProxyHandler{client: client}
}

// Forward relays the request to the upstream path after the /api/proxy
// prefix, preserving method, JSON body, and query string. Upstream
// failures surface as *apiclient.HTTPError and keep their status.
func (h *ProxyHandler) Forward(c echo.Context) error {
	req := c.Request()

	path := "/" + c.Param("*")
	if q := req.URL.RawQuery; q != "" {
		path += "?" + q
	}

	var body any
	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
		}
		if len(raw) > 0 {
			body = json.RawMessage(raw)
		}
	}

	resp, err := h.client.Do(req.Context(), req.Method, path, body)
	if err != nil {
		return err
	}
	return c.Blob(resp.Status, echo.MIMEApplicationJSON, resp.Body)
}
