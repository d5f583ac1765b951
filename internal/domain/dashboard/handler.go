package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/notify"
	"github.com/healthcare/admin-dashboard/internal/platform/web"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/", h.Show)
}

func (h *Handler) Show(c echo.Context) error {
	ov, err := h.svc.Overview(c.Request().Context())
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			notify.Failure(c, err, "")
			return web.ToLogin(c, "/")
		}
		h.logger.Warn().Err(err).Msg("dashboard overview")
		notify.Failure(c, err, "Failed to load dashboard data")
		ov = summarize(nil, nil, nil)
	}
	return web.Render(c, http.StatusOK, "dashboard", "Dashboard", ov)
}
