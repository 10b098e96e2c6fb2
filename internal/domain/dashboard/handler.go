package dashboard

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.Stats, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
}

func (h *Handler) Stats(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}

	since := time.Now().UTC().AddDate(0, 0, -30)
	if v := c.QueryParam("since"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid since, want YYYY-MM-DD")
		}
		since = d
	}

	stats, err := h.svc.Stats(c.Request().Context(), actor, since)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
