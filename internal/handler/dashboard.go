package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
	"github.com/iliyamo/campaign-tracker/internal/service"
)

// DashboardHandler serves the admin counters.
type DashboardHandler struct {
	Options
	Dashboard *service.Dashboard
}

func (h *DashboardHandler) Get(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.Dashboard.Counts(ctx, middleware.SessionOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *DashboardHandler) Stream(c echo.Context) error {
	s := middleware.SessionOf(c)
	return watch(c, h.StreamBeat, func(ctx context.Context) (<-chan feed.Snapshot[service.Counts], error) {
		return h.Dashboard.Watch(ctx, s)
	})
}
