package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/service"
)

// DeletionHandler serves the admin review queue.
type DeletionHandler struct {
	Options
	Deletions *service.DeletionWorkflow
}

func (h *DeletionHandler) List(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	ds, err := h.Deletions.List(ctx, middleware.SessionOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ds})
}

func (h *DeletionHandler) Get(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	d, err := h.Deletions.Get(ctx, middleware.SessionOf(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DeletionHandler) Stream(c echo.Context) error {
	s := middleware.SessionOf(c)
	return watch(c, h.StreamBeat, func(ctx context.Context) (<-chan feed.Snapshot[[]model.DeletionRequest], error) {
		return h.Deletions.Watch(ctx, s)
	})
}

// Approve deletes the video and the request. Unknown ids succeed.
func (h *DeletionHandler) Approve(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Deletions.Approve(ctx, middleware.SessionOf(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reject clears the pending flag and drops the request.
func (h *DeletionHandler) Reject(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Deletions.Reject(ctx, middleware.SessionOf(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
