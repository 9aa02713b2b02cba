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

// VideoHandler serves the video records, the payment queue and deletion
// requests filed against a record.
type VideoHandler struct {
	Options
	Videos    *service.VideoWorkflow
	Deletions *service.DeletionWorkflow
}

type paymentReq struct {
	Payment model.PaymentStatus `json:"payment"`
}

// videoQuery reads ?search=&status=&payment=&date_order=.
func videoQuery(c echo.Context) model.VideoQuery {
	return model.VideoQuery{
		Search:    c.QueryParam("search"),
		Status:    model.VideoStatus(c.QueryParam("status")),
		Payment:   model.PaymentStatus(c.QueryParam("payment")),
		DateOrder: c.QueryParam("date_order"),
	}
}

// List returns the videos visible to the caller: all of them for admins,
// their own for workers.
func (h *VideoHandler) List(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	vs, err := h.Videos.List(ctx, middleware.SessionOf(c), videoQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": vs})
}

// Stream is the live variant of List.
func (h *VideoHandler) Stream(c echo.Context) error {
	s, q := middleware.SessionOf(c), videoQuery(c)
	return watch(c, h.StreamBeat, func(ctx context.Context) (<-chan feed.Snapshot[[]model.VideoRecord], error) {
		return h.Videos.Watch(ctx, s, q)
	})
}

func (h *VideoHandler) Create(c echo.Context) error {
	var req service.VideoInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	v, err := h.Videos.Create(ctx, middleware.SessionOf(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *VideoHandler) Get(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	v, err := h.Videos.Get(ctx, middleware.SessionOf(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Replace is PUT: the body carries every field.
func (h *VideoHandler) Replace(c echo.Context) error {
	var req service.VideoInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	v, err := h.Videos.Edit(ctx, middleware.SessionOf(c), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Patch merges the body over the stored record, then edits as PUT would.
func (h *VideoHandler) Patch(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	s, id := middleware.SessionOf(c), c.Param("id")
	cur, err := h.Videos.Get(ctx, s, id)
	if err != nil {
		return fail(c, err)
	}
	req := service.InputOf(cur)
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	v, err := h.Videos.Edit(ctx, s, id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Delete removes a record outright (admin).
func (h *VideoHandler) Delete(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Videos.Delete(ctx, middleware.SessionOf(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestDeletion files a deletion request for the caller's own record.
func (h *VideoHandler) RequestDeletion(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	d, err := h.Deletions.RequestDeletion(ctx, middleware.SessionOf(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// SetPayment sets the settlement state (admin).
func (h *VideoHandler) SetPayment(c echo.Context) error {
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	v, err := h.Videos.SetPayment(ctx, middleware.SessionOf(c), c.Param("id"), req.Payment)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Payments lists records still awaiting settlement (admin).
func (h *VideoHandler) Payments(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	vs, err := h.Videos.PaymentQueue(ctx, middleware.SessionOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": vs})
}

func (h *VideoHandler) PaymentsStream(c echo.Context) error {
	s := middleware.SessionOf(c)
	return watch(c, h.StreamBeat, func(ctx context.Context) (<-chan feed.Snapshot[[]model.VideoRecord], error) {
		return h.Videos.WatchPaymentQueue(ctx, s)
	})
}
