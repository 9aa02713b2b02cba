package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/service"
)

// TeamHandler serves the roster (admin) and each caller's own profile.
type TeamHandler struct {
	Options
	Team *service.TeamWorkflow
}

// teamQuery reads ?search=&role=&suspended=.
func teamQuery(c echo.Context) (model.TeamQuery, error) {
	q := model.TeamQuery{Search: c.QueryParam("search"), Role: model.Role(c.QueryParam("role"))}
	if raw := c.QueryParam("suspended"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, &service.ValidationError{Fields: map[string]string{"suspended": "must be true or false"}}
		}
		q.Suspended = &b
	}
	return q, nil
}

func (h *TeamHandler) Roster(c echo.Context) error {
	q, err := teamQuery(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	ms, err := h.Team.Roster(ctx, middleware.SessionOf(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ms})
}

func (h *TeamHandler) Stream(c echo.Context) error {
	q, err := teamQuery(c)
	if err != nil {
		return fail(c, err)
	}
	s := middleware.SessionOf(c)
	return watch(c, h.StreamBeat, func(ctx context.Context) (<-chan feed.Snapshot[[]model.TeamMember], error) {
		return h.Team.WatchRoster(ctx, s, q)
	})
}

func (h *TeamHandler) Approve(c echo.Context) error {
	return h.member(c, h.Team.Approve)
}

func (h *TeamHandler) Suspend(c echo.Context) error {
	return h.member(c, h.Team.Suspend)
}

func (h *TeamHandler) Reactivate(c echo.Context) error {
	return h.member(c, h.Team.Reactivate)
}

// member runs a single-profile admin action and returns the updated profile.
func (h *TeamHandler) member(c echo.Context,
	fn func(context.Context, access.Session, string) (model.UserProfile, error)) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := fn(ctx, middleware.SessionOf(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Remove deletes the member's profile and account. Their videos remain.
func (h *TeamHandler) Remove(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Team.Remove(ctx, middleware.SessionOf(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile returns the caller's own profile.
func (h *TeamHandler) Profile(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Team.Profile(ctx, middleware.SessionOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfile changes the caller's name and phone.
func (h *TeamHandler) UpdateProfile(c echo.Context) error {
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Team.UpdateProfile(ctx, middleware.SessionOf(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
