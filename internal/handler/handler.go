// Package handler exposes the workflows over HTTP. Handlers bind input, call
// exactly one workflow operation with the caller's session and map the
// result to JSON.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/service"
)

// Options tune every handler.
type Options struct {
	Timeout    time.Duration // per-request store budget
	StreamBeat time.Duration // SSE heartbeat interval
}

func (o Options) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	d := o.Timeout
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(c.Request().Context(), d)
}

// Handlers groups the per-area handlers.
type Handlers struct {
	Auth      *AuthHandler
	Videos    *VideoHandler
	Deletions *DeletionHandler
	Team      *TeamHandler
	Dashboard *DashboardHandler
}

// New builds every handler over svc.
func New(svc *service.Services, o Options) *Handlers {
	if svc == nil {
		panic("nil services passed to handler.New")
	}
	return &Handlers{
		Auth:      &AuthHandler{Options: o, Identity: svc.Identity, Access: svc.Access},
		Videos:    &VideoHandler{Options: o, Videos: svc.Videos, Deletions: svc.Deletions},
		Deletions: &DeletionHandler{Options: o, Deletions: svc.Deletions},
		Team:      &TeamHandler{Options: o, Team: svc.Team},
		Dashboard: &DashboardHandler{Options: o, Dashboard: svc.Dashboard},
	}
}
