package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/handler"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
)

// RegisterAdmin registers the admin views: payment queue, deletion review,
// team management and dashboard counters.
func RegisterAdmin(g *echo.Group, h *handler.Handlers) {
	// ---- Payments ----
	pg := g.Group("/payments", middleware.RequireCapability(access.SetPayment))
	pg.GET("", h.Videos.Payments)
	pg.GET("/stream", h.Videos.PaymentsStream)

	// ---- Deletion requests ----
	dg := g.Group("/deletion-requests", middleware.RequireCapability(access.ReviewDeletions))
	dg.GET("", h.Deletions.List)
	dg.GET("/stream", h.Deletions.Stream)
	dg.GET("/:id", h.Deletions.Get)
	dg.POST("/:id/approve", h.Deletions.Approve)
	dg.POST("/:id/reject", h.Deletions.Reject)

	// ---- Team ----
	tg := g.Group("/team", middleware.RequireCapability(access.ManageTeam))
	tg.GET("", h.Team.Roster)
	tg.GET("/stream", h.Team.Stream)
	tg.POST("/:id/approve", h.Team.Approve)
	tg.POST("/:id/suspend", h.Team.Suspend)
	tg.POST("/:id/reactivate", h.Team.Reactivate)
	tg.DELETE("/:id", h.Team.Remove)

	// ---- Dashboard ----
	g.GET("/dashboard", h.Dashboard.Get, middleware.RequireCapability(access.ManageTeam))
	g.GET("/dashboard/stream", h.Dashboard.Stream, middleware.RequireCapability(access.ManageTeam))
}
