package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/handler"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
)

// RegisterVideos registers the record endpoints shared by workers and
// admins. Ownership, suspension and record state are checked by the
// workflow; the gate here only turns away new users.
func RegisterVideos(g *echo.Group, v *handler.VideoHandler) {
	vg := g.Group("/videos", middleware.RequireCapability(access.ViewOwnVideos))

	vg.GET("", v.List)
	vg.GET("/stream", v.Stream)
	vg.POST("", v.Create)
	vg.GET("/:id", v.Get)
	vg.PUT("/:id", v.Replace)
	vg.PATCH("/:id", v.Patch)
	vg.POST("/:id/deletion-request", v.RequestDeletion)

	// Admin only.
	vg.DELETE("/:id", v.Delete, middleware.RequireCapability(access.DeleteVideo))
	vg.PUT("/:id/payment", v.SetPayment, middleware.RequireCapability(access.SetPayment))
}
