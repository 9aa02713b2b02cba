package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is a liveness check used by load balancers. It returns a plain
// text "ok" and never touches a dependency.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

// Ready reports 503 while any named dependency fails its ping.
func Ready(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status, body := http.StatusOK, echo.Map{}
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		return c.JSON(status, body)
	}
}
