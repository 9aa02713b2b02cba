package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campaign-tracker/internal/access"
)

// RequireCapability rejects the request with 403 unless the session holds
// at least one of caps. The workflows check again; this keeps unauthorised
// callers off admin routes entirely.
func RequireCapability(caps ...access.Capability) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            s := SessionOf(c)
            for _, cp := range caps {
                if s.Can(cp) {
                    return next(c)
                }
            }
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
}
