package middleware

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campaign-tracker/internal/access"
    "github.com/iliyamo/campaign-tracker/internal/service"
)

// SessionResolver turns an identity into a session.
type SessionResolver interface {
    Resolve(ctx context.Context, id access.Identity) (access.Session, error)
}

// ResolveSession reads the caller's profile (creating it on first sign-in)
// and stores the session for handlers and RequireCapability. It must run
// after JWTAuth.
func ResolveSession(r SessionResolver, timeout time.Duration) echo.MiddlewareFunc {
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
            s, err := r.Resolve(ctx, IdentityOf(c))
            cancel()
            if err != nil {
                var ae *service.AuthorizationError
                if errors.As(err, &ae) {
                    return c.JSON(http.StatusForbidden, echo.Map{"error": ae.Reason})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed, please retry"})
            }
            c.Set(sessionKey, s)
            return next(c)
        }
    }
}
