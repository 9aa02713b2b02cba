package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campaign-tracker/internal/access"
)

// Verifier checks a raw access token.
type Verifier interface {
    Verify(raw string) (access.Identity, error)
}

// JWTAuth validates a Bearer access token and stores the identity it names
// in the context. Event streams may pass the token as ?access_token= since
// EventSource cannot set headers.
func JWTAuth(v Verifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := ""
            if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
                raw = strings.TrimPrefix(auth, "Bearer ")
            } else if strings.HasSuffix(c.Path(), "/stream") {
                raw = c.QueryParam("access_token")
            }
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            id, err := v.Verify(raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(identityKey, id)
            return next(c)
        }
    }
}
