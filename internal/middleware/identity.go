package middleware

// identity.go holds the context keys shared by the middleware chain and the
// handlers: the verified identity set by JWTAuth and the session set by
// ResolveSession.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campaign-tracker/internal/access"
)

const (
    identityKey = "identity"
    sessionKey  = "session"
)

// IdentityOf returns the verified identity, or the anonymous one.
func IdentityOf(c echo.Context) access.Identity {
    if id, ok := c.Get(identityKey).(access.Identity); ok {
        return id
    }
    return access.Identity{}
}

// SessionOf returns the resolved session, or the anonymous one.
func SessionOf(c echo.Context) access.Session {
    if s, ok := c.Get(sessionKey).(access.Session); ok {
        return s
    }
    return access.Session{Identity: IdentityOf(c)}
}

// userID is the rate-limit key component; "anon" before authentication.
func userID(c echo.Context) string {
    if id := IdentityOf(c); !id.Anonymous() {
        return id.UID
    }
    return "anon"
}
