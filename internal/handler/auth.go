package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/middleware"
	"github.com/iliyamo/campaign-tracker/internal/service"
)

// AuthHandler serves registration, token exchange and the caller's own
// session.
type AuthHandler struct {
	Options
	Identity *service.IdentityProvider
	Access   *service.Resolver
}

// ----- DTOs -----

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionView struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	Role         string              `json:"role"`
	Suspended    bool                `json:"suspended"`
	Capabilities []access.Capability `json:"capabilities"`
}

func viewOf(s access.Session) sessionView {
	caps := s.Capabilities()
	if caps == nil {
		caps = []access.Capability{}
	}
	return sessionView{ID: s.UID, Email: s.Email, Role: string(s.Role), Suspended: s.Suspended, Capabilities: caps}
}

type authResp struct {
	Tokens  service.TokenPair `json:"tokens"`
	Session sessionView       `json:"session"`
}

// Register: create the account and return tokens immediately. The profile
// starts as a new user awaiting approval.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	pair, s, err := h.Identity.Register(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, authResp{Tokens: pair, Session: viewOf(s)})
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	pair, s, err := h.Identity.SignIn(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, authResp{Tokens: pair, Session: viewOf(s)})
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	pair, err := h.Identity.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes the presented refresh token. Access tokens simply expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Identity.SignOut(ctx, req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the resolved session and what it may do.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, viewOf(middleware.SessionOf(c)))
}

// MeStream pushes (role, suspended, loading) whenever the caller's profile
// changes. The first event always has loading=true.
func (h *AuthHandler) MeStream(c echo.Context) error {
	ch, err := h.Access.WatchSession(c.Request().Context(), middleware.IdentityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return serveStream(c, h.StreamBeat, ch, func(st service.SessionState) (string, any) {
		return "session", st
	})
}
