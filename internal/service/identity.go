package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/repository"
	"github.com/iliyamo/campaign-tracker/internal/utils"
)

// IdentityProvider issues and verifies credentials for email/password
// accounts. It knows nothing about roles.
type IdentityProvider struct {
	*base
	resolver *Resolver
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=64"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is what a successful sign-in or refresh returns.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// Register creates an account and signs it in.
func (p *IdentityProvider) Register(ctx context.Context, in RegisterInput) (TokenPair, access.Session, error) {
	const op = "identity.register"
	if err := check(in); err != nil {
		return TokenPair{}, access.Session{}, err
	}
	hash, err := utils.HashPassword(in.Password, p.Tokens.BcryptCost)
	if err != nil {
		return TokenPair{}, access.Session{}, err
	}
	acct := model.Account{
		ID:           p.NewID(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := p.Stores.Accounts.Create(ctx, acct); err != nil {
		return TokenPair{}, access.Session{}, storeErr(op, err)
	}
	return p.signIn(ctx, acct)
}

// SignIn checks the password and issues a token pair.
func (p *IdentityProvider) SignIn(ctx context.Context, in LoginInput) (TokenPair, access.Session, error) {
	const op = "identity.sign_in"
	if err := check(in); err != nil {
		return TokenPair{}, access.Session{}, err
	}
	acct, err := p.Stores.Accounts.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, access.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, access.Session{}, storeErr(op, err)
	}
	if !utils.VerifyPassword(acct.PasswordHash, in.Password) {
		return TokenPair{}, access.Session{}, ErrInvalidCredentials
	}
	return p.signIn(ctx, acct)
}

func (p *IdentityProvider) signIn(ctx context.Context, acct model.Account) (TokenPair, access.Session, error) {
	id := access.Identity{UID: acct.ID, Email: acct.Email}
	pair, err := p.issue(ctx, id)
	if err != nil {
		return TokenPair{}, access.Session{}, err
	}
	s, err := p.resolver.SignIn(ctx, id)
	if err != nil {
		return TokenPair{}, access.Session{}, err
	}
	return pair, s, nil
}

func (p *IdentityProvider) issue(ctx context.Context, id access.Identity) (TokenPair, error) {
	at, err := utils.NewAccessToken(p.Tokens.Secret, id.UID, id.Email, p.Tokens.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	rt, err := utils.NewRefreshToken(p.Tokens.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := p.Stores.Tokens.StoreRefresh(ctx, id.UID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return TokenPair{}, storeErr("identity.issue", err)
	}
	return TokenPair{
		AccessToken:      at.Token,
		AccessExpiresAt:  at.Exp.Unix(),
		RefreshToken:     rt.Raw,
		RefreshExpiresAt: rt.Exp.Unix(),
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (p *IdentityProvider) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	const op = "identity.refresh"
	if raw == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	hash := utils.HashRefreshRaw(raw)
	uid, err := p.Stores.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, storeErr(op, err)
	}
	acct, err := p.Stores.Accounts.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, storeErr(op, err)
	}
	if err := p.Stores.Tokens.RevokeByHash(ctx, hash); err != nil {
		return TokenPair{}, storeErr(op, err)
	}
	return p.issue(ctx, access.Identity{UID: acct.ID, Email: acct.Email})
}

// SignOut revokes the refresh token. Unknown tokens are ignored.
func (p *IdentityProvider) SignOut(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return storeErr("identity.sign_out", p.Stores.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)))
}

// Verify checks an access token and returns the identity it names.
func (p *IdentityProvider) Verify(raw string) (access.Identity, error) {
	claims, err := utils.ParseAccessToken(p.Tokens.Secret, raw)
	if err != nil {
		return access.Identity{}, err
	}
	return access.Identity{UID: claims.Subject, Email: claims.Email}, nil
}

// DeleteAccount removes the account and revokes its refresh tokens. Access
// tokens already issued stay valid until expiry but resolve to no session.
func (p *IdentityProvider) DeleteAccount(ctx context.Context, uid string) error {
	const op = "identity.delete_account"
	if err := p.Stores.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return storeErr(op, err)
	}
	if err := p.Stores.Accounts.Delete(ctx, uid); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeErr(op, err)
	}
	return nil
}
