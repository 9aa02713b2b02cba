// Package service implements the workflows: identity, access resolution,
// video records, deletion requests, team membership and the dashboard.
// Every operation takes the caller's access.Session explicitly.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/repository"
)

type AccountStore interface {
	Create(ctx context.Context, a model.Account) error
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id string) (model.Account, error)
	Delete(ctx context.Context, id string) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type ProfileStore interface {
	Get(ctx context.Context, uid string) (model.UserProfile, error)
	CreateIfAbsent(ctx context.Context, p model.UserProfile) (model.UserProfile, bool, error)
	List(ctx context.Context) ([]model.UserProfile, error)
	CountByRole(ctx context.Context, role model.Role) (int, error)
	SetRole(ctx context.Context, uid string, role model.Role, approved bool) error
	SetSuspended(ctx context.Context, uid string, suspended bool) error
	UpdateContact(ctx context.Context, uid, name, phone string) error
	Delete(ctx context.Context, uid string) error
}

type VideoStore interface {
	Create(ctx context.Context, v model.VideoRecord) error
	Get(ctx context.Context, id string) (model.VideoRecord, error)
	Update(ctx context.Context, id string, f model.VideoFields, ownerGuard string) error
	SetPayment(ctx context.Context, id string, p model.PaymentStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f model.VideoFilter) ([]model.VideoRecord, error)
	CountByOwner(ctx context.Context, uid string) (int, error)
	CountByPayment(ctx context.Context, p model.PaymentStatus) (int, error)
}

// DeletionStore applies Request, Approve and Reject atomically across the
// request and its video.
type DeletionStore interface {
	Request(ctx context.Context, id, videoID, ownerUID string, at time.Time) (model.DeletionRequest, error)
	Get(ctx context.Context, id string) (model.DeletionRequest, error)
	List(ctx context.Context) ([]model.DeletionRequest, error)
	Count(ctx context.Context) (int, error)
	Approve(ctx context.Context, id string) (model.DeletionRequest, error)
	Reject(ctx context.Context, id string) (model.DeletionRequest, error)
}

// Stores bundles one implementation of every store.
type Stores struct {
	Accounts  AccountStore
	Tokens    TokenStore
	Profiles  ProfileStore
	Videos    VideoStore
	Deletions DeletionStore
}

// MySQLStores backs every store with db.
func MySQLStores(db *sql.DB) Stores {
	return Stores{
		Accounts:  repository.NewAccountRepo(db),
		Tokens:    repository.NewTokenRepo(db),
		Profiles:  repository.NewProfileRepo(db),
		Videos:    repository.NewVideoRepo(db),
		Deletions: repository.NewDeletionRepo(db),
	}
}

// MemoryStores backs every store with m.
func MemoryStores(m *repository.MemoryStore) Stores {
	return Stores{
		Accounts:  m.Accounts(),
		Tokens:    m.Tokens(),
		Profiles:  m.Profiles(),
		Videos:    m.Videos(),
		Deletions: m.Deletions(),
	}
}
