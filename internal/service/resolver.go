package service

import (
	"context"
	"errors"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/queue"
	"github.com/iliyamo/campaign-tracker/internal/repository"
)

// Resolver derives the caller's role and suspension flag from their
// profile, creating the profile on first sign-in.
type Resolver struct {
	*base
}

// SessionState is one element of a session stream.
type SessionState struct {
	Role         model.Role          `json:"role"`
	Suspended    bool                `json:"suspended"`
	Loading      bool                `json:"loading"`
	Capabilities []access.Capability `json:"capabilities"`
}

func stateOf(s access.Session) SessionState {
	return SessionState{Role: s.Role, Suspended: s.Suspended, Capabilities: s.Capabilities()}
}

// Resolve returns the session for id. The anonymous identity resolves to
// the empty session. A missing profile is created with role new, unless
// the identity was removed in the meantime.
func (r *Resolver) Resolve(ctx context.Context, id access.Identity) (access.Session, error) {
	const op = "access.resolve"
	if id.Anonymous() {
		return access.Session{}, nil
	}
	p, err := r.Stores.Profiles.Get(ctx, id.UID)
	if err == nil {
		return access.NewSession(id, p), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return access.Session{}, storeErr(op, err)
	}

	acct, err := r.Stores.Accounts.GetByID(ctx, id.UID)
	if errors.Is(err, repository.ErrNotFound) {
		return access.Session{}, deny(op, "identity no longer exists")
	}
	if err != nil {
		return access.Session{}, storeErr(op, err)
	}
	p, created, err := r.Stores.Profiles.CreateIfAbsent(ctx, model.UserProfile{
		UID:   id.UID,
		Email: acct.Email,
		Name:  acct.Name,
		Phone: acct.Phone,
		Role:  model.RoleNew,
	})
	if err != nil {
		return access.Session{}, storeErr(op, err)
	}
	s := access.NewSession(id, p)
	if created {
		r.done("access.profile_created", s, id.UID, nil)
		r.changed(ctx, model.CollectionUsers)
		r.emit(ctx, s, queue.Event{Type: queue.MemberJoined, SubjectID: id.UID, OwnerEmail: p.Email})
	}
	return s, nil
}

// SignIn is called by the identity provider right after a successful
// sign-in so the profile exists from the first one.
func (r *Resolver) SignIn(ctx context.Context, id access.Identity) (access.Session, error) {
	return r.Resolve(ctx, id)
}

// WatchSession streams the (role, suspended, loading) tuple of id: a
// loading state first, then one state per change of the users collection.
// A removed profile yields the empty role. The stream ends with ctx.
func (r *Resolver) WatchSession(ctx context.Context, id access.Identity) (<-chan SessionState, error) {
	out := make(chan SessionState, 1)
	out <- SessionState{Loading: true}

	if id.Anonymous() {
		go func() {
			defer close(out)
			select {
			case out <- SessionState{Capabilities: []access.Capability{}}:
			case <-ctx.Done():
				return
			}
			<-ctx.Done()
		}()
		return out, nil
	}

	snaps, err := feed.Watch(ctx, r.Notifier, func(ctx context.Context) (access.Session, error) {
		p, err := r.Stores.Profiles.Get(ctx, id.UID)
		if errors.Is(err, repository.ErrNotFound) {
			return access.Session{Identity: id}, nil
		}
		return access.NewSession(id, p), err
	}, model.CollectionUsers)
	if err != nil {
		return nil, storeErr("access.watch_session", err)
	}

	go func() {
		defer close(out)
		var last *SessionState
		for snap := range snaps {
			if snap.Err != nil {
				r.Logger.WithField("uid", id.UID).WarnWithErr("session refresh failed", snap.Err)
				continue
			}
			st := stateOf(snap.Data)
			if last != nil && last.Role == st.Role && last.Suspended == st.Suspended {
				continue
			}
			last = &st
			select {
			case out <- st:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
