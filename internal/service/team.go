package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/queue"
	"github.com/iliyamo/campaign-tracker/internal/repository"
)

// accountRemover deletes the identity behind a profile.
type accountRemover interface {
	DeleteAccount(ctx context.Context, uid string) error
}

// TeamWorkflow manages profiles: approval, suspension and removal by
// admins, and self-service contact details for everyone.
type TeamWorkflow struct {
	*base
	accounts accountRemover
}

// Approve promotes a new user to worker. Approving a worker is a no-op;
// admins cannot be approved.
func (w *TeamWorkflow) Approve(ctx context.Context, s access.Session, uid string) (p model.UserProfile, err error) {
	const op = "team.approve"
	defer func() { w.done(op, s, uid, err) }()

	if err := need(op, s, access.ManageTeam); err != nil {
		return model.UserProfile{}, err
	}
	p, err = w.Stores.Profiles.Get(ctx, uid)
	if err != nil {
		return model.UserProfile{}, storeErr(op, err)
	}
	switch p.Role {
	case model.RoleWorker:
		return p, nil
	case model.RoleAdmin:
		return model.UserProfile{}, conflict(op, "user is an admin")
	}
	if err := w.Stores.Profiles.SetRole(ctx, uid, model.RoleWorker, true); err != nil {
		return model.UserProfile{}, storeErr(op, err)
	}
	w.changed(ctx, model.CollectionUsers)
	w.emit(ctx, s, queue.Event{Type: queue.MemberApproved, SubjectID: uid, OwnerEmail: p.Email})
	return w.profile(ctx, op, uid)
}

// Suspend blocks a worker from creating or editing records. Admins cannot
// suspend themselves.
func (w *TeamWorkflow) Suspend(ctx context.Context, s access.Session, uid string) (model.UserProfile, error) {
	return w.setSuspended(ctx, s, "team.suspend", uid, true, queue.MemberSuspended)
}

// Reactivate lifts a suspension.
func (w *TeamWorkflow) Reactivate(ctx context.Context, s access.Session, uid string) (model.UserProfile, error) {
	return w.setSuspended(ctx, s, "team.reactivate", uid, false, queue.MemberReactivated)
}

func (w *TeamWorkflow) setSuspended(ctx context.Context, s access.Session, op, uid string, suspended bool,
	typ queue.EventType) (p model.UserProfile, err error) {
	defer func() { w.done(op, s, uid, err) }()

	if err := need(op, s, access.ManageTeam); err != nil {
		return model.UserProfile{}, err
	}
	if suspended && uid == s.UID {
		return model.UserProfile{}, conflict(op, "cannot suspend yourself")
	}
	p, err = w.Stores.Profiles.Get(ctx, uid)
	if err != nil {
		return model.UserProfile{}, storeErr(op, err)
	}
	if suspended && p.Role == model.RoleNew {
		return model.UserProfile{}, conflict(op, "user is not approved yet")
	}
	if p.Suspended == suspended {
		return p, nil
	}
	if err := w.Stores.Profiles.SetSuspended(ctx, uid, suspended); err != nil {
		return model.UserProfile{}, storeErr(op, err)
	}
	w.changed(ctx, model.CollectionUsers)
	w.emit(ctx, s, queue.Event{Type: typ, SubjectID: uid, OwnerEmail: p.Email})
	return w.profile(ctx, op, uid)
}

// Remove deletes the account behind uid (revoking its tokens) and then the
// profile. The user's videos stay, attributable through their owner email
// snapshot. A removal that failed halfway can be repeated: whichever of the
// two documents is left gets deleted.
func (w *TeamWorkflow) Remove(ctx context.Context, s access.Session, uid string) (err error) {
	const op = "team.remove"
	defer func() { w.done(op, s, uid, err) }()

	if err := need(op, s, access.ManageTeam); err != nil {
		return err
	}
	if uid == s.UID {
		return conflict(op, "cannot remove yourself")
	}
	email := ""
	p, err := w.Stores.Profiles.Get(ctx, uid)
	switch {
	case err == nil:
		email = p.Email
	case errors.Is(err, repository.ErrNotFound):
		acct, err := w.Stores.Accounts.GetByID(ctx, uid)
		if err != nil {
			return storeErr(op, err)
		}
		email = acct.Email
	default:
		return storeErr(op, err)
	}

	if err := w.accounts.DeleteAccount(ctx, uid); err != nil {
		return err
	}
	if err := w.Stores.Profiles.Delete(ctx, uid); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeErr(op, err)
	}
	w.changed(ctx, model.CollectionUsers)
	w.emit(ctx, s, queue.Event{Type: queue.MemberRemoved, SubjectID: uid, OwnerEmail: email})
	return nil
}

// Roster lists every profile with its current video count, filtered by q.
// Counts are recomputed on every call. Admin only.
func (w *TeamWorkflow) Roster(ctx context.Context, s access.Session, q model.TeamQuery) ([]model.TeamMember, error) {
	if err := need("team.roster", s, access.ManageTeam); err != nil {
		return nil, err
	}
	return w.roster(ctx, q)
}

// WatchRoster streams Roster results on profile or video changes.
func (w *TeamWorkflow) WatchRoster(ctx context.Context, s access.Session, q model.TeamQuery) (<-chan feed.Snapshot[[]model.TeamMember], error) {
	if err := need("team.watch_roster", s, access.ManageTeam); err != nil {
		return nil, err
	}
	return feed.Watch(ctx, w.Notifier, func(ctx context.Context) ([]model.TeamMember, error) {
		return w.roster(ctx, q)
	}, model.CollectionUsers, model.CollectionVideos)
}

func (w *TeamWorkflow) roster(ctx context.Context, q model.TeamQuery) ([]model.TeamMember, error) {
	const op = "team.roster"
	ps, err := w.Stores.Profiles.List(ctx)
	if err != nil {
		return nil, storeErr(op, err)
	}
	ms := make([]model.TeamMember, 0, len(ps))
	for _, p := range ps {
		n, err := w.Stores.Videos.CountByOwner(ctx, p.UID)
		if err != nil {
			return nil, storeErr(op, err)
		}
		ms = append(ms, model.TeamMember{UserProfile: p, VideoCount: n})
	}
	return q.Apply(ms), nil
}

// ProfileInput is the self-editable part of a profile.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=64"`
}

// Profile returns the caller's own profile.
func (w *TeamWorkflow) Profile(ctx context.Context, s access.Session) (model.UserProfile, error) {
	const op = "team.profile"
	if s.Anonymous() {
		return model.UserProfile{}, deny(op, "not signed in")
	}
	return w.profile(ctx, op, s.UID)
}

// UpdateProfile changes the caller's name and phone.
func (w *TeamWorkflow) UpdateProfile(ctx context.Context, s access.Session, in ProfileInput) (p model.UserProfile, err error) {
	const op = "team.update_profile"
	defer func() { w.done(op, s, s.UID, err) }()

	if err := need(op, s, access.EditProfile); err != nil {
		return model.UserProfile{}, err
	}
	if err := check(in); err != nil {
		return model.UserProfile{}, err
	}
	err = w.Stores.Profiles.UpdateContact(ctx, s.UID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone))
	if errors.Is(err, repository.ErrNotFound) {
		return model.UserProfile{}, deny(op, "profile no longer exists")
	}
	if err != nil {
		return model.UserProfile{}, storeErr(op, err)
	}
	w.changed(ctx, model.CollectionUsers)
	return w.profile(ctx, op, s.UID)
}

func (w *TeamWorkflow) profile(ctx context.Context, op, uid string) (model.UserProfile, error) {
	p, err := w.Stores.Profiles.Get(ctx, uid)
	if err != nil {
		return model.UserProfile{}, storeErr(op, err)
	}
	return p, nil
}
