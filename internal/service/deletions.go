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

// DeletionWorkflow is the review queue between a worker asking for a
// record to go and an admin removing it. Each transition is one atomic
// store operation over the request and its video.
type DeletionWorkflow struct {
	*base
}

// RequestDeletion freezes the caller's record and queues a snapshot of it
// for review.
func (w *DeletionWorkflow) RequestDeletion(ctx context.Context, s access.Session, videoID string) (d model.DeletionRequest, err error) {
	const op = "deletions.request"
	defer func() { w.done(op, s, videoID, err) }()

	s, err = w.fresh(ctx, op, s)
	if err != nil {
		return model.DeletionRequest{}, err
	}
	if !s.Can(access.RequestDeletion) {
		if s.Suspended {
			return model.DeletionRequest{}, deny(op, "account is suspended")
		}
		return model.DeletionRequest{}, deny(op, "role "+string(s.Role)+" may not request deletions")
	}
	v, err := w.Stores.Videos.Get(ctx, videoID)
	if err != nil {
		return model.DeletionRequest{}, storeErr(op, err)
	}
	if err := editableBy(op, v, s.UID); err != nil {
		return model.DeletionRequest{}, err
	}

	d, err = w.Stores.Deletions.Request(ctx, w.NewID(), videoID, s.UID, w.Now())
	if errors.Is(err, repository.ErrConflict) {
		return model.DeletionRequest{}, deny(op, "record is frozen")
	}
	if err != nil {
		return model.DeletionRequest{}, storeErr(op, err)
	}
	w.changed(ctx, model.CollectionVideos, model.CollectionDeletionRequests)
	w.emit(ctx, s, queue.Event{Type: queue.DeletionRequested, SubjectID: d.ID, OwnerEmail: d.OwnerEmail, Channel: d.Channel})
	return d, nil
}

// Approve deletes the requested video and the request. An id that does not
// exist (already resolved by someone else) is a no-op.
func (w *DeletionWorkflow) Approve(ctx context.Context, s access.Session, requestID string) error {
	return w.resolve(ctx, s, "deletions.approve", requestID, queue.DeletionApproved, w.Stores.Deletions.Approve)
}

// Reject clears the video's pending flag and drops the request. Unknown ids
// are a no-op.
func (w *DeletionWorkflow) Reject(ctx context.Context, s access.Session, requestID string) error {
	return w.resolve(ctx, s, "deletions.reject", requestID, queue.DeletionRejected, w.Stores.Deletions.Reject)
}

func (w *DeletionWorkflow) resolve(ctx context.Context, s access.Session, op, id string, typ queue.EventType,
	apply func(context.Context, string) (model.DeletionRequest, error)) (err error) {
	defer func() { w.done(op, s, id, err) }()

	if err := need(op, s, access.ReviewDeletions); err != nil {
		return err
	}
	d, err := apply(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(op, err)
	}
	w.changed(ctx, model.CollectionVideos, model.CollectionDeletionRequests)
	w.emit(ctx, s, queue.Event{Type: typ, SubjectID: d.ID, OwnerEmail: d.OwnerEmail, Channel: d.Channel})
	return nil
}

// List returns the open requests, oldest first. Admin only.
func (w *DeletionWorkflow) List(ctx context.Context, s access.Session) ([]model.DeletionRequest, error) {
	if err := need("deletions.list", s, access.ReviewDeletions); err != nil {
		return nil, err
	}
	return w.list(ctx)
}

// Get returns one open request. Admin only.
func (w *DeletionWorkflow) Get(ctx context.Context, s access.Session, requestID string) (model.DeletionRequest, error) {
	const op = "deletions.get"
	if err := need(op, s, access.ReviewDeletions); err != nil {
		return model.DeletionRequest{}, err
	}
	d, err := w.Stores.Deletions.Get(ctx, requestID)
	if err != nil {
		return model.DeletionRequest{}, storeErr(op, err)
	}
	return d, nil
}

// Watch streams List results.
func (w *DeletionWorkflow) Watch(ctx context.Context, s access.Session) (<-chan feed.Snapshot[[]model.DeletionRequest], error) {
	if err := need("deletions.watch", s, access.ReviewDeletions); err != nil {
		return nil, err
	}
	return feed.Watch(ctx, w.Notifier, w.list, model.CollectionDeletionRequests)
}

func (w *DeletionWorkflow) list(ctx context.Context) ([]model.DeletionRequest, error) {
	ds, err := w.Stores.Deletions.List(ctx)
	if err != nil {
		return nil, storeErr("deletions.list", err)
	}
	if ds == nil {
		ds = []model.DeletionRequest{}
	}
	return ds, nil
}
