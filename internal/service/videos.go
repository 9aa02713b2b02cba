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

// VideoWorkflow governs a video record's lifecycle and who may trigger
// each transition.
type VideoWorkflow struct {
	*base
}

// VideoInput is the editable content of a record as submitted by a client.
// Status is ignored on create.
type VideoInput struct {
	Channel     string            `json:"channel" validate:"required"`
	VideoLink   string            `json:"video_link" validate:"required"`
	Status      model.VideoStatus `json:"status" validate:"omitempty,oneof=pending live cancel"`
	Price       *float64          `json:"price" validate:"required,gte=0"`
	Remarks     string            `json:"remarks"`
	Brand       string            `json:"brand" validate:"required"`
	Platform    model.Platform    `json:"platform" validate:"required,oneof=youtube instagram other"`
	ContactInfo string            `json:"contact_info" validate:"required"`
	Date        string            `json:"date" validate:"required,datetime=2006-01-02"`
}

// InputOf returns the input that reproduces v's content.
func InputOf(v model.VideoRecord) VideoInput {
	price := v.Price
	return VideoInput{
		Channel: v.Channel, VideoLink: v.VideoLink, Status: v.Status, Price: &price, Remarks: v.Remarks,
		Brand: v.Brand, Platform: v.Platform, ContactInfo: v.ContactInfo, Date: v.Date,
	}
}

func (in VideoInput) fields(status model.VideoStatus) model.VideoFields {
	f := model.VideoFields{
		Channel:     strings.TrimSpace(in.Channel),
		VideoLink:   strings.TrimSpace(in.VideoLink),
		Status:      status,
		Remarks:     strings.TrimSpace(in.Remarks),
		Brand:       strings.TrimSpace(in.Brand),
		Platform:    in.Platform,
		ContactInfo: strings.TrimSpace(in.ContactInfo),
		Date:        in.Date,
	}
	if in.Price != nil {
		f.Price = *in.Price
	}
	return f
}

// Create stores a new record owned by the caller with status and payment
// pending. Suspension is checked against the profile as stored now.
func (w *VideoWorkflow) Create(ctx context.Context, s access.Session, in VideoInput) (v model.VideoRecord, err error) {
	const op = "videos.create"
	defer func() { w.done(op, s, v.ID, err) }()

	s, err = w.fresh(ctx, op, s)
	if err != nil {
		return model.VideoRecord{}, err
	}
	if !s.Can(access.CreateVideo) {
		if s.Suspended {
			return model.VideoRecord{}, deny(op, "account is suspended")
		}
		return model.VideoRecord{}, deny(op, "role "+string(s.Role)+" may not create videos")
	}
	if err := check(in); err != nil {
		return model.VideoRecord{}, err
	}

	rec := model.VideoRecord{
		ID:          w.NewID(),
		VideoFields: in.fields(model.VideoPending),
		OwnerUID:    s.UID,
		OwnerEmail:  s.Email,
		Payment:     model.PaymentPending,
	}
	if err := w.Stores.Videos.Create(ctx, rec); err != nil {
		return model.VideoRecord{}, storeErr(op, err)
	}
	w.changed(ctx, model.CollectionVideos)
	w.emit(ctx, s, queue.Event{Type: queue.VideoCreated, SubjectID: rec.ID, OwnerEmail: rec.OwnerEmail, Channel: rec.Channel})
	return w.reload(ctx, op, rec.ID)
}

// Edit replaces a record's content. Admins may edit any record. A worker
// may edit only their own record while it has no pending deletion, is not
// paid and they are not suspended. Owner and payment never change; an
// empty status keeps the current one.
func (w *VideoWorkflow) Edit(ctx context.Context, s access.Session, id string, in VideoInput) (v model.VideoRecord, err error) {
	const op = "videos.edit"
	defer func() { w.done(op, s, id, err) }()

	s, err = w.fresh(ctx, op, s)
	if err != nil {
		return model.VideoRecord{}, err
	}
	if !s.Can(access.EditAnyVideo) && !s.Can(access.EditOwnVideo) {
		if s.Suspended {
			return model.VideoRecord{}, deny(op, "account is suspended")
		}
		return model.VideoRecord{}, deny(op, "role "+string(s.Role)+" may not edit videos")
	}
	cur, err := w.Stores.Videos.Get(ctx, id)
	if err != nil {
		return model.VideoRecord{}, storeErr(op, err)
	}

	guard := ""
	if !s.Can(access.EditAnyVideo) {
		if err := editableBy(op, cur, s.UID); err != nil {
			return model.VideoRecord{}, err
		}
		guard = s.UID
	}
	if err := check(in); err != nil {
		return model.VideoRecord{}, err
	}
	status := in.Status
	if status == "" {
		status = cur.Status
	}
	err = w.Stores.Videos.Update(ctx, id, in.fields(status), guard)
	if errors.Is(err, repository.ErrConflict) {
		return model.VideoRecord{}, deny(op, "record is frozen")
	}
	if err != nil {
		return model.VideoRecord{}, storeErr(op, err)
	}
	w.changed(ctx, model.CollectionVideos)
	w.emit(ctx, s, queue.Event{Type: queue.VideoEdited, SubjectID: id, OwnerEmail: cur.OwnerEmail, Channel: in.Channel})
	return w.reload(ctx, op, id)
}

// editableBy reports why uid may not change v, or nil.
func editableBy(op string, v model.VideoRecord, uid string) error {
	switch {
	case v.OwnerUID != uid:
		return deny(op, "not the owner")
	case v.DeletionPending:
		return deny(op, "deletion is pending")
	case v.Payment == model.PaymentDone:
		return deny(op, "payment is done")
	}
	return nil
}

// Delete removes a record directly. Admin only; workers go through a
// deletion request.
func (w *VideoWorkflow) Delete(ctx context.Context, s access.Session, id string) (err error) {
	const op = "videos.delete"
	defer func() { w.done(op, s, id, err) }()

	if err := need(op, s, access.DeleteVideo); err != nil {
		return err
	}
	cur, err := w.Stores.Videos.Get(ctx, id)
	if err != nil {
		return storeErr(op, err)
	}
	if err := w.Stores.Videos.Delete(ctx, id); err != nil {
		return storeErr(op, err)
	}
	w.changed(ctx, model.CollectionVideos, model.CollectionDeletionRequests)
	w.emit(ctx, s, queue.Event{Type: queue.VideoDeleted, SubjectID: id, OwnerEmail: cur.OwnerEmail, Channel: cur.Channel})
	return nil
}

// SetPayment moves a record's settlement state. Admin only.
func (w *VideoWorkflow) SetPayment(ctx context.Context, s access.Session, id string, p model.PaymentStatus) (v model.VideoRecord, err error) {
	const op = "videos.set_payment"
	defer func() { w.done(op, s, id, err) }()

	if err := need(op, s, access.SetPayment); err != nil {
		return model.VideoRecord{}, err
	}
	if !p.Valid() {
		return model.VideoRecord{}, &ValidationError{Fields: map[string]string{"payment": "must be one of: pending, done, rejected"}}
	}
	if err := w.Stores.Videos.SetPayment(ctx, id, p); err != nil {
		return model.VideoRecord{}, storeErr(op, err)
	}
	v, err = w.reload(ctx, op, id)
	if err != nil {
		return model.VideoRecord{}, err
	}
	w.changed(ctx, model.CollectionVideos)
	w.emit(ctx, s, queue.Event{Type: queue.PaymentSet, SubjectID: id, OwnerEmail: v.OwnerEmail, Channel: v.Channel, Detail: string(p)})
	return v, nil
}

// Get returns one record: any record for admins, own records for workers.
func (w *VideoWorkflow) Get(ctx context.Context, s access.Session, id string) (model.VideoRecord, error) {
	const op = "videos.get"
	if err := need(op, s, access.ViewOwnVideos); err != nil {
		return model.VideoRecord{}, err
	}
	v, err := w.Stores.Videos.Get(ctx, id)
	if err != nil {
		return model.VideoRecord{}, storeErr(op, err)
	}
	if !s.Can(access.ViewAllVideos) && v.OwnerUID != s.UID {
		return model.VideoRecord{}, deny(op, "not the owner")
	}
	return v, nil
}

// List returns the records visible to s (all for admins, own for workers)
// after applying q.
func (w *VideoWorkflow) List(ctx context.Context, s access.Session, q model.VideoQuery) ([]model.VideoRecord, error) {
	f, err := visible("videos.list", s)
	if err != nil {
		return nil, err
	}
	return w.list(ctx, f, q)
}

// Watch streams List results.
func (w *VideoWorkflow) Watch(ctx context.Context, s access.Session, q model.VideoQuery) (<-chan feed.Snapshot[[]model.VideoRecord], error) {
	f, err := visible("videos.watch", s)
	if err != nil {
		return nil, err
	}
	return feed.Watch(ctx, w.Notifier, func(ctx context.Context) ([]model.VideoRecord, error) {
		return w.list(ctx, f, q)
	}, model.CollectionVideos)
}

// PaymentQueue lists records whose payment is still pending. Admin only.
func (w *VideoWorkflow) PaymentQueue(ctx context.Context, s access.Session) ([]model.VideoRecord, error) {
	if err := need("videos.payment_queue", s, access.SetPayment); err != nil {
		return nil, err
	}
	return w.list(ctx, model.VideoFilter{Payment: model.PaymentPending}, model.VideoQuery{})
}

// WatchPaymentQueue streams PaymentQueue results.
func (w *VideoWorkflow) WatchPaymentQueue(ctx context.Context, s access.Session) (<-chan feed.Snapshot[[]model.VideoRecord], error) {
	if err := need("videos.payment_queue", s, access.SetPayment); err != nil {
		return nil, err
	}
	return feed.Watch(ctx, w.Notifier, func(ctx context.Context) ([]model.VideoRecord, error) {
		return w.list(ctx, model.VideoFilter{Payment: model.PaymentPending}, model.VideoQuery{})
	}, model.CollectionVideos)
}

func visible(op string, s access.Session) (model.VideoFilter, error) {
	switch {
	case s.Can(access.ViewAllVideos):
		return model.VideoFilter{}, nil
	case s.Can(access.ViewOwnVideos):
		return model.VideoFilter{OwnerUID: s.UID}, nil
	}
	if s.Anonymous() {
		return model.VideoFilter{}, deny(op, "not signed in")
	}
	return model.VideoFilter{}, deny(op, "role "+string(s.Role)+" may not view videos")
}

func (w *VideoWorkflow) list(ctx context.Context, f model.VideoFilter, q model.VideoQuery) ([]model.VideoRecord, error) {
	vs, err := w.Stores.Videos.List(ctx, f)
	if err != nil {
		return nil, storeErr("videos.list", err)
	}
	return q.Apply(vs), nil
}

func (w *VideoWorkflow) reload(ctx context.Context, op string, id string) (model.VideoRecord, error) {
	v, err := w.Stores.Videos.Get(ctx, id)
	if err != nil {
		return model.VideoRecord{}, storeErr(op, err)
	}
	return v, nil
}
