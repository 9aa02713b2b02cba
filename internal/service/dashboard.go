package service

import (
	"context"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/model"
)

// Dashboard serves the admin badge counts.
type Dashboard struct {
	*base
}

// Counts are the numbers of items waiting for an admin.
type Counts struct {
	PendingDeletions int `json:"pending_deletions"`
	ApprovalRequests int `json:"approval_requests"`
	PendingPayments  int `json:"pending_payments"`
}

// Counts returns the current badge counts. Admin only.
func (d *Dashboard) Counts(ctx context.Context, s access.Session) (Counts, error) {
	if err := need("dashboard.counts", s, access.ManageTeam); err != nil {
		return Counts{}, err
	}
	return d.counts(ctx)
}

// Watch streams Counts on any change.
func (d *Dashboard) Watch(ctx context.Context, s access.Session) (<-chan feed.Snapshot[Counts], error) {
	if err := need("dashboard.watch", s, access.ManageTeam); err != nil {
		return nil, err
	}
	return feed.Watch(ctx, d.Notifier, d.counts,
		model.CollectionUsers, model.CollectionVideos, model.CollectionDeletionRequests)
}

func (d *Dashboard) counts(ctx context.Context) (Counts, error) {
	const op = "dashboard.counts"
	var (
		c   Counts
		err error
	)
	if c.PendingDeletions, err = d.Stores.Deletions.Count(ctx); err != nil {
		return Counts{}, storeErr(op, err)
	}
	if c.ApprovalRequests, err = d.Stores.Profiles.CountByRole(ctx, model.RoleNew); err != nil {
		return Counts{}, storeErr(op, err)
	}
	if c.PendingPayments, err = d.Stores.Videos.CountByPayment(ctx, model.PaymentPending); err != nil {
		return Counts{}, storeErr(op, err)
	}
	return c, nil
}
