// This file stores deletion requests. Every operation that touches both a
// request and the video it points at runs in one transaction, so a request
// never exists without its video's deletion_pending flag and vice versa.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/campaign-tracker/internal/model"
)

// DeletionRepo encapsulates queries against deletion_requests.
type DeletionRepo struct {
	db *sql.DB
}

// NewDeletionRepo constructs a DeletionRepo with the provided DB handle.
func NewDeletionRepo(db *sql.DB) *DeletionRepo {
	return &DeletionRepo{db: db}
}

const requestCols = `id, video_id, channel, video_link, status, price, remarks, brand, platform, contact_info,
	date, owner_uid, owner_email, requested_at`

func scanRequest(s rowScanner) (model.DeletionRequest, error) {
	var d model.DeletionRequest
	err := s.Scan(&d.ID, &d.VideoID, &d.Channel, &d.VideoLink, &d.Status, &d.Price, &d.Remarks, &d.Brand,
		&d.Platform, &d.ContactInfo, &d.Date, &d.OwnerUID, &d.OwnerEmail, &d.RequestedAt)
	return d, err
}

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// Request flags the video as pending deletion and stores a snapshot of it
// under id. The video must belong to ownerUID, must not already be pending
// deletion and must not be paid; otherwise ErrConflict. A missing video is
// ErrNotFound.
func (r *DeletionRepo) Request(ctx context.Context, id, videoID, ownerUID string, at time.Time) (model.DeletionRequest, error) {
	var out model.DeletionRequest
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		v, err := scanVideo(tx.QueryRowContext(ctx, "SELECT "+videoCols+" FROM videos WHERE id = ? FOR UPDATE", videoID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if v.OwnerUID != ownerUID || v.DeletionPending || v.Payment == model.PaymentDone {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, "UPDATE videos SET deletion_pending = 1 WHERE id = ?", videoID); err != nil {
			return err
		}
		out = model.SnapshotOf(v)
		out.ID = id
		out.RequestedAt = at.UTC()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO deletion_requests (id, video_id, channel, video_link, status, price, remarks, brand, platform,
			                                contact_info, date, owner_uid, owner_email, requested_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			out.ID, out.VideoID, out.Channel, out.VideoLink, out.Status, out.Price, out.Remarks, out.Brand, out.Platform,
			out.ContactInfo, out.Date, out.OwnerUID, out.OwnerEmail, out.RequestedAt)
		return err
	})
	if err != nil {
		return model.DeletionRequest{}, err
	}
	return out, nil
}

// Get fetches a request by id.
func (r *DeletionRepo) Get(ctx context.Context, id string) (model.DeletionRequest, error) {
	d, err := scanRequest(r.db.QueryRowContext(ctx, "SELECT "+requestCols+" FROM deletion_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.DeletionRequest{}, ErrNotFound
	}
	return d, err
}

// List returns every open request, oldest first.
func (r *DeletionRepo) List(ctx context.Context) ([]model.DeletionRequest, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+requestCols+" FROM deletion_requests ORDER BY requested_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DeletionRequest
	for rows.Next() {
		d, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of open requests.
func (r *DeletionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deletion_requests").Scan(&n)
	return n, err
}

// Approve deletes the referenced video, then the request. An unknown request
// id is ErrNotFound.
func (r *DeletionRepo) Approve(ctx context.Context, id string) (model.DeletionRequest, error) {
	return r.resolve(ctx, id, "DELETE FROM videos WHERE id = ?")
}

// Reject clears the referenced video's deletion_pending flag, then deletes
// the request. A video that is already gone is not an error.
func (r *DeletionRepo) Reject(ctx context.Context, id string) (model.DeletionRequest, error) {
	return r.resolve(ctx, id, "UPDATE videos SET deletion_pending = 0 WHERE id = ?")
}

// resolve applies videoStmt to the request's video before removing the
// request itself.
func (r *DeletionRepo) resolve(ctx context.Context, id, videoStmt string) (model.DeletionRequest, error) {
	var d model.DeletionRequest
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		d, err = scanRequest(tx.QueryRowContext(ctx, "SELECT "+requestCols+" FROM deletion_requests WHERE id = ? FOR UPDATE", id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, videoStmt, d.VideoID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM deletion_requests WHERE id = ?", id)
		return err
	})
	if err != nil {
		return model.DeletionRequest{}, err
	}
	return d, nil
}
