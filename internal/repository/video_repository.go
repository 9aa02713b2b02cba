package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/campaign-tracker/internal/model"
)

// VideoRepo encapsulates all queries against the videos table.
type VideoRepo struct {
	db *sql.DB
}

// NewVideoRepo constructs a VideoRepo with the provided DB handle.
func NewVideoRepo(db *sql.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

// DATE is read back as a plain YYYY-MM-DD string.
const videoCols = `id, channel, video_link, status, price, remarks, brand, platform, contact_info,
	DATE_FORMAT(date, '%Y-%m-%d'), owner_uid, owner_email, payment, deletion_pending, created_at, updated_at`

func scanVideo(s rowScanner) (model.VideoRecord, error) {
	var v model.VideoRecord
	err := s.Scan(&v.ID, &v.Channel, &v.VideoLink, &v.Status, &v.Price, &v.Remarks, &v.Brand, &v.Platform,
		&v.ContactInfo, &v.Date, &v.OwnerUID, &v.OwnerEmail, &v.Payment, &v.DeletionPending, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create inserts v. The caller supplies the id.
func (r *VideoRepo) Create(ctx context.Context, v model.VideoRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, channel, video_link, status, price, remarks, brand, platform, contact_info, date,
		                     owner_uid, owner_email, payment, deletion_pending)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Channel, v.VideoLink, v.Status, v.Price, v.Remarks, v.Brand, v.Platform, v.ContactInfo, v.Date,
		v.OwnerUID, v.OwnerEmail, v.Payment, v.DeletionPending)
	return err
}

// Get fetches a video by id.
func (r *VideoRepo) Get(ctx context.Context, id string) (model.VideoRecord, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, "SELECT "+videoCols+" FROM videos WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.VideoRecord{}, ErrNotFound
	}
	return v, err
}

// Update replaces the content fields of a video. owner_uid and payment are
// never touched. When ownerGuard is non-empty the write only applies while
// the record still belongs to ownerGuard, has no pending deletion and is not
// paid; a failed guard reports ErrConflict.
func (r *VideoRepo) Update(ctx context.Context, id string, f model.VideoFields, ownerGuard string) error {
	q := `UPDATE videos SET channel = ?, video_link = ?, status = ?, price = ?, remarks = ?, brand = ?,
	             platform = ?, contact_info = ?, date = ?
	      WHERE id = ?`
	args := []any{f.Channel, f.VideoLink, f.Status, f.Price, f.Remarks, f.Brand, f.Platform, f.ContactInfo, f.Date, id}
	if ownerGuard != "" {
		q += " AND owner_uid = ? AND deletion_pending = 0 AND payment <> ?"
		args = append(args, ownerGuard, model.PaymentDone)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if err := expectRow(res); !errors.Is(err, ErrNotFound) || ownerGuard == "" {
		return err
	}
	// Nothing matched: tell a vanished record apart from a failed guard.
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// SetPayment updates the settlement state.
func (r *VideoRepo) SetPayment(ctx context.Context, id string, p model.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE videos SET payment = ? WHERE id = ?", p, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Delete removes a video together with any deletion request still pointing
// at it, in one transaction.
func (r *VideoRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
		if err != nil {
			return err
		}
		if err := expectRow(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM deletion_requests WHERE video_id = ?", id)
		return err
	})
}

// List returns the videos matching every set predicate of f, oldest first.
func (r *VideoRepo) List(ctx context.Context, f model.VideoFilter) ([]model.VideoRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerUID != "" {
		where = append(where, "owner_uid = ?")
		args = append(args, f.OwnerUID)
	}
	if f.Payment != "" {
		where = append(where, "payment = ?")
		args = append(args, f.Payment)
	}
	q := "SELECT " + videoCols + " FROM videos"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountByOwner counts videos whose owner_uid is uid.
func (r *VideoRepo) CountByOwner(ctx context.Context, uid string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos WHERE owner_uid = ?", uid).Scan(&n)
	return n, err
}

// CountByPayment counts videos in settlement state p.
func (r *VideoRepo) CountByPayment(ctx context.Context, p model.PaymentStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos WHERE payment = ?", p).Scan(&n)
	return n, err
}
