// Package repository contains data access logic separated from the workflows.
// This file stores UserProfile documents (the `users` collection) keyed by
// identity id.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/campaign-tracker/internal/model"
)

// ProfileRepo encapsulates all queries against the users table.
type ProfileRepo struct {
	db *sql.DB
}

// NewProfileRepo constructs a ProfileRepo with the provided DB handle.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileCols = "uid, email, name, phone, role, suspended, approved, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (model.UserProfile, error) {
	var p model.UserProfile
	err := s.Scan(&p.UID, &p.Email, &p.Name, &p.Phone, &p.Role, &p.Suspended, &p.Approved, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Get fetches a profile by identity id. It returns ErrNotFound when the
// identity has never signed in or was removed.
func (r *ProfileRepo) Get(ctx context.Context, uid string) (model.UserProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, "SELECT "+profileCols+" FROM users WHERE uid = ?", uid))
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, ErrNotFound
	}
	return p, err
}

// CreateIfAbsent inserts p unless a profile with the same uid exists, then
// returns whatever is stored. created reports whether this call inserted it.
// INSERT IGNORE keeps two racing first sign-ins from failing or overwriting
// each other.
func (r *ProfileRepo) CreateIfAbsent(ctx context.Context, p model.UserProfile) (model.UserProfile, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO users (uid, email, name, phone, role, suspended, approved)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UID, p.Email, p.Name, p.Phone, p.Role, p.Suspended, p.Approved)
	if err != nil {
		return model.UserProfile{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.UserProfile{}, false, err
	}
	stored, err := r.Get(ctx, p.UID)
	return stored, n == 1, err
}

// List returns every profile ordered by creation.
func (r *ProfileRepo) List(ctx context.Context) ([]model.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+profileCols+" FROM users ORDER BY created_at, uid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByRole counts profiles holding role.
func (r *ProfileRepo) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", role).Scan(&n)
	return n, err
}

// SetRole updates the role and approved flag.
func (r *ProfileRepo) SetRole(ctx context.Context, uid string, role model.Role, approved bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role = ?, approved = ? WHERE uid = ?", role, approved, uid)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// SetSuspended toggles the suspended flag.
func (r *ProfileRepo) SetSuspended(ctx context.Context, uid string, suspended bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET suspended = ? WHERE uid = ?", suspended, uid)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// UpdateContact changes the self-editable fields.
func (r *ProfileRepo) UpdateContact(ctx context.Context, uid, name, phone string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET name = ?, phone = ? WHERE uid = ?", name, phone, uid)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Delete removes the profile. Videos owned by it are left in place.
func (r *ProfileRepo) Delete(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE uid = ?", uid)
	if err != nil {
		return err
	}
	return expectRow(res)
}
