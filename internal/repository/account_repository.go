package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/campaign-tracker/internal/model"
)

// AccountRepo persists identity-provider accounts in the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id,email,password_hash,name,phone,created_at"

// Create inserts an account. The email is normalized before insert.
func (r *AccountRepo) Create(ctx context.Context, a model.Account) error {
	a.Email = normalizeEmail(a.Email)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (id, email, password_hash, name, phone) VALUES (?,?,?,?,?)",
		a.ID, a.Email, a.PasswordHash, a.Name, a.Phone)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.scanOne(ctx, "SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", normalizeEmail(email))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	return r.scanOne(ctx, "SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id)
}

// Delete removes the account. Missing accounts report ErrNotFound.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM accounts WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *AccountRepo) scanOne(ctx context.Context, q string, arg any) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Phone, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return a, err
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// isDuplicate reports a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// expectRow maps "no row matched" to ErrNotFound. The DSN sets
// clientFoundRows so unchanged-but-matched rows still count.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
