// Package repository is the data-access gateway: one repository per
// table family, each a thin struct around *sql.DB with hand-written SQL.
// The sentinel errors below let handlers map failures to status codes
// with errors.Is.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller may not touch the row.
// Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals a uniqueness clash, such as a category slug that is
// already taken.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrInvalidStatus is returned when a booking status is outside the
// known set.  Handlers translate it into HTTP 400.
var ErrInvalidStatus = errors.New("invalid booking status")

// isDuplicate reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// affectedOrMissing turns a zero-row update into ErrNotFound unless the
// row exists and simply already held the written values.  MySQL reports
// changed rows, not matched ones.
func affectedOrMissing(ctx context.Context, db *sql.DB, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
