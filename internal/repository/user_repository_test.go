package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/model"
	"github.com/iliyamo/yacht-charter/internal/utils"
)

var userHeader = []string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

func TestUserRepo_CreateNormalizesEmailAndHashes(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("skipper@example.com", sqlmock.AnyArg(), model.RoleCustomer).
		WillReturnResult(sqlmock.NewResult(12, 1))

	id, err := NewUserRepo(db).Create(context.Background(), "  Skipper@Example.COM ", "windward1", model.RoleCustomer, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), "a@example.com", "windward1", model.RoleCustomer, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	ts := utc(2025, 1, 2, 3, 4)
	hash, err := utils.HashPassword("windward1", 4)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email=").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userHeader).AddRow(3, "a@example.com", hash, model.RoleAdmin, true, ts, ts))
	mock.ExpectQuery("FROM users WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(userHeader))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "A@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "windward1"))

	_, err = repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_EnsureAdmin(t *testing.T) {
	db, mock := newMock(t)
	ts := utc(2025, 1, 2, 3, 4)

	// first start: no account yet
	mock.ExpectQuery("FROM users WHERE email=").WithArgs("admin@example.com").WillReturnRows(sqlmock.NewRows(userHeader))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("admin@example.com", sqlmock.AnyArg(), model.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// later starts leave it alone
	mock.ExpectQuery("FROM users WHERE email=").WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(userHeader).AddRow(1, "admin@example.com", "x", model.RoleAdmin, true, ts, ts))
	mock.ExpectQuery("FROM users WHERE email=").WillReturnError(errors.New("db down"))

	repo := NewUserRepo(db)
	created, err := repo.EnsureAdmin(context.Background(), "admin@example.com", "harbour-master", 4)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.EnsureAdmin(context.Background(), "admin@example.com", "harbour-master", 4)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.EnsureAdmin(context.Background(), "admin@example.com", "harbour-master", 4)
	assert.EqualError(t, err, "db down")
}

var tokenHeader = []string{"user_id", "expires_at", "revoked_at"}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs("live").
		WillReturnRows(sqlmock.NewRows(tokenHeader).AddRow(7, future, nil))
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(tokenHeader).AddRow(7, past, nil))
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(tokenHeader).AddRow(7, future, past))
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(tokenHeader))

	repo := NewTokenRepo(db)
	id, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	for _, h := range []string{"expired", "revoked", "unknown"} {
		_, err := repo.ValidateRefresh(context.Background(), h)
		assert.ErrorIs(t, err, ErrTokenInvalid, h)
	}
}

func TestTokenRepo_Rotate(t *testing.T) {
	db, mock := newMock(t)
	exp := utc(2030, 1, 1, 0, 0)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs("old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs(uint64(7), "new", exp).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewTokenRepo(db).Rotate(context.Background(), 7, "old", "new", exp))
}

func TestTokenRepo_RotateSpentToken(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs("old").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewTokenRepo(db).Rotate(context.Background(), 7, "old", "new", time.Now())
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRepo_RevokeAndPurge(t *testing.T) {
	db, mock := newMock(t)
	cutoff := utc(2025, 5, 1, 0, 0)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE token_hash=").WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE user_id=").WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at <").WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))

	repo := NewTokenRepo(db)
	require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 7))
	n, err := repo.PurgeExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
