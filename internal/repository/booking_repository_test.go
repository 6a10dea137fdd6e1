package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/model"
)

var charterHeader = []string{"id", "yacht_name", "start_at", "end_at", "customer_name", "customer_email",
	"customer_phone", "guests", "total_price_cents", "status", "created_at", "updated_at"}

var racingHeader = []string{"id", "boat_name", "booking_date", "start_time", "end_time", "customer_name",
	"customer_email", "customer_phone", "participants", "total_price_cents", "status", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestBookingRepo_ListWindowMergesBothTables(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	created := utc(2025, 6, 1, 8, 0)

	mock.ExpectQuery("FROM charter_bookings").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(charterHeader).
			AddRow("c1", "Bavaria34", utc(2025, 7, 14, 9, 0), utc(2025, 7, 14, 12, 0), "Anna", "anna@example.com",
				"+49 1", 4, int64(89000), "confirmed", created, created))
	mock.ExpectQuery("FROM racing_bookings").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(racingHeader).
			AddRow("r1", nil, utc(2025, 7, 14, 0, 0), "10:00:00", "13:30:00", "Ben", "ben@example.com",
				"", 6, int64(30000), "pending", created, created).
			AddRow("r2", "Elan40", utc(2025, 6, 30, 0, 0), "09:00:00", "11:00:00", "Cleo", "cleo@example.com",
				"", 2, int64(12000), "pending", created, created))

	got, err := repo.ListWindow(context.Background(), utc(2025, 7, 1, 0, 0), utc(2025, 8, 1, 0, 0))
	require.NoError(t, err)
	require.Len(t, got, 2, "r2 lies before the window")

	assert.Equal(t, model.SourceCharter, got[0].SourceKind)
	assert.Equal(t, model.StatusConfirmed, got[0].Status)
	assert.Equal(t, int64(89000), got[0].TotalPriceCents)

	racing := got[1]
	assert.Equal(t, "r1", racing.ID)
	assert.Equal(t, model.SourceRacing, racing.SourceKind)
	assert.Equal(t, model.RacingResource, racing.ResourceName)
	assert.Equal(t, utc(2025, 7, 14, 10, 0), racing.Start)
	assert.Equal(t, utc(2025, 7, 14, 13, 30), racing.End)
	assert.Equal(t, 6, racing.ParticipantCount)
}

func TestBookingRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM charter_bookings WHERE id = ").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(charterHeader))

	_, err := NewBookingRepo(db).GetByID(context.Background(), model.SourceCharter, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepo_GetByIDUnknownKind(t *testing.T) {
	db, _ := newMock(t)
	_, err := NewBookingRepo(db).GetByID(context.Background(), "ferry", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepo_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE racing_bookings SET status = ").
		WithArgs("cancelled", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewBookingRepo(db).UpdateStatus(context.Background(), model.SourceRacing, "r1", model.StatusCancelled)
	assert.NoError(t, err)
}

func TestBookingRepo_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	db, _ := newMock(t)
	err := NewBookingRepo(db).UpdateStatus(context.Background(), model.SourceCharter, "c1", "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBookingRepo_UpdateStatusMissingRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE charter_bookings SET status = ").
		WithArgs("confirmed", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM charter_bookings").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := NewBookingRepo(db).UpdateStatus(context.Background(), model.SourceCharter, "ghost", model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepo_UpdateStatusUnchangedRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE charter_bookings SET status = ").
		WithArgs("confirmed", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM charter_bookings").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := NewBookingRepo(db).UpdateStatus(context.Background(), model.SourceCharter, "c1", model.StatusConfirmed)
	assert.NoError(t, err)
}

func TestBookingRepo_UpdateIntervalRacingSplitsDateAndClock(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE racing_bookings SET booking_date = ").
		WithArgs(utc(2025, 7, 20, 0, 0), "22:00:00", "25:30:00", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewBookingRepo(db).UpdateInterval(context.Background(), model.SourceRacing, "r1",
		utc(2025, 7, 20, 22, 0), utc(2025, 7, 21, 1, 30))
	assert.NoError(t, err)
}

func TestBookingRepo_CreateCharterAssignsID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO charter_bookings").
		WithArgs(sqlmock.AnyArg(), "Bavaria34", sqlmock.AnyArg(), sqlmock.AnyArg(), "Anna", "anna@example.com",
			"", 4, int64(89000), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := &model.Booking{
		ResourceName:     "Bavaria34",
		Start:            utc(2025, 7, 14, 9, 0),
		End:              utc(2025, 7, 14, 12, 0),
		CustomerName:     "Anna",
		CustomerEmail:    "anna@example.com",
		ParticipantCount: 4,
		TotalPriceCents:  89000,
		SourceKind:       model.SourceCharter,
	}
	require.NoError(t, NewBookingRepo(db).Create(context.Background(), b))
	assert.Len(t, b.ID, 36)
	assert.Equal(t, model.StatusPending, b.Status)
}

func TestBookingRepo_ListByCustomerEmailNewestFirst(t *testing.T) {
	db, mock := newMock(t)
	created := utc(2025, 1, 1, 0, 0)
	mock.ExpectQuery("FROM charter_bookings WHERE LOWER").
		WithArgs("anna@example.com").
		WillReturnRows(sqlmock.NewRows(charterHeader).
			AddRow("c1", "Bavaria34", utc(2025, 5, 1, 9, 0), utc(2025, 5, 1, 12, 0), "Anna", "anna@example.com",
				"", 2, int64(1000), "completed", created, created))
	mock.ExpectQuery("FROM racing_bookings WHERE LOWER").
		WithArgs("anna@example.com").
		WillReturnRows(sqlmock.NewRows(racingHeader).
			AddRow("r1", "Elan40", utc(2025, 8, 2, 0, 0), "09:00:00", "11:00:00", "Anna", "anna@example.com",
				"", 2, int64(500), "pending", created, created))

	got, err := NewBookingRepo(db).ListByCustomerEmail(context.Background(), " Anna@Example.com ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "Elan40", got[0].ResourceName)
	assert.Equal(t, "c1", got[1].ID)
}

func TestParseClock(t *testing.T) {
	d, err := parseClock("09:30:15.500000")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute+15*time.Second+500*time.Millisecond, d)

	d, err = parseClock("26:00")
	require.NoError(t, err)
	assert.Equal(t, 26*time.Hour, d)

	_, err = parseClock("noon")
	assert.Error(t, err)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05:00", formatClock(9*time.Hour+5*time.Minute))
	assert.Equal(t, "25:30:00", formatClock(25*time.Hour+30*time.Minute))
	assert.Equal(t, "00:00:00", formatClock(-time.Hour))
}
