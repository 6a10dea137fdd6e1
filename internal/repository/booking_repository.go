package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/yacht-charter/internal/model"
)

// BookingRepo reads and updates bookings across the two booking tables.
// charter_bookings stores full DATETIME intervals; racing_bookings stores a
// DATE plus TIME-of-day columns and an optional boat.  Both are exposed as
// model.Booking so the calendar sees one list.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const charterCols = `id, yacht_name, start_at, end_at, customer_name, customer_email, customer_phone,
	guests, total_price_cents, status, created_at, updated_at`

const racingCols = `id, boat_name, booking_date, start_time, end_time, customer_name, customer_email,
	customer_phone, participants, total_price_cents, status, created_at, updated_at`

// ListWindow returns every booking of both tables that intersects
// [from, to).  Rows with an inverted interval are returned when they start
// inside the window so the calendar still shows them.
func (r *BookingRepo) ListWindow(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	from, to = from.UTC(), to.UTC()

	q := `SELECT ` + charterCols + ` FROM charter_bookings
		WHERE (start_at < ? AND end_at > ?) OR (start_at >= ? AND start_at < ?)
		ORDER BY start_at`
	out, err := r.queryCharter(ctx, q, to, from, from, to)
	if err != nil {
		return nil, err
	}

	// Racing rows are selected by date, then filtered to the exact window.
	rq := `SELECT ` + racingCols + ` FROM racing_bookings
		WHERE booking_date >= ? AND booking_date <= ?
		ORDER BY booking_date, start_time`
	racing, err := r.queryRacing(ctx, rq, dateOnly(from).AddDate(0, 0, -1), dateOnly(to))
	if err != nil {
		return nil, err
	}
	for _, b := range racing {
		if inWindow(b, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListByCustomerEmail returns the bookings placed with email, newest first.
func (r *BookingRepo) ListByCustomerEmail(ctx context.Context, email string) ([]model.Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	out, err := r.queryCharter(ctx,
		`SELECT `+charterCols+` FROM charter_bookings WHERE LOWER(customer_email) = ?`, email)
	if err != nil {
		return nil, err
	}
	racing, err := r.queryRacing(ctx,
		`SELECT `+racingCols+` FROM racing_bookings WHERE LOWER(customer_email) = ?`, email)
	if err != nil {
		return nil, err
	}
	out = append(out, racing...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out, nil
}

// GetByID loads one booking from the table named by kind.
func (r *BookingRepo) GetByID(ctx context.Context, kind model.SourceKind, id string) (model.Booking, error) {
	var (
		list []model.Booking
		err  error
	)
	switch kind {
	case model.SourceCharter:
		list, err = r.queryCharter(ctx, `SELECT `+charterCols+` FROM charter_bookings WHERE id = ? LIMIT 1`, id)
	case model.SourceRacing:
		list, err = r.queryRacing(ctx, `SELECT `+racingCols+` FROM racing_bookings WHERE id = ? LIMIT 1`, id)
	default:
		return model.Booking{}, fmt.Errorf("unknown booking kind %q: %w", kind, ErrNotFound)
	}
	if err != nil {
		return model.Booking{}, err
	}
	if len(list) == 0 {
		return model.Booking{}, ErrNotFound
	}
	return list[0], nil
}

// Create inserts b into the table named by b.SourceKind.  A UUID is
// assigned when b.ID is empty and the status defaults to pending.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}
	b.Start, b.End = b.Start.UTC(), b.End.UTC()

	var err error
	switch b.SourceKind {
	case model.SourceCharter:
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO charter_bookings (id, yacht_name, start_at, end_at, customer_name, customer_email,
				customer_phone, guests, total_price_cents, status) VALUES (?,?,?,?,?,?,?,?,?,?)`,
			b.ID, b.ResourceName, b.Start, b.End, b.CustomerName, b.CustomerEmail,
			b.CustomerPhone, b.ParticipantCount, b.TotalPriceCents, string(b.Status))
	case model.SourceRacing:
		day := dateOnly(b.Start)
		var boat sql.NullString
		if b.ResourceName != "" && b.ResourceName != model.RacingResource {
			boat = sql.NullString{String: b.ResourceName, Valid: true}
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO racing_bookings (id, boat_name, booking_date, start_time, end_time, customer_name,
				customer_email, customer_phone, participants, total_price_cents, status) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			b.ID, boat, day, formatClock(b.Start.Sub(day)), formatClock(b.End.Sub(day)), b.CustomerName,
			b.CustomerEmail, b.CustomerPhone, b.ParticipantCount, b.TotalPriceCents, string(b.Status))
	default:
		return fmt.Errorf("unknown booking kind %q", b.SourceKind)
	}
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// UpdateStatus writes status to the row in the table named by kind.  Any
// known status may replace any other here; restrictions live in the
// service layer.
func (r *BookingRepo) UpdateStatus(ctx context.Context, kind model.SourceKind, id string, status model.BookingStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, table, id)
}

// UpdateInterval moves the row to [start, end).  For racing rows the date
// column takes the start's UTC date and both clock columns are stored
// relative to it, so an end past midnight is kept as a TIME above 24h.
func (r *BookingRepo) UpdateInterval(ctx context.Context, kind model.SourceKind, id string, start, end time.Time) error {
	start, end = start.UTC(), end.UTC()
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	var res sql.Result
	switch kind {
	case model.SourceCharter:
		res, err = r.db.ExecContext(ctx,
			`UPDATE charter_bookings SET start_at = ?, end_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			start, end, id)
	case model.SourceRacing:
		day := dateOnly(start)
		res, err = r.db.ExecContext(ctx,
			`UPDATE racing_bookings SET booking_date = ?, start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			day, formatClock(start.Sub(day)), formatClock(end.Sub(day)), id)
	}
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, table, id)
}

func (r *BookingRepo) queryCharter(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var (
			b      model.Booking
			status string
		)
		if err := rows.Scan(&b.ID, &b.ResourceName, &b.Start, &b.End, &b.CustomerName, &b.CustomerEmail,
			&b.CustomerPhone, &b.ParticipantCount, &b.TotalPriceCents, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Status = model.BookingStatus(status)
		b.SourceKind = model.SourceCharter
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookingRepo) queryRacing(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var (
			b                model.Booking
			boat             sql.NullString
			day              time.Time
			startTxt, endTxt string
			status           string
		)
		if err := rows.Scan(&b.ID, &boat, &day, &startTxt, &endTxt, &b.CustomerName, &b.CustomerEmail,
			&b.CustomerPhone, &b.ParticipantCount, &b.TotalPriceCents, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		startOff, err := parseClock(startTxt)
		if err != nil {
			return nil, fmt.Errorf("racing booking %s: %w", b.ID, err)
		}
		endOff, err := parseClock(endTxt)
		if err != nil {
			return nil, fmt.Errorf("racing booking %s: %w", b.ID, err)
		}
		day = dateOnly(day)
		b.Start = day.Add(startOff)
		b.End = day.Add(endOff)
		b.ResourceName = model.RacingResource
		if boat.Valid && strings.TrimSpace(boat.String) != "" {
			b.ResourceName = boat.String
		}
		b.Status = model.BookingStatus(status)
		b.SourceKind = model.SourceRacing
		out = append(out, b)
	}
	return out, rows.Err()
}

func tableFor(kind model.SourceKind) (string, error) {
	switch kind {
	case model.SourceCharter:
		return "charter_bookings", nil
	case model.SourceRacing:
		return "racing_bookings", nil
	}
	return "", fmt.Errorf("unknown booking kind %q: %w", kind, ErrNotFound)
}

func inWindow(b model.Booking, from, to time.Time) bool {
	if !b.Start.Before(b.End) {
		return !b.Start.Before(from) && b.Start.Before(to)
	}
	return b.Start.Before(to) && b.End.After(from)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseClock reads a MySQL TIME value ("HH:MM:SS" with optional fraction,
// hours may exceed 23) as an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad TIME value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad TIME value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad TIME value %q", s)
	}
	var sec float64
	if len(parts) == 3 {
		if sec, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0, fmt.Errorf("bad TIME value %q", s)
		}
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), nil
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}
