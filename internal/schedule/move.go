package schedule

import (
	"time"

	"github.com/iliyamo/yacht-charter/internal/model"
)

// MoveToDate returns a copy of b placed on day.  The clock time of the
// original start (in the start's own location) and the duration are
// preserved, as is the resource.  Only the year, month and day of day are
// used.
func MoveToDate(b model.Booking, day time.Time) model.Booking {
	loc := b.Start.Location()
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(),
		b.Start.Hour(), b.Start.Minute(), b.Start.Second(), b.Start.Nanosecond(), loc)

	moved := b
	moved.Start = start
	moved.End = start.Add(b.Duration())
	return moved
}

// Replace returns a new slice in which the booking with the same ID and
// source kind as updated is swapped for updated.  When no such booking is
// present, updated is appended.  The input slice is left untouched.
func Replace(bookings []model.Booking, updated model.Booking) []model.Booking {
	out := make([]model.Booking, 0, len(bookings)+1)
	found := false
	for _, b := range bookings {
		if b.ID == updated.ID && b.SourceKind == updated.SourceKind {
			out = append(out, updated)
			found = true
			continue
		}
		out = append(out, b)
	}
	if !found {
		out = append(out, updated)
	}
	return out
}

// MonthWindow returns the half-open interval [first day 00:00, first day
// of next month 00:00) in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}
