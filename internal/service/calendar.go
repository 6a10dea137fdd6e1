// Package service holds the back office use cases.  Services depend on
// small interfaces so handlers and tests can swap the backing stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/model"
	"github.com/iliyamo/yacht-charter/internal/queue"
	"github.com/iliyamo/yacht-charter/internal/repository"
	"github.com/iliyamo/yacht-charter/internal/schedule"
)

// BookingStore is the slice of repository.BookingRepo the calendar needs.
type BookingStore interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]model.Booking, error)
	GetByID(ctx context.Context, kind model.SourceKind, id string) (model.Booking, error)
	Create(ctx context.Context, b *model.Booking) error
	UpdateStatus(ctx context.Context, kind model.SourceKind, id string, status model.BookingStatus) error
	UpdateInterval(ctx context.Context, kind model.SourceKind, id string, start, end time.Time) error
}

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	PublishBookingChanged(ctx context.Context, ev queue.BookingChangedEvent) error
}

var (
	// ErrTransitionNotAllowed is returned when the active policy rejects a
	// status change.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	// ErrInvalidWindow is returned for an empty, inverted or oversized
	// report window.
	ErrInvalidWindow = errors.New("invalid date window")
	// ErrInvalidBooking is returned when a new booking fails validation.
	ErrInvalidBooking = errors.New("invalid booking")
)

// maxReportWindow bounds the conflict report.
const maxReportWindow = 366 * 24 * time.Hour

// TransitionPolicy decides whether a booking may go from one status to
// another.
type TransitionPolicy interface {
	Allow(from, to model.BookingStatus) bool
}

// AnyTransition lets every known status replace every other.  It is the
// default: admins correct mistakes by setting the status directly.
type AnyTransition struct{}

func (AnyTransition) Allow(_, to model.BookingStatus) bool { return to.Valid() }

// StrictTransitions only allows the forward lifecycle
// pending -> confirmed -> completed, with cancellation from the two open
// states.  Setting the current status again is always allowed.
type StrictTransitions struct{}

var strictNext = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
}

func (StrictTransitions) Allow(from, to model.BookingStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range strictNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PolicyByName maps the BOOKING_TRANSITIONS setting to a policy.
func PolicyByName(name string) TransitionPolicy {
	if strings.EqualFold(strings.TrimSpace(name), "strict") {
		return StrictTransitions{}
	}
	return AnyTransition{}
}

// MonthView is what the admin calendar renders for one month.
type MonthView struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Bookings  []model.Booking `json:"bookings"`
	Conflicts []string        `json:"conflicts"`
	Demo      bool            `json:"demo,omitempty"`
}

// MoveResult is returned after a drag-move: the stored booking and the
// recomputed month it landed in.
type MoveResult struct {
	Booking model.Booking `json:"booking"`
	Month   *MonthView    `json:"month,omitempty"`
}

// CalendarService backs the admin calendar, the public booking form and
// the customer dashboard.
type CalendarService struct {
	Bookings     BookingStore
	Events       EventPublisher
	Policy       TransitionPolicy
	Location     *time.Location
	DemoFallback bool
	Logger       echo.Logger

	now func() time.Time
}

// NewCalendarService returns a service with the unrestricted transition
// policy and month windows in UTC.
func NewCalendarService(store BookingStore, events EventPublisher, logger echo.Logger) *CalendarService {
	return &CalendarService{
		Bookings: store,
		Events:   events,
		Policy:   AnyTransition{},
		Location: time.UTC,
		Logger:   logger,
		now:      time.Now,
	}
}

func (s *CalendarService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Month loads both booking tables for the month and flags conflicts.  When
// loading fails and the demo fallback is on, the sample data set is shown
// instead and the view is marked Demo.
func (s *CalendarService) Month(ctx context.Context, year int, month time.Month) (MonthView, error) {
	if month < time.January || month > time.December || year < 1970 || year > 9999 {
		return MonthView{}, ErrInvalidWindow
	}
	from, to := schedule.MonthWindow(year, month, s.loc())
	view := MonthView{Year: year, Month: int(month), From: from, To: to}

	list, err := s.Bookings.ListWindow(ctx, from, to)
	if err != nil {
		s.Logger.Errorf("calendar: load %04d-%02d failed: %v", year, month, err)
		if !s.DemoFallback || ctx.Err() != nil {
			return MonthView{}, fmt.Errorf("load bookings: %w", err)
		}
		list = DemoBookings(year, month, s.loc())
		view.Demo = true
	}

	for i := range list {
		list[i].Start = list[i].Start.In(s.loc())
		list[i].End = list[i].End.In(s.loc())
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
	if list == nil {
		list = []model.Booking{}
	}
	view.Bookings = list
	view.Conflicts = schedule.DetectConflicts(list).IDs()
	return view, nil
}

// Move places the booking on day keeping its clock time and duration,
// stores it, and recomputes conflicts for the month it landed in.  The
// recomputation is best effort: the move itself has already succeeded.
func (s *CalendarService) Move(ctx context.Context, kind model.SourceKind, id string, day time.Time, actor uint64) (MoveResult, error) {
	b, err := s.Bookings.GetByID(ctx, kind, id)
	if err != nil {
		s.Logger.Errorf("calendar: load booking %s/%s for move failed: %v", kind, id, err)
		return MoveResult{}, err
	}
	b.Start, b.End = b.Start.In(s.loc()), b.End.In(s.loc())
	moved := schedule.MoveToDate(b, day.In(s.loc()))

	if err := s.Bookings.UpdateInterval(ctx, kind, id, moved.Start, moved.End); err != nil {
		s.Logger.Errorf("calendar: move booking %s/%s failed: %v", kind, id, err)
		return MoveResult{}, err
	}
	s.publish(ctx, queue.ActionMoved, moved, b.Status, b.Start, actor)

	res := MoveResult{Booking: moved}
	view, err := s.Month(ctx, moved.Start.Year(), moved.Start.Month())
	if err != nil {
		s.Logger.Warnf("calendar: refresh after move of %s failed: %v", id, err)
		return res, nil
	}
	res.Month = &view
	return res, nil
}

// SetStatus changes the booking's status if the policy allows it.
func (s *CalendarService) SetStatus(ctx context.Context, kind model.SourceKind, id string, status model.BookingStatus, actor uint64) (model.Booking, error) {
	if !status.Valid() {
		return model.Booking{}, repository.ErrInvalidStatus
	}
	b, err := s.Bookings.GetByID(ctx, kind, id)
	if err != nil {
		s.Logger.Errorf("calendar: load booking %s/%s failed: %v", kind, id, err)
		return model.Booking{}, err
	}
	if !s.policy().Allow(b.Status, status) {
		return model.Booking{}, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, b.Status, status)
	}
	if err := s.Bookings.UpdateStatus(ctx, kind, id, status); err != nil {
		s.Logger.Errorf("calendar: set status of %s/%s failed: %v", kind, id, err)
		return model.Booking{}, err
	}
	prev := b.Status
	b.Status = status
	b.UpdatedAt = s.now().UTC()
	s.publish(ctx, queue.ActionStatus, b, prev, time.Time{}, actor)
	return b, nil
}

// Conflicts lists every conflicting pair of bookings in [from, to).
func (s *CalendarService) Conflicts(ctx context.Context, from, to time.Time) ([]schedule.Pair, error) {
	if !from.Before(to) || to.Sub(from) > maxReportWindow {
		return nil, ErrInvalidWindow
	}
	list, err := s.Bookings.ListWindow(ctx, from, to)
	if err != nil {
		s.Logger.Errorf("calendar: conflict report load failed: %v", err)
		return nil, err
	}
	pairs := schedule.ConflictPairs(list)
	if pairs == nil {
		pairs = []schedule.Pair{}
	}
	return pairs, nil
}

// CreateBooking validates and stores a booking from the public form.
// Overlaps are accepted; they show up as conflicts in the admin calendar.
func (s *CalendarService) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := validateNewBooking(b); err != nil {
		return err
	}
	b.ID = ""
	b.Status = model.StatusPending
	if err := s.Bookings.Create(ctx, b); err != nil {
		s.Logger.Errorf("calendar: create %s booking failed: %v", b.SourceKind, err)
		return err
	}
	s.publish(ctx, queue.ActionCreated, *b, "", time.Time{}, 0)
	return nil
}

// CustomerBookings lists the bookings placed under email.
func (s *CalendarService) CustomerBookings(ctx context.Context, email string) ([]model.Booking, error) {
	list, err := s.Bookings.ListByCustomerEmail(ctx, email)
	if err != nil {
		s.Logger.Errorf("calendar: customer bookings failed: %v", err)
		return nil, err
	}
	if list == nil {
		list = []model.Booking{}
	}
	return list, nil
}

func validateNewBooking(b *model.Booking) error {
	b.ResourceName = strings.TrimSpace(b.ResourceName)
	b.CustomerName = strings.TrimSpace(b.CustomerName)
	b.CustomerEmail = strings.ToLower(strings.TrimSpace(b.CustomerEmail))
	switch {
	case !b.SourceKind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidBooking, b.SourceKind)
	case !b.Start.Before(b.End):
		return fmt.Errorf("%w: start must be before end", ErrInvalidBooking)
	case b.ParticipantCount < 1:
		return fmt.Errorf("%w: participant count must be positive", ErrInvalidBooking)
	case b.TotalPriceCents < 0:
		return fmt.Errorf("%w: total price must not be negative", ErrInvalidBooking)
	case b.SourceKind == model.SourceCharter && b.ResourceName == "":
		return fmt.Errorf("%w: yacht required", ErrInvalidBooking)
	}
	if b.SourceKind == model.SourceRacing && b.ResourceName == "" {
		b.ResourceName = model.RacingResource
	}
	return nil
}

func (s *CalendarService) policy() TransitionPolicy {
	if s.Policy == nil {
		return AnyTransition{}
	}
	return s.Policy
}

// publish sends the event without failing the caller.
func (s *CalendarService) publish(ctx context.Context, action string, b model.Booking, prev model.BookingStatus, prevStart time.Time, actor uint64) {
	if s.Events == nil {
		return
	}
	ev := queue.BookingChangedEvent{
		BookingID:     b.ID,
		SourceKind:    string(b.SourceKind),
		Action:        action,
		ResourceName:  b.ResourceName,
		Status:        string(b.Status),
		PrevStatus:    string(prev),
		Start:         b.Start.UTC(),
		End:           b.End.UTC(),
		CustomerEmail: b.CustomerEmail,
		ActorID:       actor,
		OccurredAt:    s.now().UTC(),
	}
	if !prevStart.IsZero() && !prevStart.Equal(b.Start) {
		ev.PrevStart = prevStart.UTC()
	}
	if err := s.Events.PublishBookingChanged(context.WithoutCancel(ctx), ev); err != nil {
		s.Logger.Warnf("calendar: publish %s for %s failed: %v", action, b.ID, err)
	}
}
