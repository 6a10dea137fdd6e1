package service

import (
	"fmt"
	"time"

	"github.com/iliyamo/yacht-charter/internal/model"
)

type demoSlot struct {
	day, startHour, hours int
	resource              string
	kind                  model.SourceKind
	status                model.BookingStatus
	customer              string
	guests                int
	priceCents            int64
}

// The first two Bavaria34 slots overlap on purpose so the fallback view
// shows how conflicts are rendered.
var demoSlots = []demoSlot{
	{3, 9, 3, "Bavaria34", model.SourceCharter, model.StatusConfirmed, "Anna Weber", 4, 89000},
	{3, 11, 3, "Bavaria34", model.SourceCharter, model.StatusPending, "Jonas Kraus", 6, 89000},
	{3, 15, 3, "Bavaria34", model.SourceCharter, model.StatusConfirmed, "Mia Schulz", 2, 89000},
	{8, 10, 8, "Elan40", model.SourceCharter, model.StatusConfirmed, "Lukas Wolf", 8, 145000},
	{12, 13, 3, model.RacingResource, model.SourceRacing, model.StatusConfirmed, "Team Nordwind", 5, 30000},
	{19, 9, 4, "Elan40", model.SourceCharter, model.StatusCancelled, "Eva Braun", 3, 120000},
	{24, 14, 2, model.RacingResource, model.SourceRacing, model.StatusPending, "Sailing Club Kiel", 6, 24000},
	{27, 9, 9, "Bavaria34", model.SourceCharter, model.StatusCompleted, "Paul Meier", 4, 160000},
}

// DemoBookings returns a fixed sample month used when the booking tables
// cannot be read.  IDs are prefixed "demo-" so they can never be mistaken
// for stored rows.
func DemoBookings(year int, month time.Month, loc *time.Location) []model.Booking {
	out := make([]model.Booking, 0, len(demoSlots))
	for i, s := range demoSlots {
		start := time.Date(year, month, s.day, s.startHour, 0, 0, 0, loc)
		out = append(out, model.Booking{
			ID:               fmt.Sprintf("demo-%d", i+1),
			ResourceName:     s.resource,
			Start:            start,
			End:              start.Add(time.Duration(s.hours) * time.Hour),
			CustomerName:     s.customer,
			CustomerEmail:    fmt.Sprintf("demo%d@example.com", i+1),
			ParticipantCount: s.guests,
			TotalPriceCents:  s.priceCents,
			Status:           s.status,
			SourceKind:       s.kind,
		})
	}
	return out
}
