package schedule

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/model"
)

var day = time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func booking(id, resource string, start, end time.Time) model.Booking {
	return model.Booking{ID: id, ResourceName: resource, Start: start, End: end, SourceKind: model.SourceCharter}
}

func TestDetectConflicts_SingleBookingNeverConflicts(t *testing.T) {
	got := DetectConflicts([]model.Booking{booking("a", "Yacht1", at(9, 0), at(13, 0))})
	assert.Empty(t, got)
}

func TestDetectConflicts_Symmetric(t *testing.T) {
	a := booking("a", "Yacht1", at(9, 0), at(13, 0))
	b := booking("b", "Yacht1", at(12, 0), at(15, 0))

	forward := DetectConflicts([]model.Booking{a, b})
	backward := DetectConflicts([]model.Booking{b, a})

	assert.True(t, forward.Has("a"))
	assert.True(t, forward.Has("b"))
	assert.Equal(t, forward, backward)
}

func TestDetectConflicts_DifferentResourcesNeverConflict(t *testing.T) {
	a := booking("a", "Yacht1", at(9, 0), at(13, 0))
	b := booking("b", "Yacht2", at(9, 0), at(13, 0))
	assert.Empty(t, DetectConflicts([]model.Booking{a, b}))
}

func TestDetectConflicts_ResourceMatchIsCaseSensitive(t *testing.T) {
	a := booking("a", "Bavaria34", at(9, 0), at(13, 0))
	b := booking("b", "bavaria34", at(9, 0), at(13, 0))
	assert.Empty(t, DetectConflicts([]model.Booking{a, b}))
}

func TestDetectConflicts_HalfOpenBoundary(t *testing.T) {
	touching := []model.Booking{
		booking("a", "Yacht1", at(9, 0), at(13, 0)),
		booking("b", "Yacht1", at(13, 0), at(17, 0)),
	}
	assert.Empty(t, DetectConflicts(touching))

	overlapping := []model.Booking{
		booking("a", "Yacht1", at(9, 0), at(13, 1)),
		booking("b", "Yacht1", at(13, 0), at(17, 0)),
	}
	assert.Equal(t, []string{"a", "b"}, DetectConflicts(overlapping).IDs())
}

func TestDetectConflicts_ChainFlagsEveryMember(t *testing.T) {
	bookings := []model.Booking{
		booking("a", "Yacht1", at(9, 0), at(11, 0)),
		booking("b", "Yacht1", at(10, 0), at(13, 0)),
		booking("c", "Yacht1", at(12, 0), at(14, 0)),
	}
	require.False(t, Overlaps(bookings[0], bookings[2]))
	assert.Equal(t, []string{"a", "b", "c"}, DetectConflicts(bookings).IDs())
}

func TestDetectConflicts_Idempotent(t *testing.T) {
	bookings := []model.Booking{
		booking("a", "Yacht1", at(9, 0), at(11, 0)),
		booking("b", "Yacht1", at(10, 0), at(13, 0)),
		booking("c", "Yacht2", at(10, 0), at(13, 0)),
	}
	first := DetectConflicts(bookings)
	second := DetectConflicts(bookings)
	assert.Equal(t, first, second)
}

func TestDetectConflicts_DegenerateIntervals(t *testing.T) {
	bookings := []model.Booking{
		booking("zero", "Yacht1", at(10, 0), at(10, 0)),
		booking("inverted", "Yacht1", at(12, 0), at(9, 0)),
		booking("normal", "Yacht1", at(8, 0), at(18, 0)),
	}
	assert.NotPanics(t, func() {
		assert.Empty(t, DetectConflicts(bookings))
		assert.Empty(t, DetectConflictsSweep(bookings))
	})
}

func TestDetectConflicts_Bavaria34Scenario(t *testing.T) {
	bookings := []model.Booking{
		booking("morning", "Bavaria34", at(9, 0), at(12, 0)),
		booking("midday", "Bavaria34", at(11, 0), at(14, 0)),
		booking("evening", "Bavaria34", at(15, 0), at(18, 0)),
	}
	got := DetectConflicts(bookings)
	assert.Equal(t, []string{"midday", "morning"}, got.IDs())
	assert.False(t, got.Has("evening"))
}

func TestDetectConflictsSweep_MatchesPairwise(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	resources := []string{"Bavaria34", "Elan40", "Racing"}

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		bookings := make([]model.Booking, 0, n)
		for i := 0; i < n; i++ {
			start := at(rng.Intn(20), rng.Intn(4)*15)
			end := start.Add(time.Duration(rng.Intn(8)-1) * time.Hour)
			bookings = append(bookings, booking(
				fmt.Sprintf("r%d-%d", round, i),
				resources[rng.Intn(len(resources))],
				start, end,
			))
		}
		require.Equal(t, DetectConflicts(bookings), DetectConflictsSweep(bookings), "round %d", round)
	}
}

func TestDetectConflictsSweep_RepeatedIDsMatchPairwise(t *testing.T) {
	same := []model.Booking{
		booking("x", "Bavaria34", at(9, 0), at(12, 0)),
		booking("x", "Bavaria34", at(10, 0), at(11, 0)),
	}
	assert.Empty(t, DetectConflictsSweep(same))

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(10)
		bookings := make([]model.Booking, 0, n)
		for i := 0; i < n; i++ {
			start := at(rng.Intn(20), rng.Intn(4)*15)
			end := start.Add(time.Duration(rng.Intn(6)) * time.Hour)
			bookings = append(bookings, booking(fmt.Sprintf("id%d", rng.Intn(4)), "Bavaria34", start, end))
		}
		require.Equal(t, DetectConflicts(bookings), DetectConflictsSweep(bookings), "round %d", round)
	}
}

func TestConflictPairs(t *testing.T) {
	bookings := []model.Booking{
		booking("b", "Yacht1", at(10, 0), at(13, 0)),
		booking("a", "Yacht1", at(9, 0), at(11, 0)),
		booking("c", "Yacht1", at(12, 0), at(14, 0)),
		booking("x", "Yacht2", at(9, 0), at(14, 0)),
	}
	pairs := ConflictPairs(bookings)
	assert.Equal(t, []Pair{
		{A: "a", B: "b", Resource: "Yacht1"},
		{A: "b", B: "c", Resource: "Yacht1"},
	}, pairs)
}
