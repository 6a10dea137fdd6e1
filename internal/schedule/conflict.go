// Package schedule holds the pure scheduling logic used by the admin
// calendar: overlap detection between bookings of the same resource and
// the interval translation applied when a booking is dragged to another
// day.  Nothing here performs I/O.
package schedule

import (
	"sort"

	"github.com/iliyamo/yacht-charter/internal/model"
)

// ConflictSet is the set of booking IDs involved in at least one
// overlapping pair.
type ConflictSet map[string]struct{}

// Has reports whether id is part of a conflict.
func (s ConflictSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members sorted ascending so responses are stable.
func (s ConflictSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pair is one conflicting couple of bookings.  A is the booking that
// starts first (ties broken by ID).
type Pair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Resource string `json:"resource"`
}

// Overlaps reports whether two bookings occupy the same resource at the
// same time.  Intervals are half-open, so a booking ending at 13:00 does
// not collide with one starting at 13:00.  Bookings with start >= end
// never overlap anything.
func Overlaps(a, b model.Booking) bool {
	if a.ResourceName != b.ResourceName {
		return false
	}
	if !a.Start.Before(a.End) || !b.Start.Before(b.End) {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// DetectConflicts compares every pair of bookings and returns the IDs of
// all bookings that overlap at least one other booking.  The window shown
// by the calendar is a single month, so the quadratic scan is fine.
func DetectConflicts(bookings []model.Booking) ConflictSet {
	out := ConflictSet{}
	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings); j++ {
			if bookings[i].ID == bookings[j].ID {
				continue
			}
			if Overlaps(bookings[i], bookings[j]) {
				out[bookings[i].ID] = struct{}{}
				out[bookings[j].ID] = struct{}{}
			}
		}
	}
	return out
}

// DetectConflictsSweep returns the same set as DetectConflicts in
// O(n log n): bookings are grouped by resource, sorted by start, and each
// booking is compared with the furthest end seen so far in its group.
// The sweep only compares a booking with one predecessor, which is wrong
// when two rows share an ID, so such input takes the pairwise path.
func DetectConflictsSweep(bookings []model.Booking) ConflictSet {
	seen := make(map[string]struct{}, len(bookings))
	valid := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if _, dup := seen[b.ID]; dup {
			return DetectConflicts(bookings)
		}
		seen[b.ID] = struct{}{}
		if b.Start.Before(b.End) {
			valid = append(valid, b)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].ResourceName != valid[j].ResourceName {
			return valid[i].ResourceName < valid[j].ResourceName
		}
		return valid[i].Start.Before(valid[j].Start)
	})

	out := ConflictSet{}
	for i := 0; i < len(valid); {
		j := i
		for j < len(valid) && valid[j].ResourceName == valid[i].ResourceName {
			j++
		}
		sweepGroup(valid[i:j], out)
		i = j
	}
	return out
}

// sweepGroup flags overlaps inside one resource group sorted by start.
// reach is the booking with the latest end among those already visited;
// a new booking starting before that end overlaps it.
func sweepGroup(group []model.Booking, out ConflictSet) {
	if len(group) == 0 {
		return
	}
	reach := group[0]
	for _, b := range group[1:] {
		if b.Start.Before(reach.End) {
			out[b.ID] = struct{}{}
			out[reach.ID] = struct{}{}
		}
		if b.End.After(reach.End) {
			reach = b
		}
	}
}

// ConflictPairs lists every overlapping pair sorted by ID.  Used by the
// conflict report, where admins need to see which bookings collide and
// not only that they do.
func ConflictPairs(bookings []model.Booking) []Pair {
	var pairs []Pair
	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings); j++ {
			a, b := bookings[i], bookings[j]
			if a.ID == b.ID || !Overlaps(a, b) {
				continue
			}
			if b.Start.Before(a.Start) || (b.Start.Equal(a.Start) && b.ID < a.ID) {
				a, b = b, a
			}
			pairs = append(pairs, Pair{A: a.ID, B: b.ID, Resource: a.ResourceName})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}
