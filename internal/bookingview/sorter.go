package bookingview

import (
	"sort"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
)

type sortKey struct {
	start time.Time
	ok    bool
}

// startKey resolves the start boundary, falling back to the start of the day
// when start_time is missing. ok is false only when the date itself is broken.
func startKey(b model.Booking, loc *time.Location) sortKey {
	if t, err := Resolve(b.Date, b.StartTime, loc); err == nil {
		return sortKey{start: t, ok: true}
	}
	if t, err := ResolveDay(b.Date, loc); err == nil {
		return sortKey{start: t, ok: true}
	}
	return sortKey{}
}

// SortUpcoming orders bookings soonest first, ties by id
func SortUpcoming(bookings []model.Booking, loc *time.Location) {
	sortBookings(bookings, loc, true)
}

// SortPast orders bookings most recent first, ties by id
func SortPast(bookings []model.Booking, loc *time.Location) {
	sortBookings(bookings, loc, false)
}

func sortBookings(bookings []model.Booking, loc *time.Location, ascending bool) {
	keys := make([]sortKey, len(bookings))
	for i := range bookings {
		keys[i] = startKey(bookings[i], loc)
	}

	// sort an index permutation so keys stay attached to their booking
	idx := make([]int, len(bookings))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			// unresolvable dates go last
			return ka.ok
		}
		if ka.ok && !ka.start.Equal(kb.start) {
			if ascending {
				return ka.start.Before(kb.start)
			}
			return ka.start.After(kb.start)
		}
		return bookings[idx[a]].ID < bookings[idx[b]].ID
	})

	sorted := make([]model.Booking, len(bookings))
	for i, j := range idx {
		sorted[i] = bookings[j]
	}
	copy(bookings, sorted)
}
