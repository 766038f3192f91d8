package bookingview

import (
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
)

// View is the classified booking list for one client
type View struct {
	UpcomingGroup   []model.Booking `json:"upcoming_group"`
	PastGroup       []model.Booking `json:"past_group"`
	UpcomingPrivate []model.Booking `json:"upcoming_private"`
	PastPrivate     []model.Booking `json:"past_private"`
	CancelledCount  int             `json:"cancelled_count"`

	// NeedsReview holds ids of bookings whose end time could not be resolved.
	// They are listed as upcoming until someone fixes the record.
	NeedsReview []int64 `json:"needs_review,omitempty"`
}

// ActiveGroupCount is the number of non-cancelled group bookings
func (v *View) ActiveGroupCount() int {
	return len(v.UpcomingGroup) + len(v.PastGroup)
}

// Classify splits bookings into group/private and upcoming/past relative to now.
// Cancelled bookings only show up in CancelledCount. Output lists are sorted.
func Classify(bookings []model.Booking, now time.Time, loc *time.Location) View {
	view := View{
		UpcomingGroup:   []model.Booking{},
		PastGroup:       []model.Booking{},
		UpcomingPrivate: []model.Booking{},
		PastPrivate:     []model.Booking{},
	}

	for _, b := range bookings {
		if b.IsCancelled() {
			view.CancelledCount++
			continue
		}

		upcoming := true
		end, err := Resolve(b.Date, b.EndTime, loc)
		if err != nil {
			view.NeedsReview = append(view.NeedsReview, b.ID)
		} else {
			upcoming = end.After(now)
		}

		switch {
		case b.IsPrivate() && upcoming:
			view.UpcomingPrivate = append(view.UpcomingPrivate, b)
		case b.IsPrivate():
			view.PastPrivate = append(view.PastPrivate, b)
		case upcoming:
			view.UpcomingGroup = append(view.UpcomingGroup, b)
		default:
			view.PastGroup = append(view.PastGroup, b)
		}
	}

	SortUpcoming(view.UpcomingGroup, loc)
	SortUpcoming(view.UpcomingPrivate, loc)
	SortPast(view.PastGroup, loc)
	SortPast(view.PastPrivate, loc)

	return view
}
