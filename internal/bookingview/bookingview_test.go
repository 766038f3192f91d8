package bookingview_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/bookingview"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestResolve(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")

	tests := []struct {
		name    string
		date    string
		clock   string
		want    time.Time
		wantErr error
	}{
		{
			name:  "plain date",
			date:  "2025-03-14",
			clock: "18:30",
			want:  time.Date(2025, 3, 14, 18, 30, 0, 0, la),
		},
		{
			name:  "ISO timestamp with Z keeps calendar day",
			date:  "2025-03-14T00:00:00.000Z",
			clock: "06:00",
			want:  time.Date(2025, 3, 14, 6, 0, 0, 0, la),
		},
		{
			name:  "seconds ignored",
			date:  "2025-03-14",
			clock: "07:15:59",
			want:  time.Date(2025, 3, 14, 7, 15, 0, 0, la),
		},
		{name: "missing time", date: "2025-03-14", clock: "", wantErr: bookingview.ErrMissingTime},
		{name: "bad hour", date: "2025-03-14", clock: "25:00", wantErr: bookingview.ErrInvalidTime},
		{name: "bad clock", date: "2025-03-14", clock: "noon", wantErr: bookingview.ErrInvalidTime},
		{name: "short date", date: "2025-3-1", clock: "10:00", wantErr: bookingview.ErrInvalidDate},
		{name: "impossible day", date: "2025-02-30", clock: "10:00", wantErr: bookingview.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bookingview.Resolve(tt.date, tt.clock, la)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			assert.Equal(t, tt.want.Day(), got.In(la).Day())
		})
	}
}

func TestClassify_EndTimeBoundary(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	// 17:00 venue time, which is already the next day in UTC
	now := time.Date(2025, 6, 10, 17, 0, 0, 0, la)

	bookings := []model.Booking{
		{ID: 1, ClassType: "weightlifting", Date: "2025-06-10T00:00:00.000Z", StartTime: "16:00", EndTime: "17:01"},
		{ID: 2, ClassType: "weightlifting", Date: "2025-06-10T00:00:00.000Z", StartTime: "16:00", EndTime: "16:59"},
		{ID: 3, ClassType: "weightlifting", Date: "2025-06-10", StartTime: "16:00", EndTime: "17:00"},
	}

	view := bookingview.Classify(bookings, now, la)

	require.Len(t, view.UpcomingGroup, 1)
	assert.Equal(t, int64(1), view.UpcomingGroup[0].ID)
	require.Len(t, view.PastGroup, 2)
	// ending exactly now is past
	assert.ElementsMatch(t, []int64{2, 3}, ids(view.PastGroup))
}

func TestClassify_Partitions(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	bookings := []model.Booking{
		{ID: 1, ClassType: "weightlifting", Date: "2025-06-11", StartTime: "09:00", EndTime: "10:00"},
		{ID: 2, ClassType: "weightlifting", Date: "2025-06-09", StartTime: "09:00", EndTime: "10:00"},
		{ID: 3, ClassType: model.ClassTypePrivate, Date: "2025-06-12", StartTime: "09:00", EndTime: "10:00"},
		{ID: 4, ClassType: model.ClassTypePrivateSession, Date: "2025-06-01", StartTime: "09:00", EndTime: "10:00"},
		{ID: 5, ClassType: "weightlifting", Date: "2025-06-11", StartTime: "09:00", EndTime: "10:00", Status: model.BookingStatusCancelled},
		{ID: 6, ClassType: model.ClassTypePrivate, Date: "2025-06-01", StartTime: "09:00", EndTime: "10:00", Status: model.BookingStatusCancelled},
		{ID: 7, ClassType: "mobility", Date: "2025-06-10", StartTime: "11:00", EndTime: "12:30", Status: "confirmed"},
	}

	view := bookingview.Classify(bookings, now, time.UTC)

	assert.Equal(t, []int64{7, 1}, ids(view.UpcomingGroup))
	assert.Equal(t, []int64{2}, ids(view.PastGroup))
	assert.Equal(t, []int64{3}, ids(view.UpcomingPrivate))
	assert.Equal(t, []int64{4}, ids(view.PastPrivate))
	assert.Equal(t, 2, view.CancelledCount)
	assert.Equal(t, 2, view.ActiveGroupCount())

	// every active booking lands in exactly one list, cancelled ones in none
	seen := map[int64]int{}
	for _, list := range [][]model.Booking{view.UpcomingGroup, view.PastGroup, view.UpcomingPrivate, view.PastPrivate} {
		for _, b := range list {
			seen[b.ID]++
		}
	}
	for _, b := range bookings {
		if b.IsCancelled() {
			assert.Zero(t, seen[b.ID], "cancelled booking %d listed", b.ID)
		} else {
			assert.Equal(t, 1, seen[b.ID], "booking %d", b.ID)
		}
	}
}

func TestClassify_MissingEndTimeFailsOpen(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	bookings := []model.Booking{
		{ID: 9, ClassType: "weightlifting", Date: "2020-01-01", StartTime: "09:00"},
	}

	view := bookingview.Classify(bookings, now, time.UTC)

	assert.Equal(t, []int64{9}, ids(view.UpcomingGroup))
	assert.Empty(t, view.PastGroup)
	assert.Equal(t, []int64{9}, view.NeedsReview)
}

func TestSort_Ordering(t *testing.T) {
	bookings := []model.Booking{
		{ID: 4, Date: "2025-06-12", StartTime: "09:00"},
		{ID: 2, Date: "2025-06-10", StartTime: "18:00"},
		{ID: 3, Date: "2025-06-10", StartTime: "07:00"},
		{ID: 1, Date: "2025-06-12", StartTime: "09:00"},
		{ID: 5, Date: "broken"},
		{ID: 6, Date: "2025-06-10"},
	}

	up := append([]model.Booking(nil), bookings...)
	bookingview.SortUpcoming(up, time.UTC)
	assert.Equal(t, []int64{6, 3, 2, 1, 4, 5}, ids(up))

	past := append([]model.Booking(nil), bookings...)
	bookingview.SortPast(past, time.UTC)
	assert.Equal(t, []int64{1, 4, 2, 3, 6, 5}, ids(past))
}

func TestClassify_SortedOutput(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	var bookings []model.Booking
	for i := 0; i < 20; i++ {
		day := 1 + (i*7)%28
		bookings = append(bookings, model.Booking{
			ID:        int64(i + 1),
			ClassType: "weightlifting",
			Date:      time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			StartTime: "08:00",
			EndTime:   "09:00",
		})
	}

	view := bookingview.Classify(bookings, now, time.UTC)

	for i := 1; i < len(view.UpcomingGroup); i++ {
		assert.LessOrEqual(t, view.UpcomingGroup[i-1].Date, view.UpcomingGroup[i].Date)
	}
	for i := 1; i < len(view.PastGroup); i++ {
		assert.GreaterOrEqual(t, view.PastGroup[i-1].Date, view.PastGroup[i].Date)
	}
}

func ids(bookings []model.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}
