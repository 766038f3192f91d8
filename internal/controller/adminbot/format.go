package adminbot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/bookingview"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/service"
)

// FormatClientList renders one line per client of the given page
func FormatClientList(clients []*model.Client, page, perPage int) string {
	if len(clients) == 0 {
		return "No clients yet."
	}

	from := min(page*perPage, len(clients))
	to := min(from+perPage, len(clients))

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Clients (%d)\n\n", len(clients))
	for _, c := range clients[from:to] {
		name := c.Name
		if name == "" {
			name = c.Email
		}
		fmt.Fprintf(&sb, "• %s <%s>\n  🏋️ %d left, %d booked · 🤝 %d private\n",
			name, c.Email,
			c.WeightliftingClassesRemaining, c.WeightliftingClassesBooked,
			c.PersonalTrainingSessionsRemaining,
		)
	}
	return sb.String()
}

// FormatOverview renders a client's counters and classified bookings
func FormatOverview(o *service.Overview, loc *time.Location) string {
	c := o.Client

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s <%s>\n", c.Name, c.Email)
	if c.Phone != "" {
		fmt.Fprintf(&sb, "📞 %s\n", c.Phone)
	}
	fmt.Fprintf(&sb, "\n🏋️ Weightlifting: %d left, %d booked\n", c.WeightliftingClassesRemaining, c.WeightliftingClassesBooked)
	fmt.Fprintf(&sb, "🤝 Private: %d left\n", c.PersonalTrainingSessionsRemaining)

	writeSection(&sb, "📅 Upcoming classes", o.View.UpcomingGroup, loc)
	writeSection(&sb, "📅 Upcoming private", o.View.UpcomingPrivate, loc)
	writeSection(&sb, "🕘 Past classes", o.View.PastGroup, loc)
	writeSection(&sb, "🕘 Past private", o.View.PastPrivate, loc)

	if o.View.CancelledCount > 0 {
		fmt.Fprintf(&sb, "\n❌ Cancelled: %d\n", o.View.CancelledCount)
	}
	if len(o.View.NeedsReview) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Need review (no end time): %v\n", o.View.NeedsReview)
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, bookings []model.Booking, loc *time.Location) {
	if len(bookings) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s\n", title)
	for _, b := range bookings {
		fmt.Fprintf(sb, "• %s %s\n", formatSlot(b, loc), b.ClassTitle)
	}
}

func formatSlot(b model.Booking, loc *time.Location) string {
	start, err := bookingview.Resolve(b.Date, b.StartTime, loc)
	if err != nil {
		return b.Date
	}
	slot := start.Format("Mon 02.01 15:04")
	if b.EndTime != "" {
		slot += "–" + b.EndTime
	}
	return slot
}
