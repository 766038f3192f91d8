// Command portalctl prints a client's classified bookings and purchases as
// seen through the portal API.
//
//	portalctl -url http://localhost:8080 -email jo@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/app"
	"github.com/Freeeeeet/coach_portal/internal/bookingview"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/portalclient"
	"go.uber.org/zap"
)

type options struct {
	baseURL  string
	email    string
	timeout  time.Duration
	attempts uint
	tz       string
	verbose  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", envOr("PORTAL_URL", "http://localhost:8080"), "portal API base url")
	flag.StringVar(&opts.email, "email", "", "client email")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.UintVar(&opts.attempts, "attempts", 3, "tries per request on network errors")
	flag.StringVar(&opts.tz, "tz", envOr("VENUE_TZ", "America/Los_Angeles"), "venue time zone")
	flag.BoolVar(&opts.verbose, "v", false, "log requests to stderr")
	flag.Parse()

	if opts.email == "" {
		fmt.Fprintln(os.Stderr, "portalctl: -email is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "portalctl: %s\n", model.ErrorMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		return model.NewValidationError("tz", err.Error())
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger = app.NewLogger("development", "stderr")
		defer logger.Sync()
	}

	client, err := portalclient.New(portalclient.Config{
		BaseURL:  opts.baseURL,
		Timeout:  opts.timeout,
		Attempts: opts.attempts,
		Logger:   logger,
	})
	if err != nil {
		return model.NewValidationError("url", err.Error())
	}

	// reads degrade to an empty list with a notice; only an unknown client is fatal
	bookings, err := client.ListBookings(ctx, opts.email)
	if errors.Is(err, model.ErrClientNotFound) {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "! bookings unavailable: %s\n\n", model.ErrorMessage(err))
		bookings = nil
	}

	purchases, err := client.ListPurchases(ctx, opts.email)
	if err != nil && !errors.Is(err, model.ErrClientNotFound) {
		fmt.Fprintf(out, "! purchases unavailable: %s\n\n", model.ErrorMessage(err))
		purchases = nil
	}

	view := bookingview.Classify(bookings, time.Now(), loc)
	printOverview(out, opts.email, view, purchases, loc)
	return nil
}

func printOverview(out io.Writer, email string, view bookingview.View, purchases []model.Purchase, loc *time.Location) {
	fmt.Fprintf(out, "%s (times in %s)\n", email, loc)

	printBookings(out, "Upcoming classes", view.UpcomingGroup)
	printBookings(out, "Upcoming private sessions", view.UpcomingPrivate)
	printBookings(out, "Past classes", view.PastGroup)
	printBookings(out, "Past private sessions", view.PastPrivate)

	fmt.Fprintf(out, "\nWeightlifting classes booked: %d\n", view.ActiveGroupCount())
	if view.CancelledCount > 0 {
		fmt.Fprintf(out, "Cancelled: %d\n", view.CancelledCount)
	}
	if len(view.NeedsReview) > 0 {
		ids := make([]string, len(view.NeedsReview))
		for i, id := range view.NeedsReview {
			ids[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(out, "Missing end time, shown as upcoming: %s\n", strings.Join(ids, ", "))
	}

	fmt.Fprintf(out, "\nPurchases\n")
	if len(purchases) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  DATE\tPACKAGE\tSESSIONS\tAMOUNT\tMETHOD\tSTATUS")
	for _, p := range purchases {
		fmt.Fprintf(w, "  %s\t%s\t%d %s\t$%s\t%s\t%s\n",
			p.PurchaseDate.In(loc).Format("2006-01-02"),
			p.PackageType,
			p.SessionsIncluded, p.SessionType,
			p.AmountPaid,
			p.PaymentMethod,
			p.PaymentStatus,
		)
	}
	w.Flush()
}

func printBookings(out io.Writer, title string, bookings []model.Booking) {
	fmt.Fprintf(out, "\n%s\n", title)
	if len(bookings) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, b := range bookings {
		fmt.Fprintf(w, "  #%d\t%s\t%s-%s\t%s\t%s\n", b.ID, b.Date, b.StartTime, b.EndTime, b.ClassTitle, b.Instructor)
	}
	w.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
