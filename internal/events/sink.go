// Package events delivers committed purchase changes to the outside world:
// a Kafka topic for downstream consumers and a Telegram chat for the coach.
package events

import (
	"context"
	"errors"

	"github.com/Freeeeeet/coach_portal/internal/metrics"
	"github.com/Freeeeeet/coach_portal/internal/model"
)

// Publisher is one delivery target
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event model.PurchaseEvent) error
}

// Sink fans an event out to every configured publisher. A failing target does
// not stop delivery to the others; all failures are joined into the result.
type Sink struct {
	publishers []Publisher
}

func NewSink(publishers ...Publisher) *Sink {
	var ps []Publisher
	for _, p := range publishers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Sink{publishers: ps}
}

// Len returns the number of configured targets
func (s *Sink) Len() int {
	return len(s.publishers)
}

func (s *Sink) Publish(ctx context.Context, event model.PurchaseEvent) error {
	var errs []error
	for _, p := range s.publishers {
		if err := p.Publish(ctx, event); err != nil {
			metrics.EventsPublished.WithLabelValues(p.Name(), "error").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.EventsPublished.WithLabelValues(p.Name(), "ok").Inc()
	}
	return errors.Join(errs...)
}
