// Package usage fans usage events out to every configured sink.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/observability"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// Sink is a named usage recorder.
type Sink struct {
	Name     string
	Recorder domain.UsageRecorder
}

// Fanout delivers each event to all sinks in order. One sink failing does not
// stop the others.
type Fanout struct {
	sinks []Sink
}

// NewFanout drops sinks with a nil recorder.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s.Recorder != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len reports the number of active sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// RecordUsage returns the joined sink errors.
func (f *Fanout) RecordUsage(ctx context.Context, ev domain.UsageEvent) error {
	lg := observability.LoggerFromContext(ctx)
	var errs []error
	for _, s := range f.sinks {
		if err := s.Recorder.RecordUsage(ctx, ev); err != nil {
			observability.UsageRecordFailed(s.Name)
			lg.Warn("usage sink failed",
				slog.String("sink", s.Name),
				slog.String("event_id", ev.ID),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
