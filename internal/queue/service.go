package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dentalops/clinic-platform/internal/observability/metrics"
	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// ErrOutsideHours reports a call/reset attempt while no session is open.
var ErrOutsideHours = errors.New("queue: no session is open right now")

// ScheduleSource is the slice of the schedule registry the queue needs.
type ScheduleSource interface {
	Get(ctx context.Context, weekday int) (schedule.WeeklySchedule, error)
}

// CounterStore is the persistence surface for the per-slot counters.
type CounterStore interface {
	GetOrCreate(ctx context.Context, date time.Time, session schedule.Session) (Counter, error)
	Increment(ctx context.Context, date time.Time, session schedule.Session) (int, error)
	Reset(ctx context.Context, date time.Time, session schedule.Session) error
	Current(ctx context.Context, date time.Time, session schedule.Session) (Counter, bool, error)
}

// Service drives the front-desk call-number display. Every mutation
// re-resolves which session is open from the schedule and the wall clock,
// rather than trusting a client-supplied session, so a stale staff screen
// can never call or reset the wrong slot.
type Service struct {
	schedules ScheduleSource
	counters  CounterStore
	loc       *time.Location
	metrics   *metrics.ClinicMetrics
	logger    *logging.Logger
}

func NewService(schedules ScheduleSource, counters CounterStore, loc *time.Location, m *metrics.ClinicMetrics, logger *logging.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		schedules: schedules,
		counters:  counters,
		loc:       loc,
		metrics:   m,
		logger:    logger,
	}
}

// resolveNow maps the instant to (clinic-local date, open session).
func (s *Service) resolveNow(ctx context.Context, now time.Time) (time.Time, schedule.Session, error) {
	local := now.In(s.loc)
	row, err := s.schedules.Get(ctx, schedule.Weekday(local))
	if errors.Is(err, schedule.ErrNotFound) {
		// No row for today means the clinic is closed, not broken.
		return time.Time{}, "", ErrOutsideHours
	}
	if err != nil {
		return time.Time{}, "", fmt.Errorf("queue: load today's schedule: %w", err)
	}
	session, open := schedule.ResolveOpenSession(row, local)
	if !open {
		return time.Time{}, "", ErrOutsideHours
	}
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return date, session, nil
}

// CallNext advances the current session's counter and returns the number
// to announce. Refused with ErrOutsideHours when no session is open.
func (s *Service) CallNext(ctx context.Context, now time.Time) (int, schedule.Session, error) {
	date, session, err := s.resolveNow(ctx, now)
	if err != nil {
		return 0, "", err
	}
	n, err := s.counters.Increment(ctx, date, session)
	if err != nil {
		return 0, "", err
	}
	s.metrics.ObserveQueueCall(string(session), "called")
	s.logger.Info("called next number", "session", session, "number", n)
	return n, session, nil
}

// Reset zeroes the current session's counter. Refused with ErrOutsideHours
// when no session is open.
func (s *Service) Reset(ctx context.Context, now time.Time) (schedule.Session, error) {
	date, session, err := s.resolveNow(ctx, now)
	if err != nil {
		return "", err
	}
	if err := s.counters.Reset(ctx, date, session); err != nil {
		return "", err
	}
	s.metrics.ObserveQueueCall(string(session), "reset")
	s.logger.Info("reset call number", "session", session)
	return session, nil
}

// Status describes the public waiting-room display.
type Status struct {
	Open          bool             `json:"open"`
	Session       schedule.Session `json:"session,omitempty"`
	CurrentNumber *int             `json:"current_number,omitempty"`
	// Preparing is set when a session is open but nobody has been called
	// yet, so the display can show "preparing" instead of zero.
	Preparing bool `json:"preparing,omitempty"`
}

// Status reports whether a session is open right now and, if so, the
// latest called number. It never creates a counter.
func (s *Service) Status(ctx context.Context, now time.Time) (Status, error) {
	date, session, err := s.resolveNow(ctx, now)
	if errors.Is(err, ErrOutsideHours) {
		return Status{Open: false}, nil
	}
	if err != nil {
		return Status{}, err
	}
	c, exists, err := s.counters.Current(ctx, date, session)
	if err != nil {
		return Status{}, err
	}
	if !exists {
		return Status{Open: true, Session: session, Preparing: true}, nil
	}
	return Status{Open: true, Session: session, CurrentNumber: &c.CurrentNumber}, nil
}
