package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dentalops/clinic-platform/internal/schedule"
)

type stubSchedules struct {
	rows map[int]schedule.WeeklySchedule
}

func (s stubSchedules) Get(_ context.Context, weekday int) (schedule.WeeklySchedule, error) {
	row, ok := s.rows[weekday]
	if !ok {
		return schedule.WeeklySchedule{}, schedule.ErrNotFound
	}
	return row, nil
}

type memCounters struct {
	values map[string]int
}

func newMemCounters() *memCounters {
	return &memCounters{values: map[string]int{}}
}

func (m *memCounters) key(date time.Time, s schedule.Session) string {
	return date.Format("2006-01-02") + "/" + string(s)
}

func (m *memCounters) GetOrCreate(_ context.Context, date time.Time, s schedule.Session) (Counter, error) {
	k := m.key(date, s)
	if _, ok := m.values[k]; !ok {
		m.values[k] = 0
	}
	return Counter{Date: date, Session: s, CurrentNumber: m.values[k]}, nil
}

func (m *memCounters) Increment(_ context.Context, date time.Time, s schedule.Session) (int, error) {
	k := m.key(date, s)
	m.values[k]++
	return m.values[k], nil
}

func (m *memCounters) Reset(_ context.Context, date time.Time, s schedule.Session) error {
	m.values[m.key(date, s)] = 0
	return nil
}

func (m *memCounters) Current(_ context.Context, date time.Time, s schedule.Session) (Counter, bool, error) {
	n, ok := m.values[m.key(date, s)]
	return Counter{Date: date, Session: s, CurrentNumber: n}, ok, nil
}

func mondaySchedule() stubSchedules {
	return stubSchedules{rows: map[int]schedule.WeeklySchedule{
		0: {
			Weekday:        0,
			MorningEnabled: true,
			MorningTime:    "09:00-12:00",
			AfternoonTime:  "14:00-17:30",
			EveningTime:    "18:30-21:00",
		},
	}}
}

// 2025-06-02 is a Monday.
func mondayAt(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func TestCallNextDuringOpenSession(t *testing.T) {
	counters := newMemCounters()
	svc := NewService(mondaySchedule(), counters, time.UTC, nil, nil)

	n, session, err := svc.CallNext(context.Background(), mondayAt(10, 0))
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if session != schedule.SessionMorning || n != 1 {
		t.Fatalf("expected morning #1, got %s #%d", session, n)
	}

	n, _, err = svc.CallNext(context.Background(), mondayAt(10, 5))
	if err != nil {
		t.Fatalf("second call next: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected #2, got #%d", n)
	}
}

func TestCallNextOutsideHours(t *testing.T) {
	counters := newMemCounters()
	svc := NewService(mondaySchedule(), counters, time.UTC, nil, nil)

	_, _, err := svc.CallNext(context.Background(), mondayAt(13, 0))
	if !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours, got %v", err)
	}
	if len(counters.values) != 0 {
		t.Fatal("no counter should be touched outside hours")
	}
}

func TestResetOutsideHoursIsRefused(t *testing.T) {
	counters := newMemCounters()
	svc := NewService(mondaySchedule(), counters, time.UTC, nil, nil)

	if _, err := svc.Reset(context.Background(), mondayAt(22, 0)); !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours, got %v", err)
	}
}

func TestResetZeroesWithoutDecrementing(t *testing.T) {
	counters := newMemCounters()
	svc := NewService(mondaySchedule(), counters, time.UTC, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, _, err := svc.CallNext(ctx, mondayAt(10, i)); err != nil {
			t.Fatalf("call next: %v", err)
		}
	}
	session, err := svc.Reset(ctx, mondayAt(10, 30))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if session != schedule.SessionMorning {
		t.Fatalf("expected morning reset, got %s", session)
	}

	status, err := svc.Status(ctx, mondayAt(10, 31))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CurrentNumber == nil || *status.CurrentNumber != 0 {
		t.Fatalf("expected current number 0 after reset, got %+v", status)
	}
}

func TestCallNextMissingScheduleRow(t *testing.T) {
	counters := newMemCounters()
	svc := NewService(stubSchedules{rows: map[int]schedule.WeeklySchedule{}}, counters, time.UTC, nil, nil)

	_, _, err := svc.CallNext(context.Background(), mondayAt(10, 0))
	if !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("missing schedule row should read as outside hours, got %v", err)
	}
}

func TestStatusClosedAndPreparing(t *testing.T) {
	counters := newMemCounters()
	svc := NewService(mondaySchedule(), counters, time.UTC, nil, nil)
	ctx := context.Background()

	status, err := svc.Status(ctx, mondayAt(7, 0))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Open {
		t.Fatal("expected closed before opening time")
	}

	status, err = svc.Status(ctx, mondayAt(9, 30))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Open || !status.Preparing {
		t.Fatalf("expected open+preparing before first call, got %+v", status)
	}
}
