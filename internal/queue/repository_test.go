package queue

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/dentalops/clinic-platform/internal/schedule"
)

func TestRepositoryIncrementIsSingleStatement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO queue_counters").
		WithArgs(date, "morning").
		WillReturnRows(pgxmock.NewRows([]string{"current_number"}).AddRow(4))

	n, err := repo.Increment(context.Background(), date, schedule.SessionMorning)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRepositoryCurrentMissingCounter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT current_number FROM queue_counters").
		WithArgs(date, "evening").
		WillReturnRows(pgxmock.NewRows([]string{"current_number"}))

	_, exists, err := repo.Current(context.Background(), date, schedule.SessionEvening)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if exists {
		t.Fatal("expected no counter yet")
	}
}

func TestRepositoryReset(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO queue_counters").
		WithArgs(date, "morning").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Reset(context.Background(), date, schedule.SessionMorning); err != nil {
		t.Fatalf("reset: %v", err)
	}
}
