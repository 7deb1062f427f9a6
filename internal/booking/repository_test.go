package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/dentalops/clinic-platform/internal/schedule"
)

var slotDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func TestCreateCommitsEverythingInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("2025-06-02", "morning").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`count\(\*\) FILTER`).
		WithArgs(slotDate, schedule.SessionMorning).
		WillReturnRows(pgxmock.NewRows([]string{"visible", "total"}).AddRow(2, 3))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(slotDate, schedule.SessionMorning, 4,
			"Chen Mei", "A123456789", "F", 34, "0912345678").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(41), created))
	mock.ExpectExec("INSERT INTO appointment_symptoms").
		WithArgs(int64(41), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO likert_responses").
		WithArgs(int64(41), int64(1), 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO numeric_responses").
		WithArgs(int64(41), int64(9), "36.5").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "41", "appointment.created", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	appt, err := repo.Create(context.Background(), CreateParams{
		ClinicDate: slotDate,
		Session:    schedule.SessionMorning,
		Capacity:   10,
		Patient: Patient{
			Name: "Chen Mei", NationalID: "A123456789",
			Gender: "F", Age: 34, Phone: "0912345678",
		},
		SymptomIDs: []int64{2},
		Likert:     []LikertAnswer{{QuestionID: 1, Score: 5}},
		Numeric:    []NumericAnswer{{QuestionID: 9, Value: "36.5"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ID != 41 || appt.RegistrationNumber != 4 {
		t.Fatalf("unexpected appointment: %+v", appt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateRegistrationNumberCountsHiddenRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)
	created := time.Now().UTC()

	// One visible booking plus four hidden ones: capacity sees 1, the
	// ticket counter sees 5.
	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`count\(\*\) FILTER`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"visible", "total"}).AddRow(1, 5))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(slotDate, schedule.SessionEvening, 6,
			"Lin Wei", "B234567890", "M", 52, "0922333444").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(77), created))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	appt, err := repo.Create(context.Background(), CreateParams{
		ClinicDate: slotDate,
		Session:    schedule.SessionEvening,
		Capacity:   3,
		Patient: Patient{
			Name: "Lin Wei", NationalID: "B234567890",
			Gender: "M", Age: 52, Phone: "0922333444",
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.RegistrationNumber != 6 {
		t.Fatalf("expected ticket 6, got %d", appt.RegistrationNumber)
	}
}

func TestCreateRefusesFullSlot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`count\(\*\) FILTER`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"visible", "total"}).AddRow(3, 3))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), CreateParams{
		ClinicDate: slotDate,
		Session:    schedule.SessionMorning,
		Capacity:   3,
		Patient:    Patient{Name: "x", NationalID: "C345678901", Age: 20, Phone: "0"},
	})
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}
}

func TestHideEmitsDeletionEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments SET visible = FALSE").
		WithArgs(int64(41)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "41", "appointment.deleted", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Hide(context.Background(), 41); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHideUnknownAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithDB(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments SET visible = FALSE").
		WithArgs(int64(999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	if err := repo.Hide(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
