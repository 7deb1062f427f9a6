package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/internal/schedule"
)

type ledgerDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository owns the appointment ledger. All writes that must hold
// together (the appointment row, its symptom links, its survey responses,
// and the outbox event) run in one transaction.
type Repository struct {
	db ledgerDB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithDB(db ledgerDB) *Repository {
	return &Repository{db: db}
}

// CountVisible returns how many live bookings occupy a slot. Hidden rows do
// not count against capacity.
func (r *Repository) CountVisible(ctx context.Context, date time.Time, session schedule.Session) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM appointments
		WHERE clinic_date = $1 AND session = $2 AND visible`, date, session).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("booking: count visible: %w", err)
	}
	return n, nil
}

// IsDuplicate reports whether the slot already holds a booking for the
// national id, hidden rows included. The unique index backs this check.
func (r *Repository) IsDuplicate(ctx context.Context, date time.Time, session schedule.Session, nationalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE clinic_date = $1 AND session = $2 AND national_id = $3)`,
		date, session, nationalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("booking: duplicate check: %w", err)
	}
	return exists, nil
}

// Create commits one booking atomically and returns the stored appointment.
//
// An advisory lock keyed on the slot serializes concurrent commits so the
// capacity check and the registration number stay correct under load. The
// registration number counts every row ever written to the slot, hidden
// ones included, so tickets are never reissued.
func (r *Repository) Create(ctx context.Context, p CreateParams) (Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		p.ClinicDate.Format("2006-01-02"), string(p.Session)); err != nil {
		return Appointment{}, fmt.Errorf("booking: lock slot: %w", err)
	}

	var visible, total int
	if err := tx.QueryRow(ctx, `
		SELECT count(*) FILTER (WHERE visible), count(*)
		FROM appointments WHERE clinic_date = $1 AND session = $2`,
		p.ClinicDate, p.Session).Scan(&visible, &total); err != nil {
		return Appointment{}, fmt.Errorf("booking: count slot: %w", err)
	}
	if visible >= p.Capacity {
		return Appointment{}, ErrSlotFull
	}

	appt := Appointment{
		ClinicDate:         p.ClinicDate,
		Session:            p.Session,
		RegistrationNumber: total + 1,
		Name:               p.Patient.Name,
		NationalID:         p.Patient.NationalID,
		Gender:             p.Patient.Gender,
		Age:                p.Patient.Age,
		Phone:              p.Patient.Phone,
		Visible:            true,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(clinic_date, session, registration_number, name, national_id, gender, age, phone, visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING id, created_at`,
		appt.ClinicDate, appt.Session, appt.RegistrationNumber,
		appt.Name, appt.NationalID, appt.Gender, appt.Age, appt.Phone).
		Scan(&appt.ID, &appt.CreatedAt)
	if isUniqueViolation(err) {
		return Appointment{}, ErrDuplicateBooking
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: insert appointment: %w", err)
	}

	for _, symptomID := range p.SymptomIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointment_symptoms (appointment_id, symptom_id) VALUES ($1, $2)`,
			appt.ID, symptomID); err != nil {
			return Appointment{}, fmt.Errorf("booking: link symptom: %w", err)
		}
	}
	for _, a := range p.Likert {
		if _, err := tx.Exec(ctx, `
			INSERT INTO likert_responses (appointment_id, question_id, score) VALUES ($1, $2, $3)`,
			appt.ID, a.QuestionID, a.Score); err != nil {
			return Appointment{}, fmt.Errorf("booking: insert likert response: %w", err)
		}
	}
	for _, a := range p.Numeric {
		if _, err := tx.Exec(ctx, `
			INSERT INTO numeric_responses (appointment_id, question_id, value) VALUES ($1, $2, $3::numeric)`,
			appt.ID, a.QuestionID, a.Value); err != nil {
			return Appointment{}, fmt.Errorf("booking: insert numeric response: %w", err)
		}
	}

	if _, err := events.InsertTx(ctx, tx, fmt.Sprintf("%d", appt.ID),
		events.TypeAppointmentCreated, events.AppointmentEvent{AppointmentID: appt.ID}); err != nil {
		return Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Appointment{}, fmt.Errorf("booking: commit: %w", err)
	}
	return appt, nil
}

// Hide soft-deletes an appointment. The row keeps its registration number;
// only capacity and the data sheet forget it.
func (r *Repository) Hide(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("booking: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `UPDATE appointments SET visible = FALSE WHERE id = $1 AND visible`, id)
	if err != nil {
		return fmt.Errorf("booking: hide appointment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := events.InsertTx(ctx, tx, fmt.Sprintf("%d", id),
		events.TypeAppointmentDeleted, events.AppointmentEvent{AppointmentID: id}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("booking: commit: %w", err)
	}
	return nil
}

// Get returns one appointment row regardless of visibility.
func (r *Repository) Get(ctx context.Context, id int64) (Appointment, error) {
	var a Appointment
	err := r.db.QueryRow(ctx, `
		SELECT id, clinic_date, session, registration_number, name, national_id,
		       gender, age, phone, visible, created_at
		FROM appointments WHERE id = $1`, id).Scan(
		&a.ID, &a.ClinicDate, &a.Session, &a.RegistrationNumber, &a.Name,
		&a.NationalID, &a.Gender, &a.Age, &a.Phone, &a.Visible, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: get appointment: %w", err)
	}
	return a, nil
}

// ListVisible returns the live bookings for one date, optionally narrowed to
// a session, ordered by session priority then ticket number.
func (r *Repository) ListVisible(ctx context.Context, date time.Time, session schedule.Session) ([]Appointment, error) {
	query := `
		SELECT id, clinic_date, session, registration_number, name, national_id,
		       gender, age, phone, visible, created_at
		FROM appointments
		WHERE clinic_date = $1 AND visible`
	args := []any{date}
	if session != "" {
		query += ` AND session = $2`
		args = append(args, session)
	}
	query += `
		ORDER BY array_position(ARRAY['morning','afternoon','evening'], session::text),
		         registration_number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("booking: list visible: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.ClinicDate, &a.Session, &a.RegistrationNumber, &a.Name,
			&a.NationalID, &a.Gender, &a.Age, &a.Phone, &a.Visible, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("booking: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
