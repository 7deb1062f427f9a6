package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

type reportingDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Projector maintains the denormalized data-sheet rows. It consumes the
// appointment outbox, so every projection write happens strictly after the
// booking transaction that caused it has committed.
type Projector struct {
	db     reportingDB
	logger *logging.Logger
}

func NewProjector(pool *pgxpool.Pool, logger *logging.Logger) *Projector {
	if pool == nil {
		panic("reporting: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Projector{db: pool, logger: logger}
}

func newProjectorWithDB(db reportingDB, logger *logging.Logger) *Projector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Projector{db: db, logger: logger}
}

// Handle implements events.DeliveryHandler.
func (p *Projector) Handle(ctx context.Context, entry events.OutboxEntry) error {
	var payload events.AppointmentEvent
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return fmt.Errorf("reporting: decode %s payload: %w", entry.Type, err)
	}

	switch entry.Type {
	case events.TypeAppointmentCreated, events.TypeAppointmentUpdated:
		return p.sync(ctx, payload.AppointmentID)
	case events.TypeAppointmentDeleted:
		return p.remove(ctx, payload.AppointmentID)
	default:
		// Unknown types are acked, not retried forever.
		p.logger.Warn("ignoring unknown outbox event", "type", entry.Type, "event_id", entry.ID)
		return nil
	}
}

// sync rebuilds one projection row from the source tables. A hidden source
// row removes the projection instead.
func (p *Projector) sync(ctx context.Context, appointmentID int64) error {
	var (
		clinicDate, session, name, nationalID, gender, phone string
		registrationNumber, age                              int
		visible                                              bool
		createdAt                                            any
	)
	err := p.db.QueryRow(ctx, `
		SELECT clinic_date::text, session, registration_number, name, national_id,
		       gender, age, phone, visible, created_at
		FROM appointments WHERE id = $1`, appointmentID).Scan(
		&clinicDate, &session, &registrationNumber, &name, &nationalID,
		&gender, &age, &phone, &visible, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p.remove(ctx, appointmentID)
	}
	if err != nil {
		return fmt.Errorf("reporting: load appointment %d: %w", appointmentID, err)
	}
	if !visible {
		return p.remove(ctx, appointmentID)
	}

	symptomsText, err := p.symptomsText(ctx, appointmentID)
	if err != nil {
		return err
	}
	likertData, err := p.answersJSON(ctx, `
		SELECT question_id, score::text FROM likert_responses WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("reporting: load likert answers: %w", err)
	}
	numericData, err := p.answersJSON(ctx, `
		SELECT question_id, value::text FROM numeric_responses WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("reporting: load numeric answers: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO appointment_projections
			(appointment_id, clinic_date, session, registration_number, name, national_id,
			 gender, age, phone, symptoms_text, likert_data, numeric_data, created_at, synced_at)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (appointment_id) DO UPDATE SET
			clinic_date = EXCLUDED.clinic_date,
			session = EXCLUDED.session,
			registration_number = EXCLUDED.registration_number,
			name = EXCLUDED.name,
			national_id = EXCLUDED.national_id,
			gender = EXCLUDED.gender,
			age = EXCLUDED.age,
			phone = EXCLUDED.phone,
			symptoms_text = EXCLUDED.symptoms_text,
			likert_data = EXCLUDED.likert_data,
			numeric_data = EXCLUDED.numeric_data,
			created_at = EXCLUDED.created_at,
			synced_at = now()`,
		appointmentID, clinicDate, session, registrationNumber, name, nationalID,
		gender, age, phone, symptomsText, likertData, numericData, createdAt)
	if err != nil {
		return fmt.Errorf("reporting: upsert projection %d: %w", appointmentID, err)
	}
	return nil
}

func (p *Projector) remove(ctx context.Context, appointmentID int64) error {
	if _, err := p.db.Exec(ctx, `
		DELETE FROM appointment_projections WHERE appointment_id = $1`, appointmentID); err != nil {
		return fmt.Errorf("reporting: delete projection %d: %w", appointmentID, err)
	}
	return nil
}

// symptomsText joins the appointment's symptom names into one display
// string, in symptom id order.
func (p *Projector) symptomsText(ctx context.Context, appointmentID int64) (string, error) {
	var text string
	err := p.db.QueryRow(ctx, `
		SELECT COALESCE(string_agg(s.name, ', ' ORDER BY s.id), '')
		FROM appointment_symptoms aps
		JOIN symptoms s ON s.id = aps.symptom_id
		WHERE aps.appointment_id = $1`, appointmentID).Scan(&text)
	if err != nil {
		return "", fmt.Errorf("reporting: join symptoms: %w", err)
	}
	return text, nil
}

// answersJSON folds (question_id, value) rows into a {"id": "value"} JSON
// object for the projection's JSONB columns.
func (p *Projector) answersJSON(ctx context.Context, query string, appointmentID int64) ([]byte, error) {
	rows, err := p.db.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := map[string]string{}
	for rows.Next() {
		var questionID int64
		var value string
		if err := rows.Scan(&questionID, &value); err != nil {
			return nil, err
		}
		answers[strconv.FormatInt(questionID, 10)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(answers)
}
