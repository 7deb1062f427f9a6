package survey

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type surveyDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists the two question sets and reads back responses for
// reporting. Response rows themselves are written inside the booking
// transaction (see the booking package) so an appointment can never commit
// without its answers.
type Repository struct {
	db surveyDB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("survey: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithDB(db surveyDB) *Repository {
	return &Repository{db: db}
}

// ActiveLikert returns the active scale questions in creation order.
func (r *Repository) ActiveLikert(ctx context.Context) ([]LikertQuestion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, min_label, max_label, active
		FROM likert_questions WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("survey: list likert questions: %w", err)
	}
	defer rows.Close()

	var out []LikertQuestion
	for rows.Next() {
		var q LikertQuestion
		if err := rows.Scan(&q.ID, &q.Name, &q.MinLabel, &q.MaxLabel, &q.Active); err != nil {
			return nil, fmt.Errorf("survey: scan likert question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ActiveNumeric returns the active numeric questions in creation order.
func (r *Repository) ActiveNumeric(ctx context.Context) ([]NumericQuestion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, question, unit, active
		FROM numeric_questions WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("survey: list numeric questions: %w", err)
	}
	defer rows.Close()

	var out []NumericQuestion
	for rows.Next() {
		var q NumericQuestion
		if err := rows.Scan(&q.ID, &q.Question, &q.Unit, &q.Active); err != nil {
			return nil, fmt.Errorf("survey: scan numeric question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ResponsesFor loads both answer maps for one appointment.
func (r *Repository) ResponsesFor(ctx context.Context, appointmentID int64) (Answers, error) {
	answers := Answers{Likert: map[int64]int{}, Numeric: map[int64]string{}}

	rows, err := r.db.Query(ctx, `
		SELECT question_id, score FROM likert_responses WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return Answers{}, fmt.Errorf("survey: load likert responses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return Answers{}, fmt.Errorf("survey: scan likert response: %w", err)
		}
		answers.Likert[id] = score
	}
	if err := rows.Err(); err != nil {
		return Answers{}, err
	}

	nrows, err := r.db.Query(ctx, `
		SELECT question_id, value::text FROM numeric_responses WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return Answers{}, fmt.Errorf("survey: load numeric responses: %w", err)
	}
	defer nrows.Close()
	for nrows.Next() {
		var id int64
		var value string
		if err := nrows.Scan(&id, &value); err != nil {
			return Answers{}, fmt.Errorf("survey: scan numeric response: %w", err)
		}
		answers.Numeric[id] = value
	}
	return answers, nrows.Err()
}

// UpsertLikert creates or updates a scale question.
func (r *Repository) UpsertLikert(ctx context.Context, q *LikertQuestion) error {
	if q.ID == 0 {
		return r.db.QueryRow(ctx, `
			INSERT INTO likert_questions (name, min_label, max_label, active)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			q.Name, q.MinLabel, q.MaxLabel, q.Active).Scan(&q.ID)
	}
	_, err := r.db.Exec(ctx, `
		UPDATE likert_questions SET name = $2, min_label = $3, max_label = $4, active = $5
		WHERE id = $1`, q.ID, q.Name, q.MinLabel, q.MaxLabel, q.Active)
	return err
}

// UpsertNumeric creates or updates a numeric question.
func (r *Repository) UpsertNumeric(ctx context.Context, q *NumericQuestion) error {
	if q.ID == 0 {
		return r.db.QueryRow(ctx, `
			INSERT INTO numeric_questions (question, unit, active)
			VALUES ($1, $2, $3) RETURNING id`,
			q.Question, q.Unit, q.Active).Scan(&q.ID)
	}
	_, err := r.db.Exec(ctx, `
		UPDATE numeric_questions SET question = $2, unit = $3, active = $4
		WHERE id = $1`, q.ID, q.Question, q.Unit, q.Active)
	return err
}
