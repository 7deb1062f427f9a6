package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound reports a missing weekday row. Callers treat this as "clinic
// closed that day", not as a failure.
var ErrNotFound = errors.New("schedule: no row for weekday")

type scheduleDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists the weekly recurring schedule template.
type Repository struct {
	db scheduleDB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithDB(db scheduleDB) *Repository {
	return &Repository{db: db}
}

const scheduleColumns = `weekday, morning_enabled, afternoon_enabled, evening_enabled,
	       morning_capacity, afternoon_capacity, evening_capacity,
	       morning_time, afternoon_time, evening_time`

// Get returns the template row for one weekday (0 = Monday).
func (r *Repository) Get(ctx context.Context, weekday int) (WeeklySchedule, error) {
	var row WeeklySchedule
	err := r.db.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM weekly_schedule WHERE weekday = $1`, weekday).Scan(
		&row.Weekday, &row.MorningEnabled, &row.AfternoonEnabled, &row.EveningEnabled,
		&row.MorningCapacity, &row.AfternoonCapacity, &row.EveningCapacity,
		&row.MorningTime, &row.AfternoonTime, &row.EveningTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return WeeklySchedule{}, ErrNotFound
	}
	if err != nil {
		return WeeklySchedule{}, fmt.Errorf("schedule: get weekday %d: %w", weekday, err)
	}
	return row, nil
}

// List returns all configured weekday rows ordered Monday first.
func (r *Repository) List(ctx context.Context) ([]WeeklySchedule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM weekly_schedule ORDER BY weekday`)
	if err != nil {
		return nil, fmt.Errorf("schedule: list: %w", err)
	}
	defer rows.Close()

	var out []WeeklySchedule
	for rows.Next() {
		var row WeeklySchedule
		if err := rows.Scan(
			&row.Weekday, &row.MorningEnabled, &row.AfternoonEnabled, &row.EveningEnabled,
			&row.MorningCapacity, &row.AfternoonCapacity, &row.EveningCapacity,
			&row.MorningTime, &row.AfternoonTime, &row.EveningTime); err != nil {
			return nil, fmt.Errorf("schedule: scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// EnsureWeek provisions any missing weekday rows with defaults so management
// screens always see seven rows. Existing rows are left untouched.
func (r *Repository) EnsureWeek(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO weekly_schedule (weekday)
		SELECT d FROM generate_series(0, 6) AS d
		ON CONFLICT (weekday) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("schedule: ensure week: %w", err)
	}
	return nil
}

// SetSessionTimes applies the same three display ranges to every weekday
// row at once. Per-day times are deliberately not supported.
func (r *Repository) SetSessionTimes(ctx context.Context, morning, afternoon, evening string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE weekly_schedule
		SET morning_time = $1, afternoon_time = $2, evening_time = $3`,
		morning, afternoon, evening)
	if err != nil {
		return fmt.Errorf("schedule: set session times: %w", err)
	}
	return nil
}

// SetCapacityAndEnabled updates one session's switch and booking limit on a
// single weekday row.
func (r *Repository) SetCapacityAndEnabled(ctx context.Context, weekday int, session Session, enabled bool, capacity int) error {
	var stmt string
	switch session {
	case SessionMorning:
		stmt = `UPDATE weekly_schedule SET morning_enabled = $2, morning_capacity = $3 WHERE weekday = $1`
	case SessionAfternoon:
		stmt = `UPDATE weekly_schedule SET afternoon_enabled = $2, afternoon_capacity = $3 WHERE weekday = $1`
	case SessionEvening:
		stmt = `UPDATE weekly_schedule SET evening_enabled = $2, evening_capacity = $3 WHERE weekday = $1`
	default:
		return fmt.Errorf("schedule: unknown session %q", session)
	}
	ct, err := r.db.Exec(ctx, stmt, weekday, enabled, capacity)
	if err != nil {
		return fmt.Errorf("schedule: set capacity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
