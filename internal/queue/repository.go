package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-platform/internal/schedule"
)

// Counter is one (date, session) call-number record.
type Counter struct {
	Date          time.Time        `json:"date"`
	Session       schedule.Session `json:"session"`
	CurrentNumber int              `json:"current_number"`
}

type counterDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists the per-slot monotonic counters. The unique key on
// (clinic_date, session) makes concurrent get-or-create safe: racing
// writers collapse onto the same row and the arithmetic happens in SQL.
type Repository struct {
	db counterDB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("queue: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithDB(db counterDB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the counter for the slot, creating it at zero when
// absent. Counters are never deleted.
func (r *Repository) GetOrCreate(ctx context.Context, date time.Time, session schedule.Session) (Counter, error) {
	c := Counter{Date: date, Session: session}
	err := r.db.QueryRow(ctx, `
		INSERT INTO queue_counters (clinic_date, session)
		VALUES ($1, $2)
		ON CONFLICT (clinic_date, session)
		DO UPDATE SET session = EXCLUDED.session
		RETURNING current_number`, date, string(session)).Scan(&c.CurrentNumber)
	if err != nil {
		return Counter{}, fmt.Errorf("queue: get or create counter: %w", err)
	}
	return c, nil
}

// Increment advances the slot's counter by one and returns the new value.
func (r *Repository) Increment(ctx context.Context, date time.Time, session schedule.Session) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		INSERT INTO queue_counters (clinic_date, session, current_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (clinic_date, session)
		DO UPDATE SET current_number = queue_counters.current_number + 1
		RETURNING current_number`, date, string(session)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("queue: increment counter: %w", err)
	}
	return n, nil
}

// Reset forces the slot's counter back to zero. This is a hard overwrite,
// not a decrement.
func (r *Repository) Reset(ctx context.Context, date time.Time, session schedule.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO queue_counters (clinic_date, session, current_number)
		VALUES ($1, $2, 0)
		ON CONFLICT (clinic_date, session)
		DO UPDATE SET current_number = 0`, date, string(session))
	if err != nil {
		return fmt.Errorf("queue: reset counter: %w", err)
	}
	return nil
}

// Current returns the counter for the slot without creating it. The bool
// reports whether a counter exists yet.
func (r *Repository) Current(ctx context.Context, date time.Time, session schedule.Session) (Counter, bool, error) {
	c := Counter{Date: date, Session: session}
	err := r.db.QueryRow(ctx, `
		SELECT current_number FROM queue_counters
		WHERE clinic_date = $1 AND session = $2`, date, string(session)).Scan(&c.CurrentNumber)
	if err == pgx.ErrNoRows {
		return c, false, nil
	}
	if err != nil {
		return Counter{}, false, fmt.Errorf("queue: load counter: %w", err)
	}
	return c, true, nil
}
