package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dentist is a practitioner profile shown on the public home page.
type Dentist struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Symptom is a selectable chief-complaint option. Only active symptoms are
// offered in the booking wizard.
type Symptom struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Info is the singleton clinic profile row.
type Info struct {
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	SloganTitle   string `json:"slogan_title"`
	SloganContent string `json:"slogan_content"`
}

type clinicDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists the clinic directory configuration.
type Store struct {
	db clinicDB
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("clinic: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithDB(db clinicDB) *Store {
	return &Store{db: db}
}

func (s *Store) ListDentists(ctx context.Context) ([]Dentist, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM dentists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("clinic: list dentists: %w", err)
	}
	defer rows.Close()

	var out []Dentist
	for rows.Next() {
		var d Dentist
		if err := rows.Scan(&d.ID, &d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("clinic: scan dentist: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UpsertDentist(ctx context.Context, d *Dentist) error {
	if d.ID == 0 {
		return s.db.QueryRow(ctx, `
			INSERT INTO dentists (name, description) VALUES ($1, $2) RETURNING id`,
			d.Name, d.Description).Scan(&d.ID)
	}
	_, err := s.db.Exec(ctx, `UPDATE dentists SET name = $2, description = $3 WHERE id = $1`,
		d.ID, d.Name, d.Description)
	return err
}

// ActiveSymptoms returns the symptoms offered in the booking wizard.
func (s *Store) ActiveSymptoms(ctx context.Context) ([]Symptom, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, active FROM symptoms WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("clinic: list symptoms: %w", err)
	}
	defer rows.Close()

	var out []Symptom
	for rows.Next() {
		var sym Symptom
		if err := rows.Scan(&sym.ID, &sym.Name, &sym.Active); err != nil {
			return nil, fmt.Errorf("clinic: scan symptom: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) UpsertSymptom(ctx context.Context, sym *Symptom) error {
	if sym.ID == 0 {
		return s.db.QueryRow(ctx, `
			INSERT INTO symptoms (name, active) VALUES ($1, $2) RETURNING id`,
			sym.Name, sym.Active).Scan(&sym.ID)
	}
	_, err := s.db.Exec(ctx, `UPDATE symptoms SET name = $2, active = $3 WHERE id = $1`,
		sym.ID, sym.Name, sym.Active)
	return err
}

// GetInfo returns the singleton clinic profile, creating the default row on
// first access.
func (s *Store) GetInfo(ctx context.Context) (Info, error) {
	var info Info
	err := s.db.QueryRow(ctx, `
		SELECT address, phone, slogan_title, slogan_content FROM clinic_info WHERE id = 1`).
		Scan(&info.Address, &info.Phone, &info.SloganTitle, &info.SloganContent)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := s.db.Exec(ctx, `INSERT INTO clinic_info (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
			return Info{}, fmt.Errorf("clinic: provision info row: %w", err)
		}
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("clinic: load info: %w", err)
	}
	return info, nil
}

func (s *Store) UpdateInfo(ctx context.Context, info Info) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO clinic_info (id, address, phone, slogan_title, slogan_content)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		    address = EXCLUDED.address, phone = EXCLUDED.phone,
		    slogan_title = EXCLUDED.slogan_title, slogan_content = EXCLUDED.slogan_content`,
		info.Address, info.Phone, info.SloganTitle, info.SloganContent)
	if err != nil {
		return fmt.Errorf("clinic: update info: %w", err)
	}
	return nil
}
