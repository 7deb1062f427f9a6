package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrNotFound reports an unknown book id.
var ErrNotFound = errors.New("catalog: book not found")

// Book is one list entry of the waiting-room library shelf.
type Book struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Price     int      `json:"price"`
	Stock     int      `json:"stock"`
	Publisher string   `json:"publisher"`
	Authors   []string `json:"authors"`
}

// BookDetail extends Book with the one-to-one detail record.
type BookDetail struct {
	Book
	ISBN        string    `json:"isbn"`
	PublishDate time.Time `json:"publish_date"`
	Pages       int       `json:"pages"`
	Description string    `json:"description"`
}

// Store reads the library catalog. It runs on database/sql so the catalog
// can live in a separate reporting replica from the clinic pool.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("catalog: sql db required")
	}
	return &Store{db: db}
}

const bookColumns = `
	b.id, b.title, b.price, b.stock,
	COALESCE(p.name, '') AS publisher,
	COALESCE(array_agg(a.name ORDER BY a.name) FILTER (WHERE a.id IS NOT NULL), '{}') AS authors`

// ListBooks returns every book with its publisher and author names.
func (s *Store) ListBooks(ctx context.Context) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`
		FROM books b
		LEFT JOIN publishers p ON p.id = b.publisher_id
		LEFT JOIN book_authors ba ON ba.book_id = b.id
		LEFT JOIN authors a ON a.id = ba.author_id
		GROUP BY b.id, p.name
		ORDER BY b.title`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.Stock, &b.Publisher, pq.Array(&b.Authors)); err != nil {
			return nil, fmt.Errorf("catalog: scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBook returns one book with its detail record.
func (s *Store) GetBook(ctx context.Context, id int64) (BookDetail, error) {
	var d BookDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`,
		       COALESCE(bd.isbn, ''), COALESCE(bd.publish_date, '0001-01-01'::date),
		       COALESCE(bd.pages, 0), COALESCE(bd.description, '')
		FROM books b
		LEFT JOIN publishers p ON p.id = b.publisher_id
		LEFT JOIN book_authors ba ON ba.book_id = b.id
		LEFT JOIN authors a ON a.id = ba.author_id
		LEFT JOIN book_details bd ON bd.book_id = b.id
		WHERE b.id = $1
		GROUP BY b.id, p.name, bd.isbn, bd.publish_date, bd.pages, bd.description`, id).Scan(
		&d.ID, &d.Title, &d.Price, &d.Stock, &d.Publisher, pq.Array(&d.Authors),
		&d.ISBN, &d.PublishDate, &d.Pages, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return BookDetail{}, ErrNotFound
	}
	if err != nil {
		return BookDetail{}, fmt.Errorf("catalog: get book %d: %w", id, err)
	}
	return d, nil
}

// SearchByAuthor returns books written by any author whose name matches.
func (s *Store) SearchByAuthor(ctx context.Context, name string) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`
		FROM books b
		LEFT JOIN publishers p ON p.id = b.publisher_id
		JOIN book_authors ba ON ba.book_id = b.id
		JOIN authors a ON a.id = ba.author_id
		WHERE b.id IN (
			SELECT ba2.book_id FROM book_authors ba2
			JOIN authors a2 ON a2.id = ba2.author_id
			WHERE a2.name ILIKE '%' || $1 || '%')
		GROUP BY b.id, p.name
		ORDER BY b.title`, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: search by author: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.Stock, &b.Publisher, pq.Array(&b.Authors)); err != nil {
			return nil, fmt.Errorf("catalog: scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
