package reporting

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/internal/survey"
)

// Row is one denormalized data-sheet line.
type Row struct {
	AppointmentID      int64             `json:"appointment_id"`
	ClinicDate         string            `json:"clinic_date"`
	Session            schedule.Session  `json:"session"`
	RegistrationNumber int               `json:"registration_number"`
	Name               string            `json:"name"`
	NationalID         string            `json:"national_id"`
	Gender             string            `json:"gender"`
	Age                int               `json:"age"`
	Phone              string            `json:"phone"`
	SymptomsText       string            `json:"symptoms_text"`
	Likert             map[string]string `json:"likert"`
	Numeric            map[string]string `json:"numeric"`
	CreatedAt          time.Time         `json:"created_at"`
}

// QuestionSource supplies the live question sets for the export headers.
type QuestionSource interface {
	ActiveLikert(ctx context.Context) ([]survey.LikertQuestion, error)
	ActiveNumeric(ctx context.Context) ([]survey.NumericQuestion, error)
}

// DataSheet reads the projection table for the staff views and the CSV
// export. It never touches the source appointment tables.
type DataSheet struct {
	db        reportingDB
	questions QuestionSource
}

func NewDataSheet(pool *pgxpool.Pool, questions QuestionSource) *DataSheet {
	if pool == nil {
		panic("reporting: pgx pool required")
	}
	return &DataSheet{db: pool, questions: questions}
}

func newDataSheetWithDB(db reportingDB, questions QuestionSource) *DataSheet {
	return &DataSheet{db: db, questions: questions}
}

// ListByDate returns the projection rows for one clinic day, optionally
// narrowed to a session. Sort accepts "registration" (default), "created"
// or "age".
func (d *DataSheet) ListByDate(ctx context.Context, date time.Time, session schedule.Session, sort string) ([]Row, error) {
	query := `
		SELECT appointment_id, clinic_date::text, session, registration_number, name,
		       national_id, gender, age, phone, symptoms_text, likert_data, numeric_data, created_at
		FROM appointment_projections
		WHERE clinic_date = $1`
	args := []any{date}
	if session != "" {
		query += ` AND session = $2`
		args = append(args, session)
	}
	switch sort {
	case "created":
		query += ` ORDER BY created_at`
	case "age":
		query += ` ORDER BY age, registration_number`
	default:
		query += ` ORDER BY array_position(ARRAY['morning','afternoon','evening'], session), registration_number`
	}

	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reporting: list data sheet: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var likertData, numericData []byte
		if err := rows.Scan(
			&r.AppointmentID, &r.ClinicDate, &r.Session, &r.RegistrationNumber, &r.Name,
			&r.NationalID, &r.Gender, &r.Age, &r.Phone, &r.SymptomsText,
			&likertData, &numericData, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("reporting: scan data sheet row: %w", err)
		}
		if err := json.Unmarshal(likertData, &r.Likert); err != nil {
			return nil, fmt.Errorf("reporting: decode likert data: %w", err)
		}
		if err := json.Unmarshal(numericData, &r.Numeric); err != nil {
			return nil, fmt.Errorf("reporting: decode numeric data: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// utf8BOM lets spreadsheet software detect the encoding of exported CJK
// patient names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvPlaceholder fills cells with no recorded answer.
const csvPlaceholder = "-"

// WriteCSV streams one clinic day as CSV. Question columns follow the live
// question sets; rows booked before a question was added show a placeholder.
func (d *DataSheet) WriteCSV(ctx context.Context, w io.Writer, date time.Time, session schedule.Session) error {
	rows, err := d.ListByDate(ctx, date, session, "")
	if err != nil {
		return err
	}
	likert, err := d.questions.ActiveLikert(ctx)
	if err != nil {
		return err
	}
	numeric, err := d.questions.ActiveNumeric(ctx)
	if err != nil {
		return err
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("reporting: write bom: %w", err)
	}
	cw := csv.NewWriter(w)

	header := []string{"date", "session", "no.", "name", "national_id", "gender", "age", "phone", "symptoms"}
	for _, q := range likert {
		header = append(header, q.Name)
	}
	for _, q := range numeric {
		title := q.Question
		if q.Unit != nil && *q.Unit != "" {
			title = fmt.Sprintf("%s (%s)", q.Question, *q.Unit)
		}
		header = append(header, title)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("reporting: write csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.ClinicDate, string(r.Session), strconv.Itoa(r.RegistrationNumber),
			orPlaceholder(r.Name), orPlaceholder(r.NationalID), orPlaceholder(r.Gender),
			strconv.Itoa(r.Age), orPlaceholder(r.Phone), orPlaceholder(r.SymptomsText),
		}
		for _, q := range likert {
			record = append(record, answerOr(r.Likert, q.ID))
		}
		for _, q := range numeric {
			record = append(record, answerOr(r.Numeric, q.ID))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("reporting: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names a download after the day it covers and the moment it
// was generated.
func ExportFilename(date time.Time, now time.Time) string {
	return fmt.Sprintf("appointments_%s_%s.csv",
		date.Format("2006-01-02"), now.UTC().Format("20060102T150405Z"))
}

func orPlaceholder(s string) string {
	if s == "" {
		return csvPlaceholder
	}
	return s
}

func answerOr(answers map[string]string, questionID int64) string {
	if v, ok := answers[strconv.FormatInt(questionID, 10)]; ok && v != "" {
		return v
	}
	return csvPlaceholder
}
