package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/dentalops/clinic-platform/internal/survey"
)

type stubQuestions struct {
	likert  []survey.LikertQuestion
	numeric []survey.NumericQuestion
}

func (s stubQuestions) ActiveLikert(context.Context) ([]survey.LikertQuestion, error) {
	return s.likert, nil
}

func (s stubQuestions) ActiveNumeric(context.Context) ([]survey.NumericQuestion, error) {
	return s.numeric, nil
}

var sheetDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func projectionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"appointment_id", "clinic_date", "session", "registration_number", "name",
		"national_id", "gender", "age", "phone", "symptoms_text",
		"likert_data", "numeric_data", "created_at"})
}

func TestListByDateDecodesAnswerMaps(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	sheet := newDataSheetWithDB(mock, stubQuestions{})
	mock.ExpectQuery("FROM appointment_projections").
		WithArgs(sheetDate).
		WillReturnRows(projectionRows().
			AddRow(int64(41), "2025-06-02", "morning", 4, "Chen Mei",
				"A123456789", "F", 34, "0912345678", "Toothache",
				[]byte(`{"1":"5"}`), []byte(`{"9":"36.5"}`), time.Now()))

	rows, err := sheet.ListByDate(context.Background(), sheetDate, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0].Likert["1"] != "5" || rows[0].Numeric["9"] != "36.5" {
		t.Fatalf("unexpected answers: %+v", rows[0])
	}
}

func TestWriteCSVHasBOMHeadersAndPlaceholders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	unit := "kg"
	questions := stubQuestions{
		likert:  []survey.LikertQuestion{{ID: 1, Name: "I brush twice daily"}},
		numeric: []survey.NumericQuestion{{ID: 9, Question: "Weight", Unit: &unit}},
	}
	sheet := newDataSheetWithDB(mock, questions)

	mock.ExpectQuery("FROM appointment_projections").
		WithArgs(sheetDate).
		WillReturnRows(projectionRows().
			AddRow(int64(41), "2025-06-02", "morning", 1, "Chen Mei",
				"A123456789", "F", 34, "0912345678", "Toothache",
				[]byte(`{"1":"5"}`), []byte(`{"9":"62.0"}`), time.Now()).
			AddRow(int64(42), "2025-06-02", "morning", 2, "Lin Wei",
				"B234567890", "", 52, "0922333444", "",
				[]byte(`{}`), []byte(`{}`), time.Now()))

	var buf bytes.Buffer
	if err := sheet.WriteCSV(context.Background(), &buf, sheetDate, ""); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, utf8BOM) {
		t.Fatal("expected UTF-8 BOM prefix")
	}
	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "I brush twice daily") || !strings.Contains(lines[0], "Weight (kg)") {
		t.Fatalf("question columns missing from header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "5") || !strings.Contains(lines[1], "62.0") {
		t.Fatalf("answers missing from first row: %s", lines[1])
	}
	// The second patient answered nothing and has no gender or symptoms.
	if strings.Count(lines[2], csvPlaceholder) < 4 {
		t.Fatalf("expected placeholders in second row: %s", lines[2])
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)
	got := ExportFilename(sheetDate, now)
	want := "appointments_2025-06-02_20250602T083000Z.csv"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
