package clinic

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestActiveSymptomsFiltersInactive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithDB(mock)
	mock.ExpectQuery("SELECT id, name, active FROM symptoms WHERE active").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "active"}).
			AddRow(int64(1), "Toothache", true).
			AddRow(int64(4), "Bleeding gums", true))

	syms, err := store.ActiveSymptoms(context.Background())
	if err != nil {
		t.Fatalf("active symptoms: %v", err)
	}
	if len(syms) != 2 || syms[0].Name != "Toothache" {
		t.Fatalf("unexpected symptoms: %+v", syms)
	}
}

func TestUpsertDentistAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithDB(mock)
	mock.ExpectQuery("INSERT INTO dentists").
		WithArgs("Dr. Lin", "Endodontics").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	d := &Dentist{Name: "Dr. Lin", Description: "Endodontics"}
	if err := store.UpsertDentist(context.Background(), d); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if d.ID != 7 {
		t.Fatalf("expected assigned id 7, got %d", d.ID)
	}
}

func TestGetInfoProvisionsSingletonRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithDB(mock)
	mock.ExpectQuery("SELECT address, phone, slogan_title, slogan_content").
		WillReturnRows(pgxmock.NewRows([]string{"address", "phone", "slogan_title", "slogan_content"}))
	mock.ExpectExec("INSERT INTO clinic_info").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	info, err := store.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	if info != (Info{}) {
		t.Fatalf("expected zero info on first access, got %+v", info)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
