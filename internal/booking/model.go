package booking

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dentalops/clinic-platform/internal/schedule"
)

var (
	// ErrDuplicateBooking reports a second booking for the same national ID
	// in the same slot.
	ErrDuplicateBooking = errors.New("booking: slot already booked for this national id")
	// ErrSlotFull reports a commit attempt against a slot with no remaining
	// capacity.
	ErrSlotFull = errors.New("booking: slot is full")
	// ErrNotFound reports an unknown appointment id.
	ErrNotFound = errors.New("booking: appointment not found")
)

// nationalIDPattern matches one uppercase letter followed by nine digits.
var nationalIDPattern = regexp.MustCompile(`^[A-Z][0-9]{9}$`)

// Appointment is one row of the booking ledger. RegistrationNumber is the
// patient's arrival-order ticket within the slot and is never reused, even
// after the appointment is hidden.
type Appointment struct {
	ID                 int64            `json:"id"`
	ClinicDate         time.Time        `json:"clinic_date"`
	Session            schedule.Session `json:"session"`
	RegistrationNumber int              `json:"registration_number"`
	Name               string           `json:"name"`
	NationalID         string           `json:"national_id"`
	Gender             string           `json:"gender"`
	Age                int              `json:"age"`
	Phone              string           `json:"phone"`
	Visible            bool             `json:"visible"`
	CreatedAt          time.Time        `json:"created_at"`
}

// Patient is the identity portion collected by the wizard. Gender and
// Phone are optional contact details; the registration form does not
// require them.
type Patient struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Gender     string `json:"gender,omitempty"`
	Age        int    `json:"age"`
	Phone      string `json:"phone,omitempty"`
}

// Validate applies the registration-form rules.
func (p Patient) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !nationalIDPattern.MatchString(p.NationalID) {
		return errors.New("national id must be one uppercase letter followed by nine digits")
	}
	if p.Age < 0 || p.Age > 120 {
		return fmt.Errorf("age %d is out of range", p.Age)
	}
	return nil
}

// LikertAnswer and NumericAnswer carry one committed survey response each.
type LikertAnswer struct {
	QuestionID int64
	Score      int
}

type NumericAnswer struct {
	QuestionID int64
	Value      string
}

// CreateParams is everything Create writes in one transaction.
type CreateParams struct {
	ClinicDate time.Time
	Session    schedule.Session
	// Capacity is the slot's booking limit from the weekly schedule, re-read
	// by the caller just before commit.
	Capacity   int
	Patient    Patient
	SymptomIDs []int64
	Likert     []LikertAnswer
	Numeric    []NumericAnswer
}
