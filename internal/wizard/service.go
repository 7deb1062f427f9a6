package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/dentalops/clinic-platform/internal/booking"
	"github.com/dentalops/clinic-platform/internal/clinic"
	"github.com/dentalops/clinic-platform/internal/observability/metrics"
	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/internal/survey"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

var (
	// ErrNoSession reports a step request with no wizard in progress.
	ErrNoSession = errors.New("wizard: no booking in progress")
	// ErrWrongStep reports a step submitted out of order.
	ErrWrongStep = errors.New("wizard: step out of order")
	// ErrInvalidSlot reports a slot outside the booking window or not
	// bookable on that weekday.
	ErrInvalidSlot = errors.New("wizard: slot is not bookable")
)

// ValidationError carries a user-facing message for a rejected form field.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// numericValuePattern matches a non-negative number with at most one
// decimal place, the precision the numeric answers are stored with.
var numericValuePattern = regexp.MustCompile(`^\d{1,9}(\.\d)?$`)

// ScheduleSource is the slice of the schedule registry the wizard reads.
type ScheduleSource interface {
	Get(ctx context.Context, weekday int) (schedule.WeeklySchedule, error)
}

// Ledger is the booking surface the wizard commits through.
type Ledger interface {
	CountVisible(ctx context.Context, date time.Time, session schedule.Session) (int, error)
	IsDuplicate(ctx context.Context, date time.Time, session schedule.Session, nationalID string) (bool, error)
	Create(ctx context.Context, p booking.CreateParams) (booking.Appointment, error)
}

// SymptomSource lists the chief-complaint options a patient may pick.
type SymptomSource interface {
	ActiveSymptoms(ctx context.Context) ([]clinic.Symptom, error)
}

// QuestionSource lists the survey questions the final step must answer.
type QuestionSource interface {
	ActiveLikert(ctx context.Context) ([]survey.LikertQuestion, error)
	ActiveNumeric(ctx context.Context) ([]survey.NumericQuestion, error)
}

// Stater is the persistence surface for in-progress wizard states.
type Stater interface {
	Save(ctx context.Context, sessionID string, state State) error
	Load(ctx context.Context, sessionID string) (*State, error)
	Clear(ctx context.Context, sessionID string) error
}

// Service drives the three-step booking wizard. Each step re-validates
// everything it depends on; nothing trusts what an earlier step saw.
type Service struct {
	schedules  ScheduleSource
	ledger     Ledger
	symptoms   SymptomSource
	questions  QuestionSource
	states     Stater
	loc        *time.Location
	windowDays int
	metrics    *metrics.ClinicMetrics
	logger     *logging.Logger
}

func NewService(
	schedules ScheduleSource,
	ledger Ledger,
	symptoms SymptomSource,
	questions QuestionSource,
	states Stater,
	loc *time.Location,
	windowDays int,
	m *metrics.ClinicMetrics,
	logger *logging.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		schedules:  schedules,
		ledger:     ledger,
		symptoms:   symptoms,
		questions:  questions,
		states:     states,
		loc:        loc,
		windowDays: windowDays,
		metrics:    m,
		logger:     logger,
	}
}

// Slot is one bookable (date, session) pair with live remaining capacity.
type Slot struct {
	Date      string           `json:"date"`
	Weekday   int              `json:"weekday"`
	Session   schedule.Session `json:"session"`
	TimeRange string           `json:"time_range"`
	Remaining int              `json:"remaining"`
}

// windowStart returns the first bookable calendar day: tomorrow in clinic
// time, as a UTC date. Same-day booking is not offered.
func (s *Service) windowStart(now time.Time) time.Time {
	local := now.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// Slots lists every bookable slot in the window. Days without a schedule
// row and sessions that are disabled or full are simply absent.
func (s *Service) Slots(ctx context.Context, now time.Time) ([]Slot, error) {
	start := s.windowStart(now)
	var out []Slot
	for i := 0; i < s.windowDays; i++ {
		day := start.AddDate(0, 0, i)
		row, err := s.schedules.Get(ctx, schedule.Weekday(day))
		if errors.Is(err, schedule.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, win := range row.Windows() {
			if !win.Enabled || win.Capacity <= 0 {
				continue
			}
			taken, err := s.ledger.CountVisible(ctx, day, win.Session)
			if err != nil {
				return nil, err
			}
			if remaining := win.Capacity - taken; remaining > 0 {
				out = append(out, Slot{
					Date:      day.Format("2006-01-02"),
					Weekday:   schedule.Weekday(day),
					Session:   win.Session,
					TimeRange: win.TimeRange,
					Remaining: remaining,
				})
			}
		}
	}
	return out, nil
}

// Start discards any previous progress and opens a fresh wizard.
func (s *Service) Start(ctx context.Context, sessionID string) (State, error) {
	state := State{Step: StepSelectingSlot}
	if err := s.states.Save(ctx, sessionID, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// ChooseSlot records the slot selection and advances to identity collection.
func (s *Service) ChooseSlot(ctx context.Context, sessionID string, now time.Time, dateStr string, session schedule.Session) (State, error) {
	state, err := s.loadAt(ctx, sessionID, StepSelectingSlot)
	if err != nil {
		return State{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		return State{}, validationf("invalid date, want YYYY-MM-DD")
	}
	if !session.Valid() {
		return State{}, validationf("unknown session %q", session)
	}
	start := s.windowStart(now)
	if date.Before(start) || !date.Before(start.AddDate(0, 0, s.windowDays)) {
		return State{}, ErrInvalidSlot
	}

	win, err := s.slotWindow(ctx, date, session)
	if err != nil {
		return State{}, err
	}
	taken, err := s.ledger.CountVisible(ctx, date, session)
	if err != nil {
		return State{}, err
	}
	if taken >= win.Capacity {
		return State{}, booking.ErrSlotFull
	}

	state.Step = StepCollectingIdentity
	state.ClinicDate = dateStr
	state.Session = session
	if err := s.states.Save(ctx, sessionID, *state); err != nil {
		return State{}, err
	}
	return *state, nil
}

// SubmitIdentity validates the patient form, rejects duplicates early, and
// advances to the survey step.
func (s *Service) SubmitIdentity(ctx context.Context, sessionID string, patient booking.Patient, symptomIDs []int64) (State, error) {
	state, err := s.loadAt(ctx, sessionID, StepCollectingIdentity)
	if err != nil {
		return State{}, err
	}
	if err := patient.Validate(); err != nil {
		return State{}, &ValidationError{Msg: err.Error()}
	}

	active, err := s.symptoms.ActiveSymptoms(ctx)
	if err != nil {
		return State{}, err
	}
	known := make(map[int64]bool, len(active))
	for _, sym := range active {
		known[sym.ID] = true
	}
	for _, id := range symptomIDs {
		if !known[id] {
			return State{}, validationf("unknown symptom %d", id)
		}
	}

	date, err := state.Date()
	if err != nil {
		return State{}, fmt.Errorf("wizard: corrupt state date: %w", err)
	}
	dup, err := s.ledger.IsDuplicate(ctx, date, state.Session, patient.NationalID)
	if err != nil {
		return State{}, err
	}
	if dup {
		return State{}, booking.ErrDuplicateBooking
	}

	state.Step = StepCollectingSurvey
	state.Patient = patient
	state.SymptomIDs = symptomIDs
	if err := s.states.Save(ctx, sessionID, *state); err != nil {
		return State{}, err
	}
	return *state, nil
}

// SubmitSurvey validates the answers against the live question sets, then
// commits the whole booking. On success the wizard state is cleared and the
// stored appointment, ticket number included, is returned.
func (s *Service) SubmitSurvey(ctx context.Context, sessionID string, likert map[int64]int, numeric map[int64]string) (booking.Appointment, error) {
	state, err := s.loadAt(ctx, sessionID, StepCollectingSurvey)
	if err != nil {
		return booking.Appointment{}, err
	}

	likertAnswers, err := s.validateLikert(ctx, likert)
	if err != nil {
		return booking.Appointment{}, err
	}
	numericAnswers, err := s.validateNumeric(ctx, numeric)
	if err != nil {
		return booking.Appointment{}, err
	}

	date, err := state.Date()
	if err != nil {
		return booking.Appointment{}, fmt.Errorf("wizard: corrupt state date: %w", err)
	}
	win, err := s.slotWindow(ctx, date, state.Session)
	if err != nil {
		return booking.Appointment{}, err
	}

	started := time.Now()
	appt, err := s.ledger.Create(ctx, booking.CreateParams{
		ClinicDate: date,
		Session:    state.Session,
		Capacity:   win.Capacity,
		Patient:    state.Patient,
		SymptomIDs: state.SymptomIDs,
		Likert:     likertAnswers,
		Numeric:    numericAnswers,
	})
	elapsed := time.Since(started).Seconds()
	switch {
	case errors.Is(err, booking.ErrSlotFull):
		s.metrics.ObserveBooking(string(state.Session), "full")
		s.metrics.ObserveCommitLatency("full", elapsed)
		return booking.Appointment{}, err
	case errors.Is(err, booking.ErrDuplicateBooking):
		s.metrics.ObserveBooking(string(state.Session), "duplicate")
		s.metrics.ObserveCommitLatency("duplicate", elapsed)
		return booking.Appointment{}, err
	case err != nil:
		s.metrics.ObserveBooking(string(state.Session), "error")
		s.metrics.ObserveCommitLatency("error", elapsed)
		return booking.Appointment{}, err
	}
	s.metrics.ObserveBooking(string(state.Session), "committed")
	s.metrics.ObserveCommitLatency("committed", elapsed)

	if err := s.states.Clear(ctx, sessionID); err != nil {
		// The booking is already durable; a stale state only blocks this
		// visitor until the TTL runs out.
		s.logger.Warn("failed to clear wizard state after commit", "error", err)
	}
	s.logger.Info("booking committed",
		"appointment_id", appt.ID, "session", appt.Session,
		"date", state.ClinicDate, "registration_number", appt.RegistrationNumber)
	return appt, nil
}

// Abandon drops any in-progress state.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	return s.states.Clear(ctx, sessionID)
}

func (s *Service) loadAt(ctx context.Context, sessionID string, want Step) (*State, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoSession
	}
	if state.Step != want {
		return nil, ErrWrongStep
	}
	return state, nil
}

// slotWindow resolves the session window for a concrete date, treating a
// missing weekday row or a disabled session as an unbookable slot.
func (s *Service) slotWindow(ctx context.Context, date time.Time, session schedule.Session) (schedule.SessionWindow, error) {
	row, err := s.schedules.Get(ctx, schedule.Weekday(date))
	if errors.Is(err, schedule.ErrNotFound) {
		return schedule.SessionWindow{}, ErrInvalidSlot
	}
	if err != nil {
		return schedule.SessionWindow{}, err
	}
	win := row.Window(session)
	if !win.Enabled || win.Capacity <= 0 {
		return schedule.SessionWindow{}, ErrInvalidSlot
	}
	return win, nil
}

func (s *Service) validateLikert(ctx context.Context, answers map[int64]int) ([]booking.LikertAnswer, error) {
	questions, err := s.questions.ActiveLikert(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]booking.LikertAnswer, 0, len(questions))
	for _, q := range questions {
		score, ok := answers[q.ID]
		if !ok {
			return nil, validationf("question %d is unanswered", q.ID)
		}
		if score < survey.LikertMin || score > survey.LikertMax {
			return nil, validationf("question %d: score %d is out of range", q.ID, score)
		}
		out = append(out, booking.LikertAnswer{QuestionID: q.ID, Score: score})
	}
	if len(answers) > len(questions) {
		return nil, validationf("answers submitted for unknown questions")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (s *Service) validateNumeric(ctx context.Context, answers map[int64]string) ([]booking.NumericAnswer, error) {
	questions, err := s.questions.ActiveNumeric(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]booking.NumericAnswer, 0, len(questions))
	for _, q := range questions {
		value, ok := answers[q.ID]
		if !ok {
			return nil, validationf("question %d is unanswered", q.ID)
		}
		if !numericValuePattern.MatchString(value) {
			return nil, validationf("question %d: value %q must be a number with at most one decimal place", q.ID, value)
		}
		out = append(out, booking.NumericAnswer{QuestionID: q.ID, Value: value})
	}
	if len(answers) > len(questions) {
		return nil, validationf("answers submitted for unknown questions")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}
