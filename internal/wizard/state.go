package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dentalops/clinic-platform/internal/booking"
	"github.com/dentalops/clinic-platform/internal/schedule"
)

// Step names the wizard's three stages. A request for a later step with an
// earlier (or missing) state is rejected, never silently reordered.
type Step string

const (
	StepSelectingSlot      Step = "selecting_slot"
	StepCollectingIdentity Step = "collecting_identity"
	StepCollectingSurvey   Step = "collecting_survey"
)

// State is one visitor's in-progress booking. It lives server-side under a
// TTL; losing it just restarts the wizard, it never half-commits.
type State struct {
	Step       Step             `json:"step"`
	ClinicDate string           `json:"clinic_date,omitempty"`
	Session    schedule.Session `json:"session,omitempty"`
	Patient    booking.Patient  `json:"patient,omitempty"`
	SymptomIDs []int64          `json:"symptom_ids,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Date parses the stored clinic date as a UTC calendar day.
func (s State) Date() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s.ClinicDate, time.UTC)
}

// StateStore keeps wizard states in redis, one key per visitor session.
type StateStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *StateStore {
	if client == nil {
		panic("wizard: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if tracer == nil {
		tracer = otel.Tracer("clinic.internal.wizard.state")
	}
	return &StateStore{redis: client, tracer: tracer, ttl: ttl}
}

func stateKey(sessionID string) string {
	return fmt.Sprintf("wizard:%s", sessionID)
}

func (s *StateStore) Save(ctx context.Context, sessionID string, state State) error {
	ctx, span := s.tracer.Start(ctx, "wizard.save_state")
	defer span.End()

	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to persist state: %w", err)
	}
	return nil
}

// Load returns the visitor's state, or (nil, nil) when none is stored.
func (s *StateStore) Load(ctx context.Context, sessionID string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to decode state: %w", err)
	}
	return &state, nil
}

func (s *StateStore) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "wizard.clear_state")
	defer span.End()

	if err := s.redis.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to clear state: %w", err)
	}
	return nil
}
