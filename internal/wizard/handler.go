package wizard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dentalops/clinic-platform/internal/booking"
	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

const sessionCookie = "booking_session"

// Handler exposes the patient-facing wizard endpoints. The visitor is
// identified by an opaque cookie; all progress lives server-side.
type Handler struct {
	svc    *Service
	now    func() time.Time
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, now: time.Now, logger: logger}
}

// Start handles POST /booking/start. It always begins a fresh wizard,
// discarding any previous progress for the same visitor.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state, err := h.svc.Start(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to start wizard", "error", err)
		http.Error(w, "failed to start booking", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, state)
}

// Slots handles GET /booking/slots.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.svc.Slots(r.Context(), h.now())
	if err != nil {
		h.logger.Error("failed to list slots", "error", err)
		http.Error(w, "failed to list slots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

// ChooseSlot handles POST /booking/slot.
func (h *Handler) ChooseSlot(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		http.Error(w, "no booking in progress", http.StatusConflict)
		return
	}
	var req struct {
		Date    string           `json:"date"`
		Session schedule.Session `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	state, err := h.svc.ChooseSlot(r.Context(), sessionID, h.now(), req.Date, req.Session)
	if err != nil {
		h.writeError(w, err, "failed to choose slot")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SubmitIdentity handles POST /booking/identity.
func (h *Handler) SubmitIdentity(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		http.Error(w, "no booking in progress", http.StatusConflict)
		return
	}
	var req struct {
		booking.Patient
		SymptomIDs []int64 `json:"symptom_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	state, err := h.svc.SubmitIdentity(r.Context(), sessionID, req.Patient, req.SymptomIDs)
	if err != nil {
		h.writeError(w, err, "failed to record identity")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SubmitSurvey handles POST /booking/survey and, on success, returns the
// committed appointment with its registration number.
func (h *Handler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		http.Error(w, "no booking in progress", http.StatusConflict)
		return
	}
	var req struct {
		Likert  map[int64]int    `json:"likert"`
		Numeric map[int64]string `json:"numeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.SubmitSurvey(r.Context(), sessionID, req.Likert, req.Numeric)
	if err != nil {
		h.writeError(w, err, "failed to commit booking")
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Abandon handles DELETE /booking.
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.svc.Abandon(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to abandon wizard", "error", err)
		http.Error(w, "failed to abandon booking", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Msg, http.StatusBadRequest)
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrWrongStep):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidSlot):
		http.Error(w, "slot is not bookable", http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrSlotFull):
		http.Error(w, "slot is full", http.StatusConflict)
	case errors.Is(err, booking.ErrDuplicateBooking):
		http.Error(w, "you already have a booking in this slot", http.StatusConflict)
	default:
		h.logger.Error(logMsg, "error", err)
		http.Error(w, logMsg, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
