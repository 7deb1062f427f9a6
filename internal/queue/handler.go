package queue

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the front-desk call-number endpoints.
type Handler struct {
	service *Service
	now     func() time.Time
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, now: time.Now, logger: logger}
}

// CallNext handles POST /management/queue/call.
func (h *Handler) CallNext(w http.ResponseWriter, r *http.Request) {
	n, session, err := h.service.CallNext(r.Context(), h.now())
	if errors.Is(err, ErrOutsideHours) {
		http.Error(w, "outside clinic hours; calling is disabled", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("call next failed", "error", err)
		http.Error(w, "failed to call next number", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session": session,
		"number":  n,
	})
}

// Reset handles POST /management/queue/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Reset(r.Context(), h.now())
	if errors.Is(err, ErrOutsideHours) {
		http.Error(w, "outside clinic hours; reset is disabled", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("reset failed", "error", err)
		http.Error(w, "failed to reset number", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session": session,
		"number":  0,
	})
}

// Status handles GET /queue/status for the public waiting-room display.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context(), h.now())
	if err != nil {
		h.logger.Error("queue status failed", "error", err)
		http.Error(w, "failed to load queue status", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
