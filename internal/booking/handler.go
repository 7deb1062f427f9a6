package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the staff ledger endpoints: the per-day listing and the
// soft delete. Patient-facing booking goes through the wizard instead.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /management/appointments?date=2006-01-02&session=morning.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	session := schedule.Session(r.URL.Query().Get("session"))
	if session != "" && !session.Valid() {
		http.Error(w, "unknown session", http.StatusBadRequest)
		return
	}

	appts, err := h.repo.ListVisible(r.Context(), date, session)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "date", dateStr)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"date":         dateStr,
		"appointments": appts,
	})
}

// Hide handles POST /management/appointments/{id}/hide.
func (h *Handler) Hide(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	switch err := h.repo.Hide(r.Context(), id); {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case err != nil:
		h.logger.Error("failed to hide appointment", "error", err, "appointment_id", id)
		http.Error(w, "failed to hide appointment", http.StatusInternalServerError)
	default:
		h.logger.Info("appointment hidden", "appointment_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}
