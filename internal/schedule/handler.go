package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the staff schedule management endpoints.
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

// ListWeek handles GET /management/schedule. The full week is provisioned
// on first access so the management screen always sees seven rows.
func (h *Handler) ListWeek(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.EnsureWeek(r.Context()); err != nil {
		h.logger.Error("failed to provision schedule week", "error", err)
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	rows, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list schedule", "error", err)
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"schedule": rows})
}

// SetTimesRequest carries the global display ranges applied to all seven
// weekday rows at once.
type SetTimesRequest struct {
	MorningTime   string `json:"morning_time"`
	AfternoonTime string `json:"afternoon_time"`
	EveningTime   string `json:"evening_time"`
}

// SetTimes handles PUT /management/schedule/times.
func (h *Handler) SetTimes(w http.ResponseWriter, r *http.Request) {
	var req SetTimesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.MorningTime == "" || req.AfternoonTime == "" || req.EveningTime == "" {
		http.Error(w, "all three session times are required", http.StatusBadRequest)
		return
	}
	if err := h.repo.SetSessionTimes(r.Context(), req.MorningTime, req.AfternoonTime, req.EveningTime); err != nil {
		h.logger.Error("failed to update session times", "error", err)
		http.Error(w, "failed to update session times", http.StatusInternalServerError)
		return
	}
	h.logger.Info("session times updated",
		"morning", req.MorningTime,
		"afternoon", req.AfternoonTime,
		"evening", req.EveningTime,
	)
	w.WriteHeader(http.StatusNoContent)
}

// SetCapacityRequest toggles one session on one weekday.
type SetCapacityRequest struct {
	Enabled  bool `json:"enabled"`
	Capacity int  `json:"capacity"`
}

// SetCapacity handles PUT /management/schedule/{weekday}/{session}.
func (h *Handler) SetCapacity(w http.ResponseWriter, r *http.Request) {
	weekday, err := strconv.Atoi(chi.URLParam(r, "weekday"))
	if err != nil || weekday < 0 || weekday > 6 {
		http.Error(w, "weekday must be 0-6", http.StatusBadRequest)
		return
	}
	session := Session(chi.URLParam(r, "session"))
	if !session.Valid() {
		http.Error(w, "unknown session", http.StatusBadRequest)
		return
	}

	var req SetCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Capacity < 0 {
		http.Error(w, "capacity must not be negative", http.StatusBadRequest)
		return
	}

	err = h.repo.SetCapacityAndEnabled(r.Context(), weekday, session, req.Enabled, req.Capacity)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "no schedule row for that weekday", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to update capacity", "error", err, "weekday", weekday, "session", session)
		http.Error(w, "failed to update capacity", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
