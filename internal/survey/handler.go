package survey

import (
	"encoding/json"
	"net/http"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the staff survey-question management endpoints.
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

// ListQuestions handles GET /management/survey-questions.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	likert, err := h.repo.ActiveLikert(r.Context())
	if err != nil {
		h.logger.Error("failed to list likert questions", "error", err)
		http.Error(w, "failed to load survey questions", http.StatusInternalServerError)
		return
	}
	numeric, err := h.repo.ActiveNumeric(r.Context())
	if err != nil {
		h.logger.Error("failed to list numeric questions", "error", err)
		http.Error(w, "failed to load survey questions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"likert":  likert,
		"numeric": numeric,
	})
}

// SaveLikert handles POST /management/survey-questions/likert.
func (h *Handler) SaveLikert(w http.ResponseWriter, r *http.Request) {
	var q LikertQuestion
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if q.Name == "" {
		http.Error(w, "question name is required", http.StatusBadRequest)
		return
	}
	if q.MinLabel == "" {
		q.MinLabel = "Strongly disagree"
	}
	if q.MaxLabel == "" {
		q.MaxLabel = "Strongly agree"
	}
	if err := h.repo.UpsertLikert(r.Context(), &q); err != nil {
		h.logger.Error("failed to save likert question", "error", err)
		http.Error(w, "failed to save question", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(q)
}

// SaveNumeric handles POST /management/survey-questions/numeric.
func (h *Handler) SaveNumeric(w http.ResponseWriter, r *http.Request) {
	var q NumericQuestion
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if q.Question == "" {
		http.Error(w, "question text is required", http.StatusBadRequest)
		return
	}
	if err := h.repo.UpsertNumeric(r.Context(), &q); err != nil {
		h.logger.Error("failed to save numeric question", "error", err)
		http.Error(w, "failed to save question", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(q)
}
