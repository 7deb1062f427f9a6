package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dentalops/clinic-platform/internal/queue"
	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the staff directory-management endpoints plus the public
// home view.
type Handler struct {
	store     *Store
	schedules *schedule.Repository
	queue     *queue.Service
	now       func() time.Time
	logger    *logging.Logger
}

func NewHandler(store *Store, schedules *schedule.Repository, queueSvc *queue.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:     store,
		schedules: schedules,
		queue:     queueSvc,
		now:       time.Now,
		logger:    logger,
	}
}

// HomeResponse is the public landing view: live queue status plus the
// directory content.
type HomeResponse struct {
	Status   queue.Status              `json:"status"`
	Info     Info                      `json:"info"`
	Dentists []Dentist                 `json:"dentists"`
	Hours    []schedule.WeeklySchedule `json:"hours"`
}

// Home handles GET / for the public waiting-room and landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.queue.Status(ctx, h.now())
	if err != nil {
		h.logger.Error("failed to resolve queue status", "error", err)
		http.Error(w, "failed to load clinic status", http.StatusInternalServerError)
		return
	}
	info, err := h.store.GetInfo(ctx)
	if err != nil {
		h.logger.Error("failed to load clinic info", "error", err)
		http.Error(w, "failed to load clinic status", http.StatusInternalServerError)
		return
	}
	dentists, err := h.store.ListDentists(ctx)
	if err != nil {
		h.logger.Error("failed to list dentists", "error", err)
		http.Error(w, "failed to load clinic status", http.StatusInternalServerError)
		return
	}
	hours, err := h.schedules.List(ctx)
	if err != nil {
		h.logger.Error("failed to list schedule", "error", err)
		http.Error(w, "failed to load clinic status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HomeResponse{
		Status:   status,
		Info:     info,
		Dentists: dentists,
		Hours:    hours,
	})
}

// ListDentists handles GET /management/dentists.
func (h *Handler) ListDentists(w http.ResponseWriter, r *http.Request) {
	h.listJSON(w, r.Context(), "dentists", func(ctx context.Context) (any, error) {
		return h.store.ListDentists(ctx)
	})
}

// SaveDentist handles POST /management/dentists.
func (h *Handler) SaveDentist(w http.ResponseWriter, r *http.Request) {
	var d Dentist
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if d.Name == "" {
		http.Error(w, "dentist name is required", http.StatusBadRequest)
		return
	}
	if err := h.store.UpsertDentist(r.Context(), &d); err != nil {
		h.logger.Error("failed to save dentist", "error", err)
		http.Error(w, "failed to save dentist", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(d)
}

// ListSymptoms handles GET /management/symptoms.
func (h *Handler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	h.listJSON(w, r.Context(), "symptoms", func(ctx context.Context) (any, error) {
		return h.store.ActiveSymptoms(ctx)
	})
}

// SaveSymptom handles POST /management/symptoms.
func (h *Handler) SaveSymptom(w http.ResponseWriter, r *http.Request) {
	var sym Symptom
	if err := json.NewDecoder(r.Body).Decode(&sym); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if sym.Name == "" {
		http.Error(w, "symptom name is required", http.StatusBadRequest)
		return
	}
	if err := h.store.UpsertSymptom(r.Context(), &sym); err != nil {
		h.logger.Error("failed to save symptom", "error", err)
		http.Error(w, "failed to save symptom", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sym)
}

// GetInfo handles GET /management/info.
func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetInfo(r.Context())
	if err != nil {
		h.logger.Error("failed to load clinic info", "error", err)
		http.Error(w, "failed to load clinic info", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// UpdateInfo handles PUT /management/info.
func (h *Handler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	var info Info
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateInfo(r.Context(), info); err != nil {
		h.logger.Error("failed to update clinic info", "error", err)
		http.Error(w, "failed to update clinic info", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listJSON(w http.ResponseWriter, ctx context.Context, key string, load func(context.Context) (any, error)) {
	items, err := load(ctx)
	if err != nil {
		h.logger.Error("failed to list "+key, "error", err)
		http.Error(w, "failed to list "+key, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{key: items})
}
