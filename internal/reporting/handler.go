package reporting

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the staff reporting endpoints.
type Handler struct {
	sheet     *DataSheet
	dashboard *DashboardService
	now       func() time.Time
	logger    *logging.Logger
}

func NewHandler(sheet *DataSheet, dashboard *DashboardService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sheet: sheet, dashboard: dashboard, now: time.Now, logger: logger}
}

func (h *Handler) parseFilters(r *http.Request) (time.Time, schedule.Session, error) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = h.now().UTC().Format("2006-01-02")
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid date, want YYYY-MM-DD")
	}
	session := schedule.Session(r.URL.Query().Get("session"))
	if session != "" && !session.Valid() {
		return time.Time{}, "", fmt.Errorf("unknown session")
	}
	return date, session, nil
}

// DataSheet handles GET /management/data-sheet.
func (h *Handler) DataSheet(w http.ResponseWriter, r *http.Request) {
	date, session, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.sheet.ListByDate(r.Context(), date, session, r.URL.Query().Get("sort"))
	if err != nil {
		h.logger.Error("failed to load data sheet", "error", err)
		http.Error(w, "failed to load data sheet", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"date": date.Format("2006-01-02"),
		"rows": rows,
	})
}

// ExportCSV handles GET /management/data-sheet/export.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	date, session, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", ExportFilename(date, h.now())))
	if err := h.sheet.WriteCSV(r.Context(), w, date, session); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("failed to export data sheet", "error", err)
	}
}

// Dashboard handles GET /management/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Get(r.Context(), h.now())
	if err != nil {
		h.logger.Error("failed to build dashboard", "error", err)
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dash)
}
