package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dentalops/clinic-platform/internal/booking"
	"github.com/dentalops/clinic-platform/internal/catalog"
	"github.com/dentalops/clinic-platform/internal/clinic"
	httpmiddleware "github.com/dentalops/clinic-platform/internal/http/middleware"
	"github.com/dentalops/clinic-platform/internal/queue"
	"github.com/dentalops/clinic-platform/internal/reporting"
	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/internal/survey"
	"github.com/dentalops/clinic-platform/internal/wizard"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	ClinicHandler    *clinic.Handler
	ScheduleHandler  *schedule.Handler
	QueueHandler     *queue.Handler
	WizardHandler    *wizard.Handler
	BookingHandler   *booking.Handler
	SurveyHandler    *survey.Handler
	ReportingHandler *reporting.Handler
	CatalogHandler   *catalog.Handler

	StaffAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: the landing page, the waiting-room display, and the
	// patient booking wizard.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ClinicHandler != nil {
			public.Get("/", cfg.ClinicHandler.Home)
		}
		if cfg.QueueHandler != nil {
			public.Get("/queue/status", cfg.QueueHandler.Status)
		}
		if cfg.WizardHandler != nil {
			public.Route("/booking", func(r chi.Router) {
				r.Post("/start", cfg.WizardHandler.Start)
				r.Get("/slots", cfg.WizardHandler.Slots)
				r.Post("/slot", cfg.WizardHandler.ChooseSlot)
				r.Post("/identity", cfg.WizardHandler.SubmitIdentity)
				r.Post("/survey", cfg.WizardHandler.SubmitSurvey)
				r.Delete("/", cfg.WizardHandler.Abandon)
			})
		}
		if cfg.CatalogHandler != nil {
			public.Route("/library", func(r chi.Router) {
				r.Get("/books", cfg.CatalogHandler.ListBooks)
				r.Get("/books/{id}", cfg.CatalogHandler.GetBook)
			})
		}
	})

	// Staff routes (protected by JWT)
	if cfg.StaffAuthSecret != "" {
		r.Route("/management", func(staff chi.Router) {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))

			if cfg.QueueHandler != nil {
				staff.Post("/queue/call", cfg.QueueHandler.CallNext)
				staff.Post("/queue/reset", cfg.QueueHandler.Reset)
			}
			if cfg.ScheduleHandler != nil {
				staff.Get("/schedule", cfg.ScheduleHandler.ListWeek)
				staff.Put("/schedule/times", cfg.ScheduleHandler.SetTimes)
				staff.Put("/schedule/{weekday}/{session}", cfg.ScheduleHandler.SetCapacity)
			}
			if cfg.BookingHandler != nil {
				staff.Get("/appointments", cfg.BookingHandler.List)
				staff.Post("/appointments/{id}/hide", cfg.BookingHandler.Hide)
			}
			if cfg.ReportingHandler != nil {
				staff.Get("/data-sheet", cfg.ReportingHandler.DataSheet)
				staff.Get("/data-sheet/export", cfg.ReportingHandler.ExportCSV)
				staff.Get("/dashboard", cfg.ReportingHandler.Dashboard)
			}
			if cfg.ClinicHandler != nil {
				staff.Get("/dentists", cfg.ClinicHandler.ListDentists)
				staff.Post("/dentists", cfg.ClinicHandler.SaveDentist)
				staff.Get("/symptoms", cfg.ClinicHandler.ListSymptoms)
				staff.Post("/symptoms", cfg.ClinicHandler.SaveSymptom)
				staff.Get("/info", cfg.ClinicHandler.GetInfo)
				staff.Put("/info", cfg.ClinicHandler.UpdateInfo)
			}
			if cfg.SurveyHandler != nil {
				staff.Get("/survey-questions", cfg.SurveyHandler.ListQuestions)
				staff.Post("/survey-questions/likert", cfg.SurveyHandler.SaveLikert)
				staff.Post("/survey-questions/numeric", cfg.SurveyHandler.SaveNumeric)
			}
		})
	}

	return r
}
