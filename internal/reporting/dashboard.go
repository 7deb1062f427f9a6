package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

const dashboardCacheKey = "dashboard:summary"

// DayCount is one day's booking load in the dashboard window.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Dashboard is the staff overview, rebuilt from the projection table and
// memoized in redis between requests.
type Dashboard struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	WindowDays     int            `json:"window_days"`
	TotalUpcoming  int            `json:"total_upcoming"`
	BySession      map[string]int `json:"by_session"`
	ByDay          []DayCount     `json:"by_day"`
	AverageAge     float64        `json:"average_age"`
	CommittedTotal float64        `json:"committed_total"`
	CalledTotal    float64        `json:"called_total"`
}

// DashboardService computes and caches the staff overview.
type DashboardService struct {
	db         reportingDB
	redis      *redis.Client
	gatherer   prometheus.Gatherer
	ttl        time.Duration
	windowDays int
	logger     *logging.Logger
}

func NewDashboardService(pool *pgxpool.Pool, client *redis.Client, gatherer prometheus.Gatherer, ttl time.Duration, windowDays int, logger *logging.Logger) *DashboardService {
	if pool == nil {
		panic("reporting: pgx pool required")
	}
	return newDashboardServiceWithDB(pool, client, gatherer, ttl, windowDays, logger)
}

func newDashboardServiceWithDB(db reportingDB, client *redis.Client, gatherer prometheus.Gatherer, ttl time.Duration, windowDays int, logger *logging.Logger) *DashboardService {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardService{
		db:         db,
		redis:      client,
		gatherer:   gatherer,
		ttl:        ttl,
		windowDays: windowDays,
		logger:     logger,
	}
}

// Get returns the cached dashboard, rebuilding it when the cache is cold.
// Cache failures degrade to a fresh rebuild, never to an error.
func (s *DashboardService) Get(ctx context.Context, now time.Time) (Dashboard, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, dashboardCacheKey).Bytes()
		if err == nil {
			var cached Dashboard
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", "error", err)
		}
	}

	dash, err := s.build(ctx, now)
	if err != nil {
		return Dashboard{}, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(dash); err == nil {
			if err := s.redis.Set(ctx, dashboardCacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", "error", err)
			}
		}
	}
	return dash, nil
}

// Invalidate drops the cached dashboard so the next read rebuilds it.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", "error", err)
	}
}

func (s *DashboardService) build(ctx context.Context, now time.Time) (Dashboard, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, s.windowDays)

	dash := Dashboard{
		GeneratedAt: now.UTC(),
		WindowDays:  s.windowDays,
		BySession:   map[string]int{},
	}

	rows, err := s.db.Query(ctx, `
		SELECT clinic_date::text, session, count(*)
		FROM appointment_projections
		WHERE clinic_date >= $1 AND clinic_date < $2
		GROUP BY clinic_date, session
		ORDER BY clinic_date`, start, end)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reporting: dashboard counts: %w", err)
	}
	defer rows.Close()

	byDay := map[string]int{}
	var order []string
	for rows.Next() {
		var date, session string
		var count int
		if err := rows.Scan(&date, &session, &count); err != nil {
			return Dashboard{}, fmt.Errorf("reporting: scan dashboard count: %w", err)
		}
		dash.TotalUpcoming += count
		dash.BySession[session] += count
		if _, seen := byDay[date]; !seen {
			order = append(order, date)
		}
		byDay[date] += count
	}
	if err := rows.Err(); err != nil {
		return Dashboard{}, err
	}
	for _, date := range order {
		dash.ByDay = append(dash.ByDay, DayCount{Date: date, Count: byDay[date]})
	}

	if err := s.db.QueryRow(ctx, `
		SELECT COALESCE(avg(age), 0)
		FROM appointment_projections
		WHERE clinic_date >= $1 AND clinic_date < $2`, start, end).Scan(&dash.AverageAge); err != nil {
		return Dashboard{}, fmt.Errorf("reporting: dashboard average age: %w", err)
	}

	dash.CommittedTotal = s.counterTotal("clinic_booking_bookings_total", "status", "committed")
	dash.CalledTotal = s.counterTotal("clinic_queue_calls_total", "operation", "called")
	return dash, nil
}

// counterTotal reads a process-lifetime counter out of the prometheus
// registry, summed across the metrics matching one label.
func (s *DashboardService) counterTotal(metric, label, value string) float64 {
	families, err := s.gatherer.Gather()
	if err != nil {
		s.logger.Warn("failed to gather metrics for dashboard", "error", err)
		return 0
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != metric {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelEquals(m, label, value) {
				continue
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func labelEquals(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue() == value
		}
	}
	return false
}
