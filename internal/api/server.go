// Package api provides the local HTTP server for bloom: a JSON API over
// mood check-ins, journal entries, insights and the garden, plus a live
// dashboard feed.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloom-journal/bloom/internal/app/dashboard"
	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/app/journal"
	"github.com/bloom-journal/bloom/internal/app/ledger"
	"github.com/bloom-journal/bloom/internal/domain"
	"github.com/bloom-journal/bloom/internal/health"
	"github.com/bloom-journal/bloom/internal/infra/logger"
)

// Server is the bloom HTTP API server.
type Server struct {
	records        *journal.Service
	garden         *engagement.GardenService
	clock          clockwork.Clock
	log            *logger.Logger
	dash           *dashboard.Dashboard // nil disables /api/dashboard/live
	health         *health.Checker      // nil reports ok unconditionally
	ledger         *ledger.Service      // nil disables /api/garden/history
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(records *journal.Service, garden *engagement.GardenService, clock clockwork.Clock, log *logger.Logger) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		records: records,
		garden:  garden,
		clock:   clock,
		log:     log.With("component", "api"),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetDashboard enables the live dashboard feed.
func (s *Server) SetDashboard(d *dashboard.Dashboard) { s.dash = d }

// SetLedger enables the garden history endpoint.
func (s *Server) SetLedger(l *ledger.Service) { s.ledger = l }

// SetHealth sets the checker behind /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Post("/moods", s.handleLogMood)
			r.Get("/moods", s.handleListMoods)
			r.Delete("/moods", s.handleClearMoods)

			r.Post("/journals", s.handleWriteJournal)
			r.Get("/journals", s.handleListJournals)
			r.Post("/journals/{id}/archive", s.handleToggleArchive)
			r.Delete("/journals/{id}", s.handleDeleteJournal)

			r.Route("/insights", func(r chi.Router) {
				r.Get("/week", s.handleWeek)
				r.Get("/timeline", s.handleTimeline)
				r.Get("/month", s.handleMonth)
				r.Get("/streak", s.handleStreak)
			})

			r.Route("/garden", func(r chi.Router) {
				r.Get("/", s.handleGarden)
				r.Post("/water", s.handleWater)
				r.Post("/daily", s.handleDailyReset)
				r.Post("/rewards/clear", s.handleClearRewards)
				r.Get("/activity", s.handleActivity)
				if s.ledger != nil {
					r.Get("/history", s.handleHistory)
				}
			})
		})

		// Long-lived stream, outside the request timeout.
		if s.dash != nil {
			r.Get("/dashboard/live", s.handleDashboardLive)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
		return
	}

	statuses := s.health.CheckNow(r.Context())
	status, code := "ok", http.StatusOK
	for _, st := range statuses {
		if !st.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": statuses,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "storage_unavailable"
	default:
		return "error"
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidMood),
		errors.Is(err, domain.ErrInvalidIntensity),
		errors.Is(err, domain.ErrEmptyJournal):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJournalNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	writeError(w, status, err.Error())
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
