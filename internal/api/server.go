// Package api provides the HTTP server for GreenPoint.
// It exposes the team leaderboard endpoints the web client already speaks,
// plus the user, chat and live-update APIs.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/greenpoint-eco/greenpoint/internal/app/chat"
	"github.com/greenpoint-eco/greenpoint/internal/app/engagement"
	"github.com/greenpoint-eco/greenpoint/internal/app/events"
	"github.com/greenpoint-eco/greenpoint/internal/app/leaderboard"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
)

const maxBodyBytes = 1 << 20

// Server is the GreenPoint HTTP API server.
type Server struct {
	board  *leaderboard.Service
	chat   *chat.Service
	engine *engagement.Engine
	bus    *events.Bus
	log    *logger.Logger

	metricsPath    string // empty = /metrics disabled
	corsOrigins    []string
	requestTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(board *leaderboard.Service, chatSvc *chat.Service, engine *engagement.Engine, bus *events.Bus, log *logger.Logger) *Server {
	return &Server{
		board:          board,
		chat:           chatSvc,
		engine:         engine,
		bus:            bus,
		log:            logger.OrNop(log).Component("api"),
		requestTimeout: 90 * time.Second,
	}
}

// EnableMetrics mounts the Prometheus endpoint at path.
func (s *Server) EnableMetrics(path string) {
	if path == "" {
		path = "/metrics"
	}
	s.metricsPath = path
}

// SetCORSOrigins restricts cross-origin access to origins.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetRequestTimeout bounds non-streaming requests.
func (s *Server) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		s.requestTimeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.corsHandler().Handler)

	// Live updates stream outside the request timeout.
	if s.bus != nil {
		r.Get("/api/events", s.handleEvents)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "ok",
			})
		})

		// Team leaderboard (web client contract)
		r.Get("/teams", s.handleTeams)
		r.Post("/member/join", s.handleJoin)
		r.Post("/team/score", s.handleTeamScore)
		r.Post("/prompt/evaluate", s.handleEvaluate)

		r.Route("/api", func(r chi.Router) {
			r.Post("/prompt/validate", s.handleValidate)

			r.Post("/users", s.handleCreateUser)
			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetUser)
				r.Post("/chat", s.handleChat)
				r.Get("/messages", s.handleMessages)
				r.Delete("/messages", s.handleClearMessages)
				r.Get("/achievements", s.handleAchievements)
				r.Post("/achievements/{achievementId}", s.handleUpdateAchievement)
				r.Post("/xp", s.handleAddXP)
				r.Get("/analytics", s.handleAnalytics)
			})
		})
	})

	// Prometheus metrics endpoint
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	return r
}

func (s *Server) corsHandler() *cors.Cors {
	if len(s.corsOrigins) == 0 {
		return cors.AllowAll()
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
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
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "server_error"
	default:
		return "invalid_request"
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrUnknownAchievement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
