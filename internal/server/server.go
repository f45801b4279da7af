package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
)

// Accounts is the profile, measurement, preference and equipment storage
// the account endpoints need. *storage.DB implements it.
type Accounts interface {
	Ping(ctx context.Context) error
	GetUserProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID int, u models.ProfileUpdate) (*models.UserProfile, error)
	InsertMeasurement(ctx context.Context, userID int, weight float64, height int) (*models.Measurement, error)
	GetTrainingPreferences(ctx context.Context, userID int) (*models.TrainingPreferences, error)
	UpsertTrainingPreferences(ctx context.Context, userID int, u models.PreferencesUpdate) (*models.TrainingPreferences, bool, error)
	GrantAccessCategory(ctx context.Context, userID int, category string) (*storage.Grant, error)
}

var _ Accounts = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	accounts  Accounts
	programs  *program.Service
	log       *slog.Logger
	jwtSecret []byte
	mcp       http.Handler
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(accounts Accounts, programs *program.Service, jwtSecret []byte, log *slog.Logger) *Server {
	s := &Server{
		accounts:  accounts,
		programs:  programs,
		log:       log,
		jwtSecret: jwtSecret,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.jwtSecret))

		r.Get("/users/me", s.handleGetProfile)
		r.Patch("/users/me", s.handleUpdateProfile)
		r.Post("/users/me/measurements", s.handleAddMeasurement)
		r.Get("/users/me/preferences", s.handleGetPreferences)
		r.Put("/users/me/preferences", s.handlePutPreferences)
		r.Post("/users/me/equipment-access", s.handleGrantEquipment)
		r.Get("/users/me/exercises", s.handleAccessibleExercises)

		r.Post("/programs", s.handleGenerateProgram)
		r.Get("/programs/latest", s.handleLatestProgram)

		r.Patch("/sessions/{sessionID}", s.handleUpdateSession)
		r.Patch("/sessions/{sessionID}/sets", s.handleUpdateSet)
		r.Post("/sessions/{sessionID}/sets", s.handleAddSet)
		r.Delete("/sessions/{sessionID}/sets", s.handleDeleteSet)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.jwtSecret))
		r.Handle("/mcp", http.HandlerFunc(s.serveMCP))
	})
}

// SetMCP mounts the MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

func (s *Server) serveMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		http.NotFound(w, r)
		return
	}
	s.mcp.ServeHTTP(w, r)
}
