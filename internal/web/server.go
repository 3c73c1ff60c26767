// Package web serves the statement import HTTP API and its HTMX fragments.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/stmtimport/internal/config"
	"github.com/JonMunkholm/stmtimport/internal/core"
	"github.com/JonMunkholm/stmtimport/internal/web/middleware"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for statement imports.
type Server struct {
	service *core.ImportService
	db      Pinger
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*middleware.RateLimiter
}

// NewServer builds the router. db may be nil, in which case /healthz does
// not check the database.
func NewServer(service *core.ImportService, db Pinger, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		db:      db,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(withClient)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).Middleware)
	}
}

// importLimit returns the stricter limiter for uploads and commits.
func (s *Server) importLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(s.cfg.Rate.ImportLimit).Middleware
}

func (s *Server) newLimiter(perMinute int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute)
	s.limiters = append(s.limiters, rl)
	return rl
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.APIKeys, s.cfg.Security.RequireAPIKey))

		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", s.handleListStrategies)
			r.Post("/", s.handleCreateStrategy)
			r.Post("/match", s.handleMatchStrategies)
			r.Get("/{id}", s.handleGetStrategy)
			r.Put("/{id}", s.handleUpdateStrategy)
			r.Delete("/{id}", s.handleDeleteStrategy)
			r.Get("/{id}/export", s.handleExportStrategy)
		})

		r.Post("/strategy-imports/parse", s.handleParseStrategyImport)
		r.Post("/strategy-imports", s.handleImportStrategy)

		importLimit := s.importLimit()
		r.Route("/imports", func(r chi.Router) {
			r.With(importLimit).Post("/", s.handlePrepareImport)
			r.Get("/{id}", s.handleGetImport)
			r.Delete("/{id}", s.handleDiscardImport)
			r.Post("/{id}/accounts", s.handleCreateAccounts)
			r.With(importLimit).Post("/{id}/commit", s.handleCommitImport)
			r.Get("/{id}/errors.csv", s.handleErrorsCSV)
			r.Get("/{id}/statement", s.handleStatement)
		})
	})
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

type healthResponse struct {
	Status   string             `json:"status"`
	Database string             `json:"database,omitempty"`
	Commits  core.LimiterStatus `json:"commits"`
	Time     time.Time          `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Commits: s.service.LimiterStatus(),
		Time:    time.Now().UTC(),
	}
	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			slog.Error("health check: database unreachable", "error", err)
			resp.Status, resp.Database = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSONStatus(w, status, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// the header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
