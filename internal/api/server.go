package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/grantdesk/internal/api/handler"
	mw "github.com/edvin/grantdesk/internal/api/middleware"
	"github.com/edvin/grantdesk/internal/config"
)

type Server struct {
	router     chi.Router
	logger     zerolog.Logger
	cfg        *config.Config
	resolver   *config.Resolver
	store      handler.Store
	automation handler.AutomationClient
	pool       *pgxpool.Pool
}

// NewServer wires the HTTP surface over the dashboard store and the
// automation client. pool is nil unless the postgres driver is in use.
func NewServer(logger zerolog.Logger, cfg *config.Config, resolver *config.Resolver, store handler.Store, automation handler.AutomationClient, pool *pgxpool.Pool) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger,
		cfg:        cfg,
		resolver:   resolver,
		store:      store,
		automation: automation,
		pool:       pool,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger, func() bool { return s.resolver.Settings().RequestLogging }))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Dashboard state
		dashboard := handler.NewDashboard(s.store)
		r.Get("/state", dashboard.State)
		r.Post("/refresh", dashboard.Refresh)
		r.Post("/table-mode/toggle", dashboard.ToggleTableMode)

		// Grants
		grant := handler.NewGrant(s.store)
		r.Get("/grants", grant.List)
		r.Post("/grants", grant.Create)
		r.Put("/grants/{id}", grant.Update)
		r.Delete("/grants/{id}", grant.Delete)

		// Workflows
		workflow := handler.NewWorkflow(s.store, s.automation)
		r.Get("/workflows", workflow.List)
		r.Get("/workflows/{id}", workflow.Get)
		r.Get("/workflows/{id}/executions", workflow.Executions)
		r.Post("/workflows/{id}/activate", workflow.Activate)
		r.Post("/workflows/{id}/execute", workflow.Execute)

		// Automation
		automation := handler.NewAutomation(s.automation)
		r.Post("/searches", automation.Search)
		r.Post("/research", automation.Research)
		r.Get("/automation/connectivity", automation.Connectivity)
		r.Get("/automation/config", automation.Config)

		// Environment
		environment := handler.NewEnvironment(s.store, s.resolver)
		r.Get("/environment", environment.Get)
		r.Put("/environment", environment.Switch)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if s.resolver.Ready() {
		checks["config"] = "ok"
	} else {
		checks["config"] = config.ErrNotInitialized.Error()
		healthy = false
	}

	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
