package server

import (
	"context"
	"net/http"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/core"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 64 << 10

type dashboardModel interface {
	State() *domain.Dashboard
	Status() core.Status
	LastError() error
	FilterOptions() domain.FilterOptions
	ChangeFilters(ctx context.Context, patch domain.FiltersPatch)
	ChangePage(ctx context.Context, n int)
	ChangePageSize(ctx context.Context, size int)
	Refresh(ctx context.Context)
}

// Server exposes the dashboard view model as JSON.
type Server struct {
	router      *chi.Mux
	vm          dashboardModel
	localAlerts bool
	metrics     http.Handler
	logger      zerolog.Logger
}

// New builds the router. A nil metrics handler leaves /metrics unmounted.
func New(vm dashboardModel, localAlerts bool, metrics http.Handler, logger zerolog.Logger) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		vm:          vm,
		localAlerts: localAlerts,
		metrics:     metrics,
		logger:      logger.With().Str("component", "server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.getDashboard)
		r.Get("/filter-options", s.getFilterOptions)
		r.Post("/filters", s.postFilters)
		r.Post("/page", s.postPage)
		r.Post("/page-size", s.postPageSize)
		r.Post("/refresh", s.postRefresh)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}
