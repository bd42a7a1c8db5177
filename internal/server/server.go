// Package server is the reference backend for the editor: the company-list,
// company-map, company-exclude and config-sync endpoints over a SQLite store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/cachemanager"
	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/log"
)

const companyListKey = "company-list"

// Companies is the persistence the handlers need.
type Companies interface {
	Names(ctx context.Context) ([]string, error)
	Maps(ctx context.Context) ([]api.MapRow, error)
	Excludes(ctx context.Context) ([]string, error)
	UpsertMap(ctx context.Context, m api.MapRow) error
	DeleteMap(ctx context.Context, original string) error
	AddExclude(ctx context.Context, row api.ExcludeRow) (bool, error)
	DeleteExclude(ctx context.Context, name string) error
	Sync(ctx context.Context, req api.SyncRequest) (api.SyncResponse, error)
}

// Years lists the checkup years on record.
type Years interface {
	Years(ctx context.Context) ([]int, error)
}

// Option configures a Server.
type Option func(*Server)

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// Server routes HTTP requests to the store.
type Server struct {
	cfg       config.ServerConfig
	companies Companies
	years     Years
	names     *cachemanager.ReadThrough[[]string]
	validate  *validator.Validate
	tracer    trace.Tracer
	router    chi.Router
}

// New builds the router. years may be nil, which disables /api/years.
func New(cfg config.ServerConfig, companies Companies, years Years, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		companies: companies,
		years:     years,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otel.Tracer("github.com/jinhealth/reconcile/internal/server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cachemanager.NoExpiration
	}
	s.names = cachemanager.NewReadThrough[[]string](
		cachemanager.NewMemory[[]string]("company-list", ttl, 2*ttl),
		ttl,
		companies.Names,
	)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		s.traced,
		logged,
		middleware.Recoverer,
		secureHeaders(),
		middleware.Timeout(30*time.Second),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.Limit(s.cfg.RateLimit, s.cfg.RateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
				}),
			))
		}

		r.Get(api.PathCompanyList, s.handleCompanyList)
		r.Get("/api/years", s.handleYears)

		r.Get(api.PathCompanyMap, s.handleListMaps)
		r.Post(api.PathCompanyMap, s.handleUpsertMap)
		r.Delete(api.PathCompanyMap+"/{original}", s.handleDeleteMap)

		r.Get(api.PathCompanyExclude, s.handleListExcludes)
		r.Post(api.PathCompanyExclude, s.handleAddExclude)
		r.Delete(api.PathCompanyExclude+"/{name}", s.handleDeleteExclude)

		r.Post(api.PathSync, s.handleSync)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// InvalidateCaches drops cached read models. The watcher calls it when the
// database file changes underneath the server.
func (s *Server) InvalidateCaches(ctx context.Context) {
	s.names.Flush(ctx)
	log.Debug(log.CatServer, "Caches invalidated")
}

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info(log.CatServer, "Listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	log.Info(log.CatServer, "Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
