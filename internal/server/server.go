// Package server exposes the repository catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jparise/gh-since/internal/catalog"
	"github.com/jparise/gh-since/internal/timeparse"
	"github.com/jparise/gh-since/internal/timerange"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Catalog is the subset of *catalog.Store the server reads from.
type Catalog interface {
	List(ctx context.Context, q catalog.Query) ([]catalog.Entry, error)
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DefaultLimit int
	MaxLimit     int
	CORSOrigins  []string // browser origins allowed to query the API
}

// Server serves the catalog API.
type Server struct {
	catalog  Catalog
	resolver *timeparse.Resolver
	log      zerolog.Logger
	metrics  *metrics
	opts     Options
	router   chi.Router
}

// New creates a Server reading from c and resolving temporal parameters
// with res.
func New(c Catalog, res *timeparse.Resolver, log zerolog.Logger, opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 100
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}

	s := &Server{
		catalog:  c,
		resolver: res,
		log:      log,
		metrics:  newMetrics(),
		opts:     opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.observe(route, status)
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/repos", s.handleRepos)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("http listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("http shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// repository mirrors catalog.Entry field for field.
type repository struct {
	Owner         string     `json:"owner"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	DefaultBranch string     `json:"default_branch"`
	Fork          bool       `json:"fork"`
	Archived      bool       `json:"archived"`
	PushedAt      *time.Time `json:"pushed_at"`
	IndexedAt     time.Time  `json:"indexed_at"`
}

type reposResponse struct {
	Repositories []repository `json:"repositories"`
	Count        int          `json:"count"`
}

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	indexed, err := timerange.Parse(s.resolver, params.Get("since"), params.Get("until"))
	if err != nil {
		s.rejectRange(w, err)
		return
	}
	active, err := timerange.ParseFields(s.resolver, timerange.Active,
		params.Get("activeAfter"), params.Get("activeBefore"))
	if err != nil {
		s.rejectRange(w, err)
		return
	}

	limit, err := s.parseLimit(params.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries, err := s.catalog.List(r.Context(), catalog.Query{
		Indexed: indexed,
		Active:  active,
		Owner:   params.Get("owner"),
		Limit:   limit,
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("catalog query failed")
		writeError(w, http.StatusInternalServerError, errors.New("failed to query catalog"))
		return
	}

	resp := reposResponse{
		Repositories: make([]repository, len(entries)),
		Count:        len(entries),
	}
	for i, e := range entries {
		resp.Repositories[i] = repository(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rejectRange(w http.ResponseWriter, err error) {
	reason := "other"
	switch {
	case errors.Is(err, timeparse.ErrInvalidExpression):
		reason = "invalid_expression"
	case errors.Is(err, timerange.ErrInvertedRange):
		reason = "inverted_range"
	}
	s.metrics.rejected.WithLabelValues(reason).Inc()
	writeError(w, http.StatusBadRequest, err)
}

func (s *Server) parseLimit(raw string) (int, error) {
	if raw == "" {
		return s.opts.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit value %q (expected a positive integer)", raw)
	}
	return min(n, s.opts.MaxLimit), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Ping(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("catalog unavailable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
