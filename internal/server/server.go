// Package server exposes graded search over HTTP: submit a scenario, get
// ranked groupings back, and browse the run history.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/levelworks/rlistic/internal/model"
	"github.com/levelworks/rlistic/internal/scenario"
	"github.com/levelworks/rlistic/internal/search"
	"github.com/levelworks/rlistic/internal/store"
)

// maxScenarioBytes bounds the request body for search submissions.
const maxScenarioBytes = 1 << 20

// Options configures the HTTP API.
type Options struct {
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
	Parallelism    int
}

// Server handles the HTTP API backed by a run store.
type Server struct {
	store       store.Store
	limiter     *rate.Limiter
	parallelism int
	origins     []string
}

// New builds a Server with the given run store.
func New(st store.Store, opts Options) *Server {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 10
	}
	return &Server{
		store:       st,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		parallelism: opts.Parallelism,
		origins:     origins,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(s.throttle)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})
	return r
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch accepts a scenario document as the request body, runs the
// graded search synchronously, persists the run, and returns it.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScenarioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	sc, err := scenario.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opts []search.Option
	if s.parallelism > 1 {
		opts = append(opts, search.WithParallelism(s.parallelism))
	}
	ranked, err := search.Run(sc.Domain, sc.Evaluator, sc.Generator(), sc.Policy, opts...)
	if err != nil {
		if errors.Is(err, search.ErrEmptyCandidateSpace) {
			writeError(w, http.StatusUnprocessableEntity, "no admissible groupings")
			return
		}
		zap.L().Error("search failed", zap.String("scenario", sc.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	run := &model.SearchRun{
		Scenario: sc.Name,
		Policy:   sc.PolicyString(),
		Results:  scenario.Results(ranked),
	}
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		zap.L().Error("save run failed", zap.String("scenario", sc.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save run")
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{Scenario: r.URL.Query().Get("scenario")}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs")
		return
	}
	if runs == nil {
		runs = []model.SearchRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("delete run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
