// Package api exposes the research pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/research-agent/internal/history"
	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/pipeline"
)

// Server owns the pipeline and tracks in-flight runs by ID. Completed
// runs are written to the history store.
type Server struct {
	pipeline *pipeline.Pipeline
	store    history.Store
	baseCtx  context.Context
	log      *zap.Logger

	mu   sync.RWMutex
	runs map[string]*pipeline.Run
}

// NewServer builds a server. Runs started over HTTP are bound to ctx,
// the server's lifetime, not the request that started them.
func NewServer(ctx context.Context, p *pipeline.Pipeline, store history.Store) *Server {
	return &Server{
		pipeline: p,
		store:    store,
		baseCtx:  ctx,
		log:      zap.L().Named("api"),
		runs:     make(map[string]*pipeline.Run),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/research", s.startResearch)
	r.Post("/followup", s.startFollowup)
	r.Get("/research/{id}", s.getRun)
	r.Get("/research/{id}/steps", s.getSteps)
	r.Post("/research/{id}/cancel", s.cancelRun)
	r.Get("/history", s.listHistory)
	r.Get("/health", s.health)

	return r
}

type startRequest struct {
	Question string `json:"question"`
}

type startResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Status   string `json:"status"`
}

func (s *Server) startResearch(w http.ResponseWriter, r *http.Request) {
	s.start(w, r, false)
}

func (s *Server) startFollowup(w http.ResponseWriter, r *http.Request) {
	s.start(w, r, true)
}

func (s *Server) start(w http.ResponseWriter, r *http.Request, contextual bool) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	run := s.pipeline.Start(s.baseCtx, req.Question, contextual)

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	go s.persistWhenDone(run)

	writeJSON(w, http.StatusAccepted, startResponse{
		ID:       run.ID,
		Question: run.Question,
		Status:   "running",
	})
}

// persistWhenDone saves the result once the run completes. Failed runs
// are only logged.
func (s *Server) persistWhenDone(run *pipeline.Run) {
	result, err := run.Wait()
	if err != nil {
		s.log.Error("run failed", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	if err := s.store.Save(context.Background(), result); err != nil {
		s.log.Warn("could not save run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

type runStatusResponse struct {
	ID       string               `json:"id"`
	Question string               `json:"question"`
	Status   string               `json:"status"`
	Steps    []model.PipelineStep `json:"steps"`
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	run, live := s.runs[id]
	s.mu.RUnlock()

	if live {
		select {
		case <-run.Done():
			result, err := run.Wait()
			if err != nil {
				writeJSON(w, http.StatusOK, runStatusResponse{
					ID: run.ID, Question: run.Question, Status: "failed", Steps: run.Steps(),
				})
				return
			}
			writeJSON(w, http.StatusOK, result)
		default:
			writeJSON(w, http.StatusAccepted, runStatusResponse{
				ID: run.ID, Question: run.Question, Status: "running", Steps: run.Steps(),
			})
		}
		return
	}

	// Not in memory: fall back to the history store.
	result, err := s.store.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getSteps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run.Steps())
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	run.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "canceling"})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
