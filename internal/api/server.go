// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/analysis"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/catalog"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/orchestrator"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/vector"
)

// Server is the HTTP surface over the timeline analysis engine.
type Server struct {
	router  chi.Router
	orch    *orchestrator.Orchestrator
	store   vector.Store
	catalog *catalog.Store

	providerName string
}

// NewServer builds the router. The catalog may be nil; the patients listing
// then reports the feature as unavailable.
func NewServer(orch *orchestrator.Orchestrator, store vector.Store, cat *catalog.Store, providerName string) *Server {
	s := &Server{
		orch:         orch,
		store:        store,
		catalog:      cat,
		providerName: providerName,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", metrics("healthz", s.handleHealth))
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest", metrics("ingest", s.handleIngest))
		r.Post("/search", metrics("search", s.handleSearch))
		r.Post("/timeline-summary", metrics("timeline_summary", s.handleTimelineSummary))
		r.Post("/difference", metrics("difference", s.handleDifference))
		r.Post("/explain", metrics("explain", s.handleExplain))
		r.Get("/patients", metrics("patients", s.handlePatients))
		r.Get("/logs", metrics("logs", s.handleLogs))
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.Logger().Error("api: failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusForError maps engine errors to HTTP statuses. Anything not
// recognizably a client problem is a server failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput),
		errors.Is(err, record.ErrBadTimestamp),
		errors.Is(err, analysis.ErrNotEnoughEvents):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrPatientNotFound),
		errors.Is(err, vector.ErrPointNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, operation string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		common.Logger().Error("api: request failed", "operation", operation, "error", err)
	} else {
		common.Logger().Warn("api: request rejected", "operation", operation, "error", err)
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		return errors.New("request body is not valid JSON")
	}
	return nil
}
