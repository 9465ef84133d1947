// File path: internal/api/handlers.go
package api

import (
	"net/http"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/catalog"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	event := record.Event{
		PatientID: req.PatientID,
		Timestamp: req.Timestamp,
		EventType: req.EventType,
		Modality:  record.Modality(req.Modality),
		Content:   req.Content,
	}
	stored, err := s.orch.Ingest(r.Context(), event, req.PatientName, req.DoctorName)
	if err != nil {
		s.writeFailure(w, "ingest", err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{
		EventID:   stored.ID,
		PatientID: stored.PatientID,
		Timestamp: stored.Timestamp,
		Status:    "stored",
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	points, err := s.orch.Search(r.Context(), req.PatientID, req.Query, req.Limit)
	if err != nil {
		s.writeFailure(w, "search", err)
		return
	}
	hits := make([]searchHit, 0, len(points))
	for _, point := range points {
		hits = append(hits, searchHit{EventID: point.ID, Score: point.Score, Payload: point.Payload})
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: hits})
}

func (s *Server) handleTimelineSummary(w http.ResponseWriter, r *http.Request) {
	var req timelineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.orch.Summarize(r.Context(), req.PatientID)
	if err != nil {
		s.writeFailure(w, "timeline_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDifference(w http.ResponseWriter, r *http.Request) {
	var req differenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	diff, err := s.orch.Difference(r.Context(), req.PatientID, req.Query)
	if err != nil {
		s.writeFailure(w, "difference", err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req differenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	explanation, err := s.orch.Explain(r.Context(), req.PatientID, req.Query)
	if err != nil {
		s.writeFailure(w, "explain", err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "patient catalog is not configured")
		return
	}
	summaries, err := s.catalog.ListPatients(r.Context())
	if err != nil {
		s.writeFailure(w, "patients", err)
		return
	}
	if summaries == nil {
		summaries = []catalog.PatientSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patients": summaries})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	if entries == nil {
		entries = []common.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	vectorStatus := "unavailable"
	status := http.StatusServiceUnavailable
	overall := "degraded"
	if s.store != nil && s.store.Available() {
		vectorStatus = "ok"
		status = http.StatusOK
		overall = "ok"
	}
	writeJSON(w, status, healthResponse{
		Status:      overall,
		VectorStore: vectorStatus,
		Provider:    s.providerName,
	})
}
