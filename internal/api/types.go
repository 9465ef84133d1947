// File path: internal/api/types.go
package api

import (
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

type ingestRequest struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	DoctorName  string `json:"doctor_name"`
	Timestamp   string `json:"timestamp"`
	EventType   string `json:"event_type"`
	Modality    string `json:"modality"`
	Content     string `json:"content"`
}

type ingestResponse struct {
	EventID   string `json:"event_id"`
	PatientID string `json:"patient_id"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

type searchRequest struct {
	PatientID string `json:"patient_id"`
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
}

type searchHit struct {
	EventID string         `json:"event_id"`
	Score   float32        `json:"score"`
	Payload record.Payload `json:"payload"`
}

type searchResponse struct {
	Results []searchHit `json:"results"`
}

type timelineRequest struct {
	PatientID string `json:"patient_id"`
}

type differenceRequest struct {
	PatientID string `json:"patient_id"`
	Query     string `json:"query"`
}

type healthResponse struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store"`
	Provider    string `json:"provider"`
}

type errorResponse struct {
	Error string `json:"error"`
}
