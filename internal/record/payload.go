// File path: internal/record/payload.go
package record

import "strings"

// Payload is the JSON document stored alongside a point in the vector
// collection. It mirrors Event plus the free-text attribution fields that
// the ingest API accepts but the analysis engine never reads.
type Payload struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name,omitempty"`
	DoctorName  string `json:"doctor_name,omitempty"`
	Timestamp   string `json:"timestamp"`
	EventType   string `json:"event_type"`
	Modality    string `json:"modality"`
	Content     string `json:"content"`
}

// NewPayload builds the stored payload for an event. Attribution fields are
// trimmed and defaulted the same way the ingest surface has always done:
// unknown patients are "Unknown", self-reported records are "Self".
func NewPayload(e Event, patientName, doctorName string) Payload {
	name := strings.TrimSpace(patientName)
	if name == "" {
		name = "Unknown"
	}
	doctor := strings.TrimSpace(doctorName)
	if doctor == "" {
		doctor = "Self"
	}
	return Payload{
		PatientID:   e.PatientID,
		PatientName: name,
		DoctorName:  doctor,
		Timestamp:   e.Timestamp,
		EventType:   e.EventType,
		Modality:    string(e.Modality),
		Content:     e.Content,
	}
}

// Event reconstructs the domain event for the point identified by id.
func (p Payload) Event(id string) Event {
	return Event{
		ID:        id,
		PatientID: p.PatientID,
		Timestamp: p.Timestamp,
		EventType: p.EventType,
		Modality:  Modality(p.Modality),
		Content:   p.Content,
	}
}
