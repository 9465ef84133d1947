// File path: internal/record/record.go
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Modality describes how a medical event was captured.
type Modality string

const (
	ModalityText     Modality = "text"
	ModalityDocument Modality = "document"
)

// Event is a single ingested medical record. Events are immutable once
// stored; the ID is minted exactly once, at ingest time.
type Event struct {
	ID        string
	PatientID string
	Timestamp string
	EventType string
	Modality  Modality
	Content   string
}

// timestampLayouts are the accepted ISO-8601 shapes, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ErrBadTimestamp reports a timestamp that could not be parsed as ISO-8601.
var ErrBadTimestamp = errors.New("timestamp is not valid ISO-8601")

// ParseTimestamp parses an ISO-8601 timestamp string. Records carry their
// timestamps as strings end to end; this is the single place they are
// interpreted.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrBadTimestamp)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, value)
}

// Validate checks the fields a caller must supply before an event can be
// stored. The ID is not checked here; it is assigned by the ingesting side.
func (e Event) Validate() error {
	if strings.TrimSpace(e.PatientID) == "" {
		return errors.New("missing required field: patient_id")
	}
	if strings.TrimSpace(e.EventType) == "" {
		return errors.New("missing required field: event_type")
	}
	if strings.TrimSpace(e.Content) == "" {
		return errors.New("missing required field: content")
	}
	if _, err := ParseTimestamp(e.Timestamp); err != nil {
		return err
	}
	return nil
}

// TimelineEntry is the display projection of an event. At carries the parsed
// timestamp for ordering and span computations; it is never serialized.
type TimelineEntry struct {
	Timestamp string    `json:"timestamp"`
	EventType string    `json:"event_type"`
	Content   string    `json:"content"`
	At        time.Time `json:"-"`
}

// QualityLabel is the coarse richness rating of a patient's record set.
type QualityLabel string

const (
	QualityNoData   QualityLabel = "No Data"
	QualitySparse   QualityLabel = "Sparse"
	QualityModerate QualityLabel = "Moderate"
	QualityRich     QualityLabel = "Rich"
)

// DataQuality pairs a quality label with its fixed human-readable description.
type DataQuality struct {
	Label       QualityLabel `json:"label"`
	Description string       `json:"description"`
}

// ChangeLevel buckets a semantic shift into a coarse label.
type ChangeLevel string

const (
	ChangeLow      ChangeLevel = "Low"
	ChangeModerate ChangeLevel = "Moderate"
	ChangeHigh     ChangeLevel = "High"
)

// TimeRange bounds the records a difference report compared.
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ComparedEvents identifies the two records a difference report was built from.
type ComparedEvents struct {
	EarliestID string `json:"earliest_id"`
	LatestID   string `json:"latest_id"`
}

// FieldChange holds the old and new value of a metadata field that differs
// between the compared records. An absent field is reported as the empty
// string.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// DifferenceReport is the structured delta between the earliest and latest
// record of a result set. Reports are computed fresh per request and never
// persisted.
type DifferenceReport struct {
	TimeRange       TimeRange              `json:"time_range"`
	EventsCompared  ComparedEvents         `json:"events_compared"`
	SemanticShift   float64                `json:"semantic_shift"`
	ChangeLevel     ChangeLevel            `json:"change_level"`
	MetadataChanges map[string]FieldChange `json:"metadata_changes"`
}
