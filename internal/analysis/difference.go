// File path: internal/analysis/difference.go
package analysis

import (
	"errors"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

// ErrNotEnoughEvents reports a result set too small to compare. Callers
// surface it as a client error, not a server failure.
var ErrNotEnoughEvents = errors.New("not enough events to compute differences")

// Change-level thresholds over the rounded semantic shift. Lower bounds are
// inclusive; the top band is open-ended.
const (
	moderateShiftThreshold = 0.2
	highShiftThreshold     = 0.5
)

// ClassifyShift buckets a semantic shift into its coarse change level.
func ClassifyShift(shift float64) record.ChangeLevel {
	switch {
	case shift < moderateShiftThreshold:
		return record.ChangeLow
	case shift < highShiftThreshold:
		return record.ChangeModerate
	default:
		return record.ChangeHigh
	}
}

// metadataFields are the payload fields tracked for metadata changes.
var metadataFields = []string{"event_type", "modality"}

// SelectExtremes orders a result set chronologically and returns its first
// and last events. A difference always compares the temporal extremes of the
// filtered set, never an arbitrary pair.
func SelectExtremes(events []record.Event) (earliest, latest record.Event, err error) {
	if len(events) < 2 {
		return record.Event{}, record.Event{}, ErrNotEnoughEvents
	}
	ordered, err := sortEvents(events)
	if err != nil {
		return record.Event{}, record.Event{}, err
	}
	return ordered[0].event, ordered[len(ordered)-1].event, nil
}

// Compare builds the difference report between two events and their
// embedding vectors. The shift is rounded to three decimals before
// classification so the reported number and label can never disagree at a
// band boundary.
func Compare(earliest, latest record.Event, earliestVec, latestVec []float32) (record.DifferenceReport, error) {
	shift, err := CosineDistance(earliestVec, latestVec)
	if err != nil {
		return record.DifferenceReport{}, err
	}
	rounded := roundShift(shift)

	changes := make(map[string]record.FieldChange)
	for _, field := range metadataFields {
		oldValue := metadataValue(earliest, field)
		newValue := metadataValue(latest, field)
		if oldValue != newValue {
			changes[field] = record.FieldChange{Old: oldValue, New: newValue}
		}
	}

	return record.DifferenceReport{
		TimeRange: record.TimeRange{
			From: earliest.Timestamp,
			To:   latest.Timestamp,
		},
		EventsCompared: record.ComparedEvents{
			EarliestID: earliest.ID,
			LatestID:   latest.ID,
		},
		SemanticShift:   rounded,
		ChangeLevel:     ClassifyShift(rounded),
		MetadataChanges: changes,
	}, nil
}

func metadataValue(e record.Event, field string) string {
	switch field {
	case "event_type":
		return e.EventType
	case "modality":
		return string(e.Modality)
	default:
		return ""
	}
}
