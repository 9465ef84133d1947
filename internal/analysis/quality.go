// File path: internal/analysis/quality.go
package analysis

import (
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

// Quality thresholds. These are a fixed policy contract, not tunables:
// clients and tests depend on exact boundary behavior.
const (
	richMinCount     = 6
	richMinSpanDays  = 7
	richMinAvgLength = 40.0

	moderateMinCount    = 3
	moderateMinSpanDays = 2
)

// ComputeQuality rates how well a timeline supports trend analysis. The
// rules are checked in priority order and the first match wins: no events is
// "No Data"; many records over a week or more with substantial text is
// "Rich"; a handful of records across at least two days is "Moderate";
// everything else is "Sparse".
func ComputeQuality(timeline []record.TimelineEntry) record.DataQuality {
	count := len(timeline)
	if count == 0 {
		return record.DataQuality{
			Label:       record.QualityNoData,
			Description: "No medical records available.",
		}
	}

	earliest := timeline[0].At
	latest := timeline[0].At
	totalLength := 0
	for _, entry := range timeline {
		if entry.At.Before(earliest) {
			earliest = entry.At
		}
		if entry.At.After(latest) {
			latest = entry.At
		}
		totalLength += len(entry.Content)
	}

	// Inclusive day count: a single-day timeline spans one day.
	spanDays := int(latest.Sub(earliest).Hours()/24) + 1
	avgLength := float64(totalLength) / float64(count)

	if count >= richMinCount && spanDays >= richMinSpanDays && avgLength >= richMinAvgLength {
		return record.DataQuality{
			Label:       record.QualityRich,
			Description: "Sufficient records over time to infer meaningful patterns.",
		}
	}
	if count >= moderateMinCount && spanDays >= moderateMinSpanDays {
		return record.DataQuality{
			Label:       record.QualityModerate,
			Description: "Some continuity present, but insights may be limited.",
		}
	}
	return record.DataQuality{
		Label:       record.QualitySparse,
		Description: "Records are few or vague; interpretation is limited.",
	}
}
