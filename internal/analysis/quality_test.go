// File path: internal/analysis/quality_test.go
package analysis

import (
	"strings"
	"testing"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

func qualityEntry(t *testing.T, timestamp string, contentLen int) record.TimelineEntry {
	t.Helper()
	at, err := record.ParseTimestamp(timestamp)
	if err != nil {
		t.Fatalf("parse %q: %v", timestamp, err)
	}
	return record.TimelineEntry{
		Timestamp: timestamp,
		EventType: "note",
		Content:   strings.Repeat("x", contentLen),
		At:        at,
	}
}

func TestComputeQuality(t *testing.T) {
	cases := []struct {
		name       string
		timestamps []string
		contentLen int
		want       record.QualityLabel
	}{
		{
			name: "six records over seven days with long content is rich",
			timestamps: []string{
				"2024-01-01T08:00:00Z", "2024-01-02T08:00:00Z", "2024-01-03T08:00:00Z",
				"2024-01-04T08:00:00Z", "2024-01-05T08:00:00Z", "2024-01-07T08:00:00Z",
			},
			contentLen: 40,
			want:       record.QualityRich,
		},
		{
			name: "five records fails the rich count and falls to moderate",
			timestamps: []string{
				"2024-01-01T08:00:00Z", "2024-01-02T08:00:00Z", "2024-01-03T08:00:00Z",
				"2024-01-04T08:00:00Z", "2024-01-07T08:00:00Z",
			},
			contentLen: 100,
			want:       record.QualityModerate,
		},
		{
			name: "six records with short content falls to moderate",
			timestamps: []string{
				"2024-01-01T08:00:00Z", "2024-01-02T08:00:00Z", "2024-01-03T08:00:00Z",
				"2024-01-04T08:00:00Z", "2024-01-05T08:00:00Z", "2024-01-07T08:00:00Z",
			},
			contentLen: 39,
			want:       record.QualityModerate,
		},
		{
			name:       "three records within a single day is sparse",
			timestamps: []string{"2024-01-01T08:00:00Z", "2024-01-01T12:00:00Z", "2024-01-01T18:00:00Z"},
			contentLen: 80,
			want:       record.QualitySparse,
		},
		{
			name:       "three records across two days is moderate",
			timestamps: []string{"2024-01-01T08:00:00Z", "2024-01-01T12:00:00Z", "2024-01-02T09:00:00Z"},
			contentLen: 20,
			want:       record.QualityModerate,
		},
		{
			name:       "two records is sparse regardless of span",
			timestamps: []string{"2024-01-01T08:00:00Z", "2024-03-01T08:00:00Z"},
			contentLen: 200,
			want:       record.QualitySparse,
		},
		{
			name:       "single record is sparse",
			timestamps: []string{"2024-01-01T08:00:00Z"},
			contentLen: 200,
			want:       record.QualitySparse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timeline := make([]record.TimelineEntry, 0, len(tc.timestamps))
			for _, ts := range tc.timestamps {
				timeline = append(timeline, qualityEntry(t, ts, tc.contentLen))
			}
			got := ComputeQuality(timeline)
			if got.Label != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got.Label)
			}
			if got.Description == "" {
				t.Fatalf("expected non-empty description")
			}
		})
	}
}

func TestComputeQualityNoData(t *testing.T) {
	got := ComputeQuality(nil)
	if got.Label != record.QualityNoData {
		t.Fatalf("expected No Data, got %q", got.Label)
	}
	if got.Description != "No medical records available." {
		t.Fatalf("unexpected description: %q", got.Description)
	}
}
