// File path: internal/analysis/timeline.go
package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

// sortedEvent pairs an event with its parsed timestamp so the sort parses
// each value exactly once.
type sortedEvent struct {
	event record.Event
	at    time.Time
}

// sortEvents orders events ascending by parsed timestamp. The sort is stable:
// equal timestamps keep their input order. Every temporal comparison in the
// engine goes through this function, so "earliest" and "latest" always agree
// with the rendered timeline. A timestamp that does not parse fails the whole
// call rather than sorting to an arbitrary position.
func sortEvents(events []record.Event) ([]sortedEvent, error) {
	out := make([]sortedEvent, 0, len(events))
	for _, e := range events {
		at, err := record.ParseTimestamp(e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		out = append(out, sortedEvent{event: e, at: at})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].at.Before(out[j].at)
	})
	return out, nil
}

// BuildTimeline projects a patient's events into a chronological display
// sequence. The output length equals the input length; nothing is filtered
// or deduplicated.
func BuildTimeline(events []record.Event) ([]record.TimelineEntry, error) {
	ordered, err := sortEvents(events)
	if err != nil {
		return nil, err
	}
	timeline := make([]record.TimelineEntry, 0, len(ordered))
	for _, se := range ordered {
		timeline = append(timeline, record.TimelineEntry{
			Timestamp: se.event.Timestamp,
			EventType: se.event.EventType,
			Content:   se.event.Content,
			At:        se.at,
		})
	}
	return timeline, nil
}
