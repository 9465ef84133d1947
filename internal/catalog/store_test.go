// File path: internal/catalog/store_test.go
package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndListPatients(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	events := []record.Event{
		{ID: "e1", PatientID: "patient-a", EventType: "note", Modality: record.ModalityText, Timestamp: "2024-01-01T09:00:00Z", Content: "baseline exam"},
		{ID: "e2", PatientID: "patient-a", EventType: "lab", Modality: record.ModalityText, Timestamp: "2024-02-01T09:00:00Z", Content: "lab results"},
		{ID: "e3", PatientID: "patient-b", EventType: "note", Modality: record.ModalityDocument, Timestamp: "2024-03-01T09:00:00Z", Content: "imaging report"},
	}
	for _, event := range events {
		if err := store.RecordEvent(ctx, event); err != nil {
			t.Fatalf("record event %s: %v", event.ID, err)
		}
	}

	summaries, err := store.ListPatients(ctx)
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(summaries))
	}
	first := summaries[0]
	if first.PatientID != "patient-a" || first.Events != 2 {
		t.Fatalf("unexpected summary: %+v", first)
	}
	if first.FirstSeen != "2024-01-01T09:00:00Z" || first.LastSeen != "2024-02-01T09:00:00Z" {
		t.Fatalf("unexpected range: %+v", first)
	}
	if summaries[1].PatientID != "patient-b" || summaries[1].Events != 1 {
		t.Fatalf("unexpected summary: %+v", summaries[1])
	}
}

func TestRecordEventUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	event := record.Event{ID: "e1", PatientID: "patient-a", EventType: "note", Modality: record.ModalityText, Timestamp: "2024-01-01T09:00:00Z", Content: "first"}
	if err := store.RecordEvent(ctx, event); err != nil {
		t.Fatalf("record event: %v", err)
	}
	event.EventType = "correction"
	if err := store.RecordEvent(ctx, event); err != nil {
		t.Fatalf("re-record event: %v", err)
	}

	summaries, err := store.ListPatients(ctx)
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Events != 1 {
		t.Fatalf("expected single row after upsert, got %+v", summaries)
	}
}

func TestListPatientsEmpty(t *testing.T) {
	store := openTestStore(t)
	summaries, err := store.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %d", len(summaries))
	}
}
