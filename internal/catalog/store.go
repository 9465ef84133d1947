// File path: internal/catalog/store.go
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

// Store is a relational audit log alongside the vector store. It keeps one
// row per ingested event so operators can enumerate patients and ingest
// history without scanning the collection.
type Store struct {
	db *sqlx.DB
}

// PatientSummary aggregates the catalog rows for one patient.
type PatientSummary struct {
	PatientID string `db:"patient_id" json:"patient_id"`
	Events    int    `db:"events" json:"events"`
	FirstSeen string `db:"first_seen" json:"first_seen"`
	LastSeen  string `db:"last_seen" json:"last_seen"`
}

// Open connects to the sqlite catalog at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	common.Logger().Info("catalog: store ready", "path", path)
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			modality TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_patient ON events(patient_id)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// RecordEvent inserts one audit row. Re-ingesting the same event ID updates
// the existing row in place.
func (s *Store) RecordEvent(ctx context.Context, event record.Event) error {
	const query = `INSERT INTO events (event_id, patient_id, event_type, modality, timestamp, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			patient_id = excluded.patient_id,
			event_type = excluded.event_type,
			modality = excluded.modality,
			timestamp = excluded.timestamp,
			ingested_at = excluded.ingested_at`
	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, query, event.ID, event.PatientID, event.EventType, string(event.Modality), event.Timestamp, ingestedAt); err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListPatients returns one summary per patient ordered by identifier.
func (s *Store) ListPatients(ctx context.Context) ([]PatientSummary, error) {
	const query = `SELECT patient_id, COUNT(*) AS events, MIN(timestamp) AS first_seen, MAX(timestamp) AS last_seen
		FROM events GROUP BY patient_id ORDER BY patient_id`
	var summaries []PatientSummary
	if err := s.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return summaries, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
