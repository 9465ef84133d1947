// File path: internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/analysis"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/catalog"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common/telemetry"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/llm"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/vector"
)

var (
	// ErrPatientNotFound reports a patient with no stored events.
	ErrPatientNotFound = errors.New("no events found for this patient")

	// ErrInvalidInput wraps request validation failures so the transport
	// layer can map them to client errors.
	ErrInvalidInput = errors.New("invalid input")
)

const (
	onlyOneEventMessage   = "Only one event recorded. Timeline analysis requires multiple events."
	generationUnavailable = "Unable to generate AI explanation at this time."
)

// Config carries the tunables of the analysis engine.
type Config struct {
	SearchLimit int
	ScrollLimit int
}

// LoadConfig reads the engine tunables from the environment, falling back to
// the historical defaults.
func LoadConfig() Config {
	cfg := Config{SearchLimit: 5, ScrollLimit: 100}
	if value := strings.TrimSpace(os.Getenv("MEDITRACK_SEARCH_LIMIT")); value != "" {
		if limit, err := strconv.Atoi(value); err == nil && limit > 0 {
			cfg.SearchLimit = limit
		} else {
			common.Logger().Warn("orchestrator: invalid MEDITRACK_SEARCH_LIMIT, using default", "value", value)
		}
	}
	if value := strings.TrimSpace(os.Getenv("MEDITRACK_SCROLL_LIMIT")); value != "" {
		if limit, err := strconv.Atoi(value); err == nil && limit > 0 {
			cfg.ScrollLimit = limit
		} else {
			common.Logger().Warn("orchestrator: invalid MEDITRACK_SCROLL_LIMIT, using default", "value", value)
		}
	}
	return cfg
}

// Orchestrator wires the vector store, the language-model provider, and the
// relational catalog into the timeline analysis operations the API exposes.
type Orchestrator struct {
	store    vector.Store
	provider llm.Provider
	catalog  *catalog.Store
	cfg      Config
	now      func() time.Time
}

// New builds an orchestrator. The catalog may be nil; ingest then skips the
// audit row and everything else still works.
func New(store vector.Store, provider llm.Provider, cat *catalog.Store, cfg Config) *Orchestrator {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.ScrollLimit <= 0 {
		cfg.ScrollLimit = 100
	}
	return &Orchestrator{
		store:    store,
		provider: provider,
		catalog:  cat,
		cfg:      cfg,
		now:      time.Now,
	}
}

// TimelineSummary is the full analysis of one patient's history.
type TimelineSummary struct {
	Timeline       []record.TimelineEntry `json:"timeline"`
	SemanticShift  float64                `json:"semantic_shift"`
	OverallSummary string                 `json:"overall_summary"`
	DataQuality    record.DataQuality     `json:"data_quality"`
}

// Explanation pairs a difference report with its model-written narration.
type Explanation struct {
	Difference  record.DifferenceReport `json:"difference"`
	Explanation string                  `json:"explanation"`
}

// Ingest validates, embeds, and stores one medical event. The event ID is
// minted here and returned to the caller; a missing timestamp defaults to the
// current UTC time.
func (o *Orchestrator) Ingest(ctx context.Context, event record.Event, patientName, doctorName string) (record.Event, error) {
	logger := common.Logger()
	if strings.TrimSpace(event.Timestamp) == "" {
		event.Timestamp = o.now().UTC().Format(time.RFC3339)
	}
	if event.Modality == "" {
		event.Modality = record.ModalityText
	}
	if err := event.Validate(); err != nil {
		return record.Event{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	event.ID = uuid.NewString()

	vectors, err := o.embed(ctx, []string{event.Content})
	if err != nil {
		return record.Event{}, fmt.Errorf("embed event: %w", err)
	}
	if err := o.store.EnsureCollection(ctx, len(vectors[0])); err != nil {
		return record.Event{}, fmt.Errorf("ensure collection: %w", err)
	}
	point := vector.Point{
		ID:      event.ID,
		Vector:  vectors[0],
		Payload: record.NewPayload(event, patientName, doctorName),
	}
	if err := o.store.Upsert(ctx, []vector.Point{point}); err != nil {
		return record.Event{}, fmt.Errorf("store event: %w", err)
	}
	if o.catalog != nil {
		if err := o.catalog.RecordEvent(ctx, event); err != nil {
			logger.Warn("orchestrator: catalog write failed", "event_id", event.ID, "error", err)
		}
	}
	telemetry.RecordIngest()
	logger.Info("orchestrator: event ingested", "event_id", event.ID, "patient_id", event.PatientID)
	return event, nil
}

// Search embeds the query and returns the patient's most similar events.
func (o *Orchestrator) Search(ctx context.Context, patientID, query string, limit int) ([]vector.Point, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("%w: missing required field: patient_id", ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: missing required field: query", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = o.cfg.SearchLimit
	}
	vectors, err := o.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return o.store.Search(ctx, vectors[0], patientID, limit)
}

// Summarize builds the patient's chronological timeline, rates its quality,
// measures the semantic shift between the temporal extremes, and asks the
// model for a guarded overview. A single-event history short-circuits with a
// zero shift and a fixed message instead of calling the model.
func (o *Orchestrator) Summarize(ctx context.Context, patientID string) (TimelineSummary, error) {
	if strings.TrimSpace(patientID) == "" {
		return TimelineSummary{}, fmt.Errorf("%w: missing required field: patient_id", ErrInvalidInput)
	}
	points, err := o.store.Scroll(ctx, patientID, o.cfg.ScrollLimit)
	if err != nil {
		return TimelineSummary{}, fmt.Errorf("scroll events: %w", err)
	}
	if len(points) == 0 {
		return TimelineSummary{}, ErrPatientNotFound
	}
	events := make([]record.Event, 0, len(points))
	for _, point := range points {
		events = append(events, point.Payload.Event(point.ID))
	}
	timeline, err := analysis.BuildTimeline(events)
	if err != nil {
		return TimelineSummary{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	quality := analysis.ComputeQuality(timeline)

	if len(events) == 1 {
		return TimelineSummary{
			Timeline:       timeline,
			SemanticShift:  0.0,
			OverallSummary: onlyOneEventMessage,
			DataQuality:    quality,
		}, nil
	}

	diff, _, _, err := o.compareExtremes(ctx, events)
	if err != nil {
		return TimelineSummary{}, err
	}
	summary := o.generate(ctx, analysis.BuildOverviewPrompt(timeline))
	return TimelineSummary{
		Timeline:       timeline,
		SemanticShift:  diff.SemanticShift,
		OverallSummary: summary,
		DataQuality:    quality,
	}, nil
}

// Difference compares the earliest and latest event of a patient-scoped
// similarity search.
func (o *Orchestrator) Difference(ctx context.Context, patientID, query string) (record.DifferenceReport, error) {
	diff, _, _, err := o.searchAndCompare(ctx, patientID, query)
	return diff, err
}

// Explain runs the same comparison as Difference and narrates it through the
// guarded explanation prompt.
func (o *Orchestrator) Explain(ctx context.Context, patientID, query string) (Explanation, error) {
	diff, earliest, latest, err := o.searchAndCompare(ctx, patientID, query)
	if err != nil {
		return Explanation{}, err
	}
	prompt := analysis.BuildExplanationPrompt(earliest.Payload.Content, latest.Payload.Content, diff)
	return Explanation{
		Difference:  diff,
		Explanation: o.generate(ctx, prompt),
	}, nil
}

func (o *Orchestrator) searchAndCompare(ctx context.Context, patientID, query string) (record.DifferenceReport, vector.Point, vector.Point, error) {
	points, err := o.Search(ctx, patientID, query, o.cfg.SearchLimit)
	if err != nil {
		return record.DifferenceReport{}, vector.Point{}, vector.Point{}, err
	}
	if len(points) == 0 {
		return record.DifferenceReport{}, vector.Point{}, vector.Point{}, ErrPatientNotFound
	}
	events := make([]record.Event, 0, len(points))
	for _, point := range points {
		events = append(events, point.Payload.Event(point.ID))
	}
	return o.compareExtremes(ctx, events)
}

// compareExtremes resolves the temporal extremes of a result set, fetches
// their stored vectors, and builds the difference report.
func (o *Orchestrator) compareExtremes(ctx context.Context, events []record.Event) (record.DifferenceReport, vector.Point, vector.Point, error) {
	earliest, latest, err := analysis.SelectExtremes(events)
	if err != nil {
		if errors.Is(err, record.ErrBadTimestamp) {
			err = fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		return record.DifferenceReport{}, vector.Point{}, vector.Point{}, err
	}
	earliestPoint, err := o.store.Retrieve(ctx, earliest.ID, true)
	if err != nil {
		return record.DifferenceReport{}, vector.Point{}, vector.Point{}, fmt.Errorf("retrieve earliest event: %w", err)
	}
	latestPoint, err := o.store.Retrieve(ctx, latest.ID, true)
	if err != nil {
		return record.DifferenceReport{}, vector.Point{}, vector.Point{}, fmt.Errorf("retrieve latest event: %w", err)
	}
	diff, err := analysis.Compare(earliest, latest, earliestPoint.Vector, latestPoint.Vector)
	if err != nil {
		return record.DifferenceReport{}, vector.Point{}, vector.Point{}, fmt.Errorf("compare events: %w", err)
	}
	return diff, earliestPoint, latestPoint, nil
}

func (o *Orchestrator) embed(ctx context.Context, input []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := o.provider.Embed(ctx, input)
	telemetry.RecordEmbedding(len(input), time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(vectors))
	}
	return vectors, nil
}

// generate asks the model for a completion. Failures and empty answers never
// propagate: the caller always gets a displayable string.
func (o *Orchestrator) generate(ctx context.Context, prompt string) string {
	logger := common.Logger()
	start := time.Now()
	answer, err := o.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		telemetry.RecordGeneration(true, time.Since(start))
		logger.Warn("orchestrator: generation failed", "provider", o.provider.Name(), "error", err)
		return generationUnavailable
	}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		telemetry.RecordGeneration(true, time.Since(start))
		logger.Warn("orchestrator: generation returned empty output", "provider", o.provider.Name())
		return analysis.LimitedDifferencesFallback
	}
	telemetry.RecordGeneration(false, time.Since(start))
	return trimmed
}
