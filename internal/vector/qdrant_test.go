// File path: internal/vector/qdrant_test.go
package vector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

type fakeQdrant struct {
	t *testing.T

	mu              sync.Mutex
	healthFailures  int
	healthCalls     int
	collectionKnown bool
	createCalls     int

	lastUpsert   map[string]interface{}
	lastQuery    map[string]interface{}
	lastScroll   map[string]interface{}
	lastRetrieve map[string]interface{}

	queryPoints    []map[string]interface{}
	scrollPoints   []map[string]interface{}
	retrieveResult []map[string]interface{}
}

func newFakeQdrant(t *testing.T) *fakeQdrant {
	t.Helper()
	return &fakeQdrant{t: t, collectionKnown: true}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/collections" && r.Method == http.MethodGet:
		f.handleHealth(w)
	case r.URL.Path == "/collections/medical_events" && r.Method == http.MethodGet:
		f.handleGetCollection(w)
	case r.URL.Path == "/collections/medical_events" && r.Method == http.MethodPut:
		f.handleCreateCollection(w)
	case r.URL.Path == "/collections/medical_events/points" && r.Method == http.MethodPut:
		f.lastUpsert = decodeBody(f.t, r)
		writeResult(w, map[string]interface{}{"status": "acknowledged"})
	case r.URL.Path == "/collections/medical_events/points" && r.Method == http.MethodPost:
		f.lastRetrieve = decodeBody(f.t, r)
		writeEnvelope(w, f.retrieveResult)
	case r.URL.Path == "/collections/medical_events/points/query" && r.Method == http.MethodPost:
		f.lastQuery = decodeBody(f.t, r)
		writeEnvelope(w, map[string]interface{}{"points": f.queryPoints})
	case r.URL.Path == "/collections/medical_events/points/scroll" && r.Method == http.MethodPost:
		f.lastScroll = decodeBody(f.t, r)
		writeEnvelope(w, map[string]interface{}{"points": f.scrollPoints, "next_page_offset": nil})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeQdrant) handleHealth(w http.ResponseWriter) {
	f.mu.Lock()
	f.healthCalls++
	shouldFail := f.healthFailures > 0
	if shouldFail {
		f.healthFailures--
	}
	f.mu.Unlock()
	if shouldFail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeEnvelope(w, map[string]interface{}{"collections": []interface{}{}})
}

func (f *fakeQdrant) handleGetCollection(w http.ResponseWriter) {
	f.mu.Lock()
	known := f.collectionKnown
	f.mu.Unlock()
	if !known {
		http.Error(w, "collection not found", http.StatusNotFound)
		return
	}
	writeEnvelope(w, map[string]interface{}{"status": "green"})
}

func (f *fakeQdrant) handleCreateCollection(w http.ResponseWriter) {
	f.mu.Lock()
	f.createCalls++
	f.collectionKnown = true
	f.mu.Unlock()
	writeEnvelope(w, true)
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return body
}

func writeEnvelope(w http.ResponseWriter, result interface{}) {
	writeResult(w, map[string]interface{}{"result": result, "status": "ok"})
}

func writeResult(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T, fake *fakeQdrant) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(fake)
	cfg := Config{URL: server.URL, Collection: "medical_events", Timeout: 2 * time.Second}
	cfg.applyDefaults()
	client, err := New(context.Background(), cfg)
	if err != nil {
		server.Close()
		t.Fatalf("new client: %v", err)
	}
	return client, func() {
		client.Close()
		server.Close()
	}
}

func TestClientRecoversAfterHealthFailures(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.healthFailures = 1
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	if !client.Available() {
		t.Fatalf("expected client to recover after retried health check")
	}
	if fake.healthCalls < 2 {
		t.Fatalf("expected at least 2 health calls, got %d", fake.healthCalls)
	}
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.collectionKnown = false
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	if err := client.EnsureCollection(context.Background(), 384); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}
	if fake.createCalls != 1 {
		t.Fatalf("expected 1 create call, got %d", fake.createCalls)
	}
	if err := client.EnsureCollection(context.Background(), 384); err != nil {
		t.Fatalf("ensure collection second call: %v", err)
	}
	if fake.createCalls != 1 {
		t.Fatalf("expected no extra create call, got %d", fake.createCalls)
	}
}

func TestUpsertSendsPayload(t *testing.T) {
	fake := newFakeQdrant(t)
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	payload := record.Payload{
		PatientID: "p-1",
		Timestamp: "2024-03-01T10:30:00Z",
		EventType: "visit",
		Modality:  "text",
		Content:   "routine checkup",
	}
	err := client.Upsert(context.Background(), []Point{{ID: "ev-1", Vector: []float32{0.1, 0.2}, Payload: payload}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	points, ok := fake.lastUpsert["points"].([]interface{})
	if !ok || len(points) != 1 {
		t.Fatalf("unexpected upsert body: %v", fake.lastUpsert)
	}
	point := points[0].(map[string]interface{})
	if point["id"] != "ev-1" {
		t.Fatalf("unexpected point id: %v", point["id"])
	}
	stored := point["payload"].(map[string]interface{})
	if stored["patient_id"] != "p-1" || stored["content"] != "routine checkup" {
		t.Fatalf("unexpected payload: %v", stored)
	}
}

func TestSearchFiltersByPatient(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.queryPoints = []map[string]interface{}{
		{
			"id":    "ev-1",
			"score": 0.92,
			"payload": map[string]interface{}{
				"patient_id": "p-1",
				"timestamp":  "2024-03-01T10:30:00Z",
				"event_type": "visit",
				"modality":   "text",
				"content":    "routine checkup",
			},
		},
	}
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	points, err := client.Search(context.Background(), []float32{0.1, 0.2}, "p-1", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(points) != 1 || points[0].ID != "ev-1" || points[0].Payload.Content != "routine checkup" {
		t.Fatalf("unexpected search result: %+v", points)
	}

	filter, ok := fake.lastQuery["filter"].(map[string]interface{})
	if !ok {
		t.Fatalf("query missing filter: %v", fake.lastQuery)
	}
	must := filter["must"].([]interface{})
	condition := must[0].(map[string]interface{})
	if condition["key"] != "patient_id" {
		t.Fatalf("unexpected filter key: %v", condition)
	}
	match := condition["match"].(map[string]interface{})
	if match["value"] != "p-1" {
		t.Fatalf("unexpected filter value: %v", match)
	}
}

func TestScrollReturnsPayloadPoints(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.scrollPoints = []map[string]interface{}{
		{"id": "ev-1", "payload": map[string]interface{}{"patient_id": "p-1", "content": "first"}},
		{"id": "ev-2", "payload": map[string]interface{}{"patient_id": "p-1", "content": "second"}},
	}
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	points, err := client.Scroll(context.Background(), "p-1", 100)
	if err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if len(points) != 2 || points[1].Payload.Content != "second" {
		t.Fatalf("unexpected scroll result: %+v", points)
	}
	if limit, ok := fake.lastScroll["limit"].(float64); !ok || int(limit) != 100 {
		t.Fatalf("unexpected scroll limit: %v", fake.lastScroll["limit"])
	}
}

func TestRetrieveWithVector(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.retrieveResult = []map[string]interface{}{
		{
			"id":      "ev-1",
			"vector":  []float32{0.1, 0.2, 0.3},
			"payload": map[string]interface{}{"patient_id": "p-1", "content": "routine checkup"},
		},
	}
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	point, err := client.Retrieve(context.Background(), "ev-1", true)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if point.ID != "ev-1" || len(point.Vector) != 3 {
		t.Fatalf("unexpected point: %+v", point)
	}
	if withVector, ok := fake.lastRetrieve["with_vector"].(bool); !ok || !withVector {
		t.Fatalf("expected with_vector request, got %v", fake.lastRetrieve)
	}
}

func TestRetrieveMissingPoint(t *testing.T) {
	fake := newFakeQdrant(t)
	client, cleanup := newTestClient(t, fake)
	defer cleanup()

	_, err := client.Retrieve(context.Background(), "missing", false)
	if !errors.Is(err, ErrPointNotFound) {
		t.Fatalf("expected ErrPointNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected id in error, got %v", err)
	}
}
