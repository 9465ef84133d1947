// File path: internal/vector/qdrant.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common/telemetry"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/record"
)

// Store is the contract the rest of the service has with the vector
// database. All reads and writes are scoped to one collection of medical
// events; Search and Scroll are always filtered to a single patient.
type Store interface {
	Available() bool
	Collection() string
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, patientID string, limit int) ([]Point, error)
	Scroll(ctx context.Context, patientID string, limit int) ([]Point, error)
	Retrieve(ctx context.Context, id string, withVector bool) (Point, error)
}

// Point is one stored medical event: its id, payload, and (when requested)
// its embedding vector. Score is only meaningful on Search results.
type Point struct {
	ID      string
	Score   float32
	Vector  []float32
	Payload record.Payload
}

// ErrPointNotFound reports a retrieve for an id the collection does not hold.
var ErrPointNotFound = errors.New("point not found")

var (
	errNotFound = errors.New("resource not found")
	errConflict = errors.New("resource conflict")
)

// Client talks to a Qdrant instance over its HTTP API.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	baseURL    string
	collection string
	apiKey     string
	available  bool

	cfg Config

	mu sync.RWMutex
}

var _ Store = (*Client)(nil)

func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration. A store that
// cannot be reached at startup is returned anyway and marked unavailable;
// later calls retry the health check.
func New(ctx context.Context, cfg Config) (*Client, error) {
	logger := common.Logger()
	logger.Info(
		"vector: initializing qdrant client",
		"url", cfg.URL,
		"collection", cfg.Collection,
		"timeout", cfg.Timeout,
	)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost:     cfg.HTTPMaxConnsPerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}

	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		cfg:        cfg,
	}

	if err := client.ensureReady(ctx); err != nil {
		logger.Warn("vector: qdrant initialization failed", "collection", cfg.Collection, "error", err)
		return client, nil
	}
	logger.Info("vector: qdrant connection established")
	return client, nil
}

func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Client) Collection() string {
	if c == nil {
		return ""
	}
	return c.collection
}

func (c *Client) ensureReady(ctx context.Context) error {
	if c == nil {
		return errors.New("qdrant client not configured")
	}
	if c.Available() {
		return nil
	}
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = c.health(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			c.setAvailable(false)
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
	}
	if err != nil {
		c.setAvailable(false)
		return err
	}
	c.setAvailable(true)
	return nil
}

func (c *Client) setAvailable(v bool) {
	c.mu.Lock()
	c.available = v
	c.mu.Unlock()
}

func (c *Client) health(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/collections", c.baseURL)
	return c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
}

// EnsureCollection creates the collection with the given vector dimension if
// it does not exist yet. Cosine distance matches what the analysis engine
// computes on the read side.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	if dim <= 0 {
		return errors.New("invalid vector dimension")
	}
	endpoint := fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(c.collection))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil); err == nil {
		return nil
	} else if !errors.Is(err, errNotFound) {
		return err
	}
	payload := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := c.doRequest(ctx, http.MethodPut, endpoint, payload, nil); err != nil {
		if errors.Is(err, errConflict) {
			return nil
		}
		return err
	}
	common.Logger().Info("vector: collection created", "collection", c.collection, "dim", dim)
	return nil
}

type qdrantPoint struct {
	ID      string          `json:"id"`
	Score   float32         `json:"score,omitempty"`
	Vector  []float32       `json:"vector,omitempty"`
	Payload *record.Payload `json:"payload,omitempty"`
}

func (p qdrantPoint) toPoint() Point {
	point := Point{ID: p.ID, Score: p.Score, Vector: p.Vector}
	if p.Payload != nil {
		point.Payload = *p.Payload
	}
	return point
}

// Upsert writes points idempotently, keyed by event id. The wait flag makes
// the write visible to the immediately following read.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	wire := make([]qdrantPoint, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		wire = append(wire, qdrantPoint{ID: point.ID, Vector: point.Vector, Payload: &payload})
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, url.PathEscape(c.collection))
	body := map[string]interface{}{"points": wire}
	return c.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

func patientFilter(patientID string) map[string]interface{} {
	return map[string]interface{}{
		"must": []map[string]interface{}{
			{
				"key":   "patient_id",
				"match": map[string]interface{}{"value": patientID},
			},
		},
	}
}

// Search runs a patient-scoped similarity query and returns ranked points
// with payloads.
func (c *Client) Search(ctx context.Context, vector []float32, patientID string, limit int) ([]Point, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	body := map[string]interface{}{
		"query":        vector,
		"filter":       patientFilter(patientID),
		"limit":        limit,
		"with_payload": true,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, url.PathEscape(c.collection))
	var resp struct {
		Result struct {
			Points []qdrantPoint `json:"points"`
		} `json:"result"`
	}
	start := time.Now()
	err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp)
	telemetry.RecordVectorSearch(time.Since(start))
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, p.toPoint())
	}
	return points, nil
}

// Scroll fetches a patient's points without ranking, payloads only. The
// order of the result is unspecified; callers sort by timestamp themselves.
func (c *Client) Scroll(ctx context.Context, patientID string, limit int) ([]Point, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	body := map[string]interface{}{
		"filter":       patientFilter(patientID),
		"limit":        limit,
		"with_payload": true,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, url.PathEscape(c.collection))
	var resp struct {
		Result struct {
			Points []qdrantPoint `json:"points"`
		} `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, p.toPoint())
	}
	return points, nil
}

// Retrieve fetches a single point by id, optionally with its vector.
func (c *Client) Retrieve(ctx context.Context, id string, withVector bool) (Point, error) {
	if err := c.ensureReady(ctx); err != nil {
		return Point{}, err
	}
	body := map[string]interface{}{
		"ids":          []string{id},
		"with_payload": true,
		"with_vector":  withVector,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points", c.baseURL, url.PathEscape(c.collection))
	var resp struct {
		Result []qdrantPoint `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return Point{}, err
	}
	if len(resp.Result) == 0 {
		return Point{}, fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}
	return resp.Result[0].toPoint(), nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return errors.New("qdrant client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	return decoder.Decode(out)
}

// Close releases pooled resources associated with the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}
