// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	ingestTotal *expvar.Int

	vectorSearchTotal     *expvar.Int
	vectorSearchLatencyMS *expvar.Int

	embeddingTotal     *expvar.Int
	embeddingItems     *expvar.Int
	embeddingLatencyMS *expvar.Int

	generationTotal     *expvar.Int
	generationFallbacks *expvar.Int
	generationLatencyMS *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		ingestTotal = expvar.NewInt("meditrack_ingest_total")

		vectorSearchTotal = expvar.NewInt("meditrack_vector_search_total")
		vectorSearchLatencyMS = expvar.NewInt("meditrack_vector_search_latency_ms")

		embeddingTotal = expvar.NewInt("meditrack_embedding_total")
		embeddingItems = expvar.NewInt("meditrack_embedding_items")
		embeddingLatencyMS = expvar.NewInt("meditrack_embedding_latency_ms")

		generationTotal = expvar.NewInt("meditrack_generation_total")
		generationFallbacks = expvar.NewInt("meditrack_generation_fallbacks")
		generationLatencyMS = expvar.NewInt("meditrack_generation_latency_ms")
	})
}

// RecordIngest counts a successfully stored medical event.
func RecordIngest() {
	ensureInit()
	ingestTotal.Add(1)
}

// RecordVectorSearch counts a similarity search against the vector store.
func RecordVectorSearch(duration time.Duration) {
	ensureInit()
	vectorSearchTotal.Add(1)
	if duration > 0 {
		vectorSearchLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordEmbedding counts an embedding request and the number of texts embedded.
func RecordEmbedding(items int, duration time.Duration) {
	ensureInit()
	embeddingTotal.Add(1)
	if items > 0 {
		embeddingItems.Add(int64(items))
	}
	if duration > 0 {
		embeddingLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordGeneration counts a language-model completion. Fallback marks the
// cases where the model failed and a fixed string was served instead.
func RecordGeneration(fallback bool, duration time.Duration) {
	ensureInit()
	generationTotal.Add(1)
	if fallback {
		generationFallbacks.Add(1)
	}
	if duration > 0 {
		generationLatencyMS.Add(duration.Milliseconds())
	}
}
