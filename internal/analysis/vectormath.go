// File path: internal/analysis/vectormath.go
package analysis

import (
	"errors"
	"math"
)

var (
	// ErrZeroVector reports a vector with zero norm; cosine distance is
	// undefined for it and must not silently become NaN.
	ErrZeroVector = errors.New("vector has zero norm")

	// ErrDimensionMismatch reports two vectors of different lengths. All
	// embeddings in one collection share a fixed dimensionality, so a
	// mismatch indicates corrupted or foreign data.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")
)

// CosineDistance computes 1 - (a.b)/(|a||b|). The result lies in [0, 2]:
// 0 for identical direction, 2 for opposite.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

// roundShift rounds a semantic shift to the three decimal places reported to
// clients and used for change-level classification.
func roundShift(shift float64) float64 {
	return math.Round(shift*1000) / 1000
}
