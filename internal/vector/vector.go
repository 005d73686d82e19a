// Package vector holds the similarity math shared by the relevance scorer
// and the near-duplicate detector.
package vector

import (
	"fmt"
	"math"
)

// DefaultNearDupThreshold is the cosine similarity above which two articles
// are treated as the same story.
const DefaultNearDupThreshold = 0.92

// Cosine returns the cosine similarity of u and v in [-1, 1]. A
// zero-magnitude vector yields 0 rather than NaN. Length mismatch is an
// error; callers decide whether that is fatal.
func Cosine(u, v []float32) (float64, error) {
	if len(u) != len(v) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(u), len(v))
	}

	var dot, nu, nv float64
	for i := range u {
		a, b := float64(u[i]), float64(v[i])
		dot += a * b
		nu += a * a
		nv += b * b
	}

	mag := math.Sqrt(nu) * math.Sqrt(nv)
	if mag == 0 {
		return 0, nil
	}
	return dot / mag, nil
}

// IsNearDuplicate reports whether candidate exceeds the similarity threshold
// against at least one prior vector. An empty prior set is never a
// duplicate; prior vectors of a different length are ignored.
func IsNearDuplicate(candidate []float32, prior [][]float32, threshold float64) bool {
	for _, p := range prior {
		sim, err := Cosine(candidate, p)
		if err != nil {
			continue
		}
		if sim > threshold {
			return true
		}
	}
	return false
}
