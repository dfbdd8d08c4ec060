// Package similarity normalizes embeddings and measures cosine distance
// between them. Stored and query vectors both pass through Normalize so the
// distance is comparable across the two.
package similarity

import "math"

// Dimensions is the embedding width stored in the vector columns.
const Dimensions = 1536

// Similarity thresholds. A row matches when its distance is at most
// 1 - threshold.
const (
	EventThreshold          = 0.8
	CollegeThreshold        = 0.9
	RecommendationThreshold = 0.8
)

// RecommendationLimit caps the number of recommended events.
const RecommendationLimit = 20

// MaxDistance converts a similarity threshold into the largest accepted
// cosine distance.
func MaxDistance(threshold float64) float64 {
	return 1 - threshold
}

// Normalize returns a unit-length copy of v. A zero vector is returned
// unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// Dot returns the inner product of a and b. Vectors of different length
// yield NaN.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Distance is the cosine distance 1 - dot(a, b) of two unit vectors.
// Mismatched or empty vectors are reported as maximally distant.
func Distance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	return 1 - Dot(a, b)
}

// Within reports whether a and b are at least threshold similar.
func Within(a, b []float32, threshold float64) bool {
	return Distance(a, b) <= MaxDistance(threshold)
}
