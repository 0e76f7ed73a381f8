package facematch

import "math"

// DistanceFunc computes a distance between two embedding vectors.
// Lower means more similar.
type DistanceFunc func(a, b []float32) float64

// Euclidean computes the straight L2 distance between two vectors.
// Returns +Inf for mismatched or empty input.
func Euclidean(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// EuclideanL2 computes the euclidean distance between the L2-normalized
// vectors. This matches the euclidean_l2 metric used by the embedding model
// family, where the 0.78 acceptance threshold is calibrated.
func EuclideanL2(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var normA, normB float64
	for i := range a {
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.Inf(1)
	}
	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	var sum float64
	for i := range a {
		d := float64(a[i])/normA - float64(b[i])/normB
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance computes the cosine distance between two vectors.
// Returns a value between 0 (identical) and 2 (opposite).
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}
