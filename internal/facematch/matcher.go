// Package facematch implements nearest-neighbor matching of face
// embedding vectors against a set of enrolled identities.
package facematch

import "math"

// UnknownLabel is reported when no enrolled face falls within the
// acceptance threshold.
const UnknownLabel = "Unknown"

// Enrolled is a single known identity with its reference embedding.
type Enrolled struct {
	Label     string
	Embedding []float32
}

// Result describes the outcome of matching one probe embedding.
type Result struct {
	Label    string
	Distance float64
	Matched  bool
}

// Match scans the enrolled set linearly and returns the closest identity.
// When the smallest distance exceeds threshold, or the set is empty, the
// result carries UnknownLabel with Matched false. Ties keep the first
// candidate in enrollment order, so repeated calls over the same set are
// deterministic.
func Match(probe []float32, enrolled []Enrolled, dist DistanceFunc, threshold float64) Result {
	best := Result{Label: UnknownLabel, Distance: math.Inf(1)}

	for _, e := range enrolled {
		d := dist(probe, e.Embedding)
		if d < best.Distance {
			best.Label = e.Label
			best.Distance = d
			best.Matched = true
		}
	}

	if !best.Matched || best.Distance > threshold {
		return Result{Label: UnknownLabel, Distance: best.Distance, Matched: false}
	}
	return best
}
