package facematch

import (
	"math"
	"testing"
)

func TestMatch_ExactProbe(t *testing.T) {
	v1 := []float32{0.1, 0.5, -0.3, 0.8}
	enrolled := []Enrolled{{Label: "alice", Embedding: v1}}

	res := Match(v1, enrolled, EuclideanL2, 0.78)
	if !res.Matched {
		t.Fatal("expected a match for an exact probe")
	}
	if res.Label != "alice" {
		t.Errorf("expected label alice, got %q", res.Label)
	}
	if res.Distance > 1e-9 {
		t.Errorf("expected zero distance, got %f", res.Distance)
	}
}

func TestMatch_BeyondThreshold(t *testing.T) {
	enrolled := []Enrolled{{Label: "alice", Embedding: []float32{1, 0, 0}}}
	probe := []float32{0, 1, 0} // orthogonal, euclidean_l2 distance = sqrt(2)

	res := Match(probe, enrolled, EuclideanL2, 0.78)
	if res.Matched {
		t.Fatal("expected no match beyond threshold")
	}
	if res.Label != UnknownLabel {
		t.Errorf("expected %q, got %q", UnknownLabel, res.Label)
	}
	if math.Abs(res.Distance-math.Sqrt2) > 1e-6 {
		t.Errorf("expected distance sqrt(2), got %f", res.Distance)
	}
}

func TestMatch_EmptySet(t *testing.T) {
	res := Match([]float32{1, 2, 3}, nil, EuclideanL2, 0.78)
	if res.Matched {
		t.Fatal("expected no match against an empty set")
	}
	if res.Label != UnknownLabel {
		t.Errorf("expected %q, got %q", UnknownLabel, res.Label)
	}
	if !math.IsInf(res.Distance, 1) {
		t.Errorf("expected +Inf distance, got %f", res.Distance)
	}
}

func TestMatch_PicksClosest(t *testing.T) {
	enrolled := []Enrolled{
		{Label: "alice", Embedding: []float32{1, 0, 0}},
		{Label: "bob", Embedding: []float32{0.9, 0.1, 0}},
	}
	probe := []float32{0.92, 0.08, 0}

	res := Match(probe, enrolled, EuclideanL2, 0.78)
	if !res.Matched || res.Label != "bob" {
		t.Errorf("expected bob, got %q (matched=%v)", res.Label, res.Matched)
	}
}

func TestMatch_TieKeepsFirst(t *testing.T) {
	v := []float32{0.2, 0.4, 0.6}
	enrolled := []Enrolled{
		{Label: "first", Embedding: v},
		{Label: "second", Embedding: v},
	}

	for i := 0; i < 10; i++ {
		res := Match(v, enrolled, EuclideanL2, 0.78)
		if res.Label != "first" {
			t.Fatalf("tie must keep enrollment order, got %q", res.Label)
		}
	}
}

func TestMatch_ExactlyAtThreshold(t *testing.T) {
	enrolled := []Enrolled{{Label: "alice", Embedding: []float32{3, 4}}}
	probe := []float32{3, 4}

	// Zero distance is always within any non-negative threshold.
	res := Match(probe, enrolled, EuclideanL2, 0)
	if !res.Matched {
		t.Error("distance equal to threshold must still match")
	}
}

func TestEuclideanL2_ScaleInvariant(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{2, 4, 6} // same direction, doubled magnitude

	if d := EuclideanL2(a, b); d > 1e-6 {
		t.Errorf("expected near-zero distance for scaled vector, got %f", d)
	}
}

func TestEuclidean_MismatchedLengths(t *testing.T) {
	if d := Euclidean([]float32{1, 2}, []float32{1, 2, 3}); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for mismatched lengths, got %f", d)
	}
	if d := EuclideanL2([]float32{1, 2}, []float32{1, 2, 3}); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for mismatched lengths, got %f", d)
	}
}

func TestEuclidean_Basic(t *testing.T) {
	d := Euclidean([]float32{0, 0}, []float32{3, 4})
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("expected 5, got %f", d)
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := CosineDistance(tt.a, tt.b); math.Abs(d-tt.expected) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.expected, d)
			}
		})
	}
}
