package enrollment

import (
	"context"
	"fmt"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/id-verifier/internal/facematch"
)

// Duplicate is a pair of enrolled labels whose embeddings are suspiciously
// close, usually the same person enrolled twice under different names.
type Duplicate struct {
	Label    string
	Other    string
	Distance float64
}

// AuditDuplicates builds an in-memory HNSW graph over the enrolled set and
// reports label pairs closer than maxDistance. The graph is throwaway; the
// request-path matcher stays a linear scan over the snapshot.
func (s *Store) AuditDuplicates(ctx context.Context, maxDistance float64) ([]Duplicate, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.Entries) < 2 {
		return nil, nil
	}

	g := hnsw.NewGraph[int]()
	g.M = 16
	g.Ml = 1.0 / 16.0
	g.Distance = hnsw.EuclideanDistance

	for i, e := range snap.Entries {
		g.Add(hnsw.MakeNode(i, e.Embedding))
	}

	var dups []Duplicate
	seen := make(map[[2]int]bool)

	for i, e := range snap.Entries {
		neighbors := g.Search(e.Embedding, 2)
		for _, n := range neighbors {
			if n.Key == i {
				continue
			}
			d := facematch.Euclidean(e.Embedding, snap.Entries[n.Key].Embedding)
			if d > maxDistance {
				continue
			}

			pair := [2]int{i, n.Key}
			if n.Key < i {
				pair = [2]int{n.Key, i}
			}
			if seen[pair] {
				continue
			}
			seen[pair] = true

			dups = append(dups, Duplicate{
				Label:    snap.Entries[pair[0]].Label,
				Other:    snap.Entries[pair[1]].Label,
				Distance: d,
			})
		}
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("audit cancelled: %w", ctx.Err())
	}
	return dups, nil
}
