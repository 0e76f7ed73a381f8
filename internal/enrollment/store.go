// Package enrollment manages the in-memory snapshot of enrolled face
// embeddings used by the matcher.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/facematch"
)

// ErrStoreCorrupt is returned when the enrolled embeddings cannot be loaded
// or contain vectors of the wrong dimension.
var ErrStoreCorrupt = errors.New("enrolled face store corrupt")

// Snapshot is an immutable view of the enrolled set. The slice must not be
// mutated by callers.
type Snapshot struct {
	Entries  []facematch.Enrolled
	LoadedAt time.Time
}

// Store caches the enrolled embeddings loaded from the repository. The first
// Snapshot call after creation or Invalidate loads from the database exactly
// once; concurrent callers wait for that single load.
type Store struct {
	repo database.EnrolledFaceReader
	dim  int

	loadMu   sync.Mutex
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates a store backed by the given repository. dim is the
// expected embedding dimension; vectors of any other size fail the load.
func NewStore(repo database.EnrolledFaceReader, dim int) *Store {
	return &Store{repo: repo, dim: dim}
}

// Snapshot returns the current enrolled set, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// Another caller may have finished the load while we waited.
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.snapshot.Store(snap)
	return snap, nil
}

// Invalidate drops the cached snapshot. The next Snapshot call reloads from
// the repository.
func (s *Store) Invalidate() {
	s.snapshot.Store(nil)
}

// Count returns the number of entries in the current snapshot, loading it if
// needed.
func (s *Store) Count(ctx context.Context) (int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(snap.Entries), nil
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	faces, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	entries := make([]facematch.Enrolled, 0, len(faces))
	for _, face := range faces {
		if len(face.Embedding) != s.dim {
			return nil, fmt.Errorf("%w: label %q has dim %d, want %d",
				ErrStoreCorrupt, face.Label, len(face.Embedding), s.dim)
		}
		entries = append(entries, facematch.Enrolled{
			Label:     face.Label,
			Embedding: face.Embedding,
		})
	}

	return &Snapshot{Entries: entries, LoadedAt: time.Now()}, nil
}
