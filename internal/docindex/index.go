// Package docindex caches the document register in memory for the text
// matcher. The register changes rarely, so the cache only reloads on
// explicit invalidation.
package docindex

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// Snapshot is an immutable view of the register. The slice must not be
// mutated by callers.
type Snapshot struct {
	Documents []database.Document
	LoadedAt  time.Time
}

// Index caches the document list loaded from the repository. The first
// Snapshot call after creation or Invalidate loads from the database exactly
// once; concurrent callers wait for that single load.
type Index struct {
	repo database.DocumentReader

	loadMu   sync.Mutex
	snapshot atomic.Pointer[Snapshot]
}

// New creates an index backed by the given repository.
func New(repo database.DocumentReader) *Index {
	return &Index{repo: repo}
}

// Snapshot returns the current document list, loading it on first use.
func (x *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := x.snapshot.Load(); snap != nil {
		return snap, nil
	}

	x.loadMu.Lock()
	defer x.loadMu.Unlock()

	if snap := x.snapshot.Load(); snap != nil {
		return snap, nil
	}

	docs, err := x.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Documents: docs, LoadedAt: time.Now()}
	x.snapshot.Store(snap)
	return snap, nil
}

// Invalidate drops the cached snapshot. The next Snapshot call reloads from
// the repository. Must be called after any register mutation.
func (x *Index) Invalidate() {
	x.snapshot.Store(nil)
}

// Empty reports whether the register currently holds no documents.
func (x *Index) Empty(ctx context.Context) (bool, error) {
	snap, err := x.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return len(snap.Documents) == 0, nil
}
