package enrollment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/database/mock"
)

func seedFace(label string, first float32, dim int) database.EnrolledFace {
	embedding := make([]float32, dim)
	embedding[0] = first
	return database.EnrolledFace{Label: label, Embedding: embedding, Model: "facenet512", Dim: dim}
}

func TestStore_SnapshotLoadsOnce(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	repo.AddFace(seedFace("alice", 1, 4))
	repo.AddFace(seedFace("bob", 2, 4))

	store := NewStore(repo, 4)
	ctx := context.Background()

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Entries))
	}
	if snap.Entries[0].Label != "alice" || snap.Entries[1].Label != "bob" {
		t.Errorf("entries not ordered by label: %v, %v", snap.Entries[0].Label, snap.Entries[1].Label)
	}

	// Second call serves the cached snapshot without touching the repo.
	if _, err := store.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if repo.ListCalls != 1 {
		t.Errorf("expected 1 List call, got %d", repo.ListCalls)
	}
}

func TestStore_InvalidateReloads(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	repo.AddFace(seedFace("alice", 1, 4))

	store := NewStore(repo, 4)
	ctx := context.Background()

	if _, err := store.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	repo.AddFace(seedFace("bob", 2, 4))
	store.Invalidate()

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("expected 2 entries after reload, got %d", len(snap.Entries))
	}
	if repo.ListCalls != 2 {
		t.Errorf("expected 2 List calls, got %d", repo.ListCalls)
	}
}

func TestStore_ConcurrentSnapshotSingleLoad(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	repo.AddFace(seedFace("alice", 1, 4))

	store := NewStore(repo, 4)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Snapshot(ctx); err != nil {
				t.Errorf("Snapshot failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if repo.ListCalls != 1 {
		t.Errorf("expected a single load under concurrency, got %d", repo.ListCalls)
	}
}

func TestStore_RepositoryError(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	repo.ListError = errors.New("connection refused")

	store := NewStore(repo, 4)
	_, err := store.Snapshot(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrStoreCorrupt) {
		t.Errorf("expected ErrStoreCorrupt, got %v", err)
	}
}

func TestStore_DimensionMismatch(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	repo.AddFace(seedFace("alice", 1, 8))

	store := NewStore(repo, 4)
	_, err := store.Snapshot(context.Background())
	if !errors.Is(err, ErrStoreCorrupt) {
		t.Errorf("expected ErrStoreCorrupt for wrong dimension, got %v", err)
	}
}

func TestStore_EmptyRepository(t *testing.T) {
	store := NewStore(mock.NewMockEnrolledFaceRepository(), 4)

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Entries) != 0 {
		t.Errorf("expected empty snapshot, got %d entries", len(snap.Entries))
	}

	count, err := store.Count(context.Background())
	if err != nil || count != 0 {
		t.Errorf("expected count 0, got %d (err %v)", count, err)
	}
}

func TestAuditDuplicates(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	near := make([]float32, 8)
	near[0] = 1
	nearCopy := make([]float32, 8)
	nearCopy[0] = 1.001
	far := make([]float32, 8)
	far[1] = 50

	repo.AddFace(database.EnrolledFace{Label: "alice", Embedding: near, Model: "facenet512", Dim: 8})
	repo.AddFace(database.EnrolledFace{Label: "alice-dup", Embedding: nearCopy, Model: "facenet512", Dim: 8})
	repo.AddFace(database.EnrolledFace{Label: "bob", Embedding: far, Model: "facenet512", Dim: 8})

	store := NewStore(repo, 8)
	dups, err := store.AuditDuplicates(context.Background(), 0.5)
	if err != nil {
		t.Fatalf("AuditDuplicates failed: %v", err)
	}
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate pair, got %d", len(dups))
	}
	if dups[0].Label != "alice" || dups[0].Other != "alice-dup" {
		t.Errorf("unexpected pair: %+v", dups[0])
	}
}

func TestAuditDuplicates_TooFewEntries(t *testing.T) {
	repo := mock.NewMockEnrolledFaceRepository()
	repo.AddFace(seedFace("alice", 1, 4))

	store := NewStore(repo, 4)
	dups, err := store.AuditDuplicates(context.Background(), 0.5)
	if err != nil {
		t.Fatalf("AuditDuplicates failed: %v", err)
	}
	if dups != nil {
		t.Errorf("expected no duplicates, got %v", dups)
	}
}
