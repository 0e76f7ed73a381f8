package docindex

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/database/mock"
)

func TestIndex_SnapshotCaches(t *testing.T) {
	repo := mock.NewMockDocumentRepository()
	repo.AddDocument(database.Document{Number: "AB1234", Surname: "DUPONT", GivenName: "Jean"})

	idx := New(repo)
	ctx := context.Background()

	first, err := idx.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(first.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(first.Documents))
	}

	// Mutating the repo without invalidation must not change the snapshot.
	repo.AddDocument(database.Document{Number: "CD5678", Surname: "MARTIN", GivenName: "Claire"})

	second, err := idx.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(second.Documents) != 1 {
		t.Errorf("stale snapshot expected, got %d documents", len(second.Documents))
	}
	if first != second {
		t.Error("expected the same snapshot pointer without invalidation")
	}
}

func TestIndex_InvalidateReloads(t *testing.T) {
	repo := mock.NewMockDocumentRepository()
	repo.AddDocument(database.Document{Number: "AB1234", Surname: "DUPONT", GivenName: "Jean"})

	idx := New(repo)
	ctx := context.Background()

	if _, err := idx.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	repo.AddDocument(database.Document{Number: "CD5678", Surname: "MARTIN", GivenName: "Claire"})
	idx.Invalidate()

	snap, err := idx.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Documents) != 2 {
		t.Errorf("expected 2 documents after invalidation, got %d", len(snap.Documents))
	}
}

func TestIndex_Empty(t *testing.T) {
	idx := New(mock.NewMockDocumentRepository())

	empty, err := idx.Empty(context.Background())
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if !empty {
		t.Error("expected empty register")
	}
}

func TestIndex_ErrorNotCached(t *testing.T) {
	repo := mock.NewMockDocumentRepository()
	repo.ListError = errors.New("connection refused")

	idx := New(repo)
	if _, err := idx.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	// A failed load leaves the index empty so the next call retries.
	repo.ListError = nil
	repo.AddDocument(database.Document{Number: "AB1234", Surname: "DUPONT", GivenName: "Jean"})

	snap, err := idx.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed after retry: %v", err)
	}
	if len(snap.Documents) != 1 {
		t.Errorf("expected 1 document, got %d", len(snap.Documents))
	}
}

func TestIndex_ConcurrentSnapshot(t *testing.T) {
	repo := mock.NewMockDocumentRepository()
	repo.AddDocument(database.Document{Number: "AB1234", Surname: "DUPONT", GivenName: "Jean"})

	idx := New(repo)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := idx.Snapshot(context.Background()); err != nil {
				t.Errorf("Snapshot failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
