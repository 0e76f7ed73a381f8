package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/database/mock"
	"github.com/kozaktomas/id-verifier/internal/enrollment"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
)

func newEnrollmentFixture() (*EnrollmentHandler, *mock.MockEnrolledFaceRepository, *fakeProvider, *enrollment.Store) {
	repo := mock.NewMockEnrolledFaceRepository()
	provider := &fakeProvider{}
	store := enrollment.NewStore(repo, 4)
	return NewEnrollmentHandler(repo, store, provider, 4), repo, provider, store
}

func TestEnroll(t *testing.T) {
	handler, repo, provider, store := newEnrollmentFixture()
	provider.embedding = []float32{1, 0, 0, 0}

	// Warm the snapshot so the test can observe the invalidation.
	if n, err := store.Count(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected empty store, got n=%d err=%v", n, err)
	}

	req := multipartRequest(t, "/api/v1/enrollment", []byte("img"), map[string]string{"label": "alice"})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	var resp EnrolledResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Label != "alice" || resp.Dim != 4 {
		t.Errorf("unexpected response: %+v", resp)
	}

	faces, err := repo.List(context.Background())
	if err != nil || len(faces) != 1 {
		t.Fatalf("expected 1 stored face, got %d, err %v", len(faces), err)
	}

	// The matcher must see the new identity without a manual invalidation.
	if n, err := store.Count(context.Background()); err != nil || n != 1 {
		t.Errorf("expected snapshot reload with 1 entry, got n=%d err=%v", n, err)
	}
}

func TestEnroll_NoFace(t *testing.T) {
	handler, _, provider, _ := newEnrollmentFixture()
	provider.embedErr = recognizer.ErrNoFace

	req := multipartRequest(t, "/api/v1/enrollment", []byte("img"), map[string]string{"label": "alice"})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "no face detected in image")
}

func TestEnroll_MissingLabel(t *testing.T) {
	handler, _, provider, _ := newEnrollmentFixture()
	provider.embedding = []float32{1, 0, 0, 0}

	req := multipartRequest(t, "/api/v1/enrollment", []byte("img"), nil)
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "label is required")
}

func TestEnroll_WrongDimension(t *testing.T) {
	handler, _, provider, _ := newEnrollmentFixture()
	provider.embedding = []float32{1, 0} // provider misconfigured

	req := multipartRequest(t, "/api/v1/enrollment", []byte("img"), map[string]string{"label": "alice"})
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadGateway)
	assertJSONError(t, recorder, "unexpected embedding dimension")
}

func TestEnrollmentList(t *testing.T) {
	handler, repo, _, _ := newEnrollmentFixture()
	repo.AddFace(database.EnrolledFace{Label: "alice", Embedding: []float32{1, 0, 0, 0}, Model: "sidecar"})
	repo.AddFace(database.EnrolledFace{Label: "bob", Embedding: []float32{0, 1, 0, 0}, Model: "sidecar"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollment", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Identities []EnrolledResponse `json:"identities"`
		Count      int                `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 {
		t.Fatalf("expected 2 identities, got %d", resp.Count)
	}
}

func TestEnrollmentDelete(t *testing.T) {
	handler, repo, _, _ := newEnrollmentFixture()
	repo.AddFace(database.EnrolledFace{Label: "alice", Embedding: []float32{1, 0, 0, 0}})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/enrollment/alice", nil),
		map[string]string{"label": "alice"})
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	faces, err := repo.List(context.Background())
	if err != nil || len(faces) != 0 {
		t.Errorf("expected no faces left, got %d, err %v", len(faces), err)
	}
}

func TestEnrollmentDuplicates(t *testing.T) {
	handler, repo, _, _ := newEnrollmentFixture()
	repo.AddFace(database.EnrolledFace{Label: "alice", Embedding: []float32{1, 0, 0, 0}})
	repo.AddFace(database.EnrolledFace{Label: "alice2", Embedding: []float32{1, 0.01, 0, 0}})
	repo.AddFace(database.EnrolledFace{Label: "bob", Embedding: []float32{0, 10, 0, 0}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollment/duplicates?max_distance=0.5", nil)
	recorder := httptest.NewRecorder()
	handler.Duplicates(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Duplicates []DuplicateResponse `json:"duplicates"`
		Count      int                 `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 1 {
		t.Fatalf("expected 1 duplicate pair, got %+v", resp)
	}
	if resp.Duplicates[0].Label != "alice" || resp.Duplicates[0].Other != "alice2" {
		t.Errorf("unexpected pair: %+v", resp.Duplicates[0])
	}
}

func TestEnrollmentDuplicates_BadParam(t *testing.T) {
	handler, _, _, _ := newEnrollmentFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollment/duplicates?max_distance=-1", nil)
	recorder := httptest.NewRecorder()
	handler.Duplicates(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "max_distance must be a positive number")
}
