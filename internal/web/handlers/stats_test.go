package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/database/mock"
)

func seedVerifications(t *testing.T, repo *mock.MockVerificationRepository) {
	t.Helper()
	rows := []database.Verification{
		{FaceResult: database.FaceResultNotVerified, DataResult: database.DataResultOK},
		{FaceResult: database.FaceResultNotVerified, DataResult: database.DataResultOK},
		{FaceResult: database.FaceResultNotVerified, DataResult: database.DataResultFailed},
		{FaceResult: database.FaceResultNotVerified, DataResult: database.DataResultExternal},
	}
	for i := range rows {
		if _, err := repo.Save(context.Background(), &rows[i]); err != nil {
			t.Fatalf("failed to seed verification: %v", err)
		}
	}
}

func TestStatsGet(t *testing.T) {
	repo := mock.NewMockVerificationRepository()
	seedVerifications(t, repo)
	handler := NewStatsHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications/stats", nil)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var stats database.VerificationStats
	parseJSONResponse(t, recorder, &stats)
	if stats.Total != 4 || stats.Matched != 2 || stats.Failed != 1 || stats.External != 1 {
		t.Errorf("unexpected totals: %+v", stats)
	}
}

func TestStatsGet_InvalidPeriod(t *testing.T) {
	handler := NewStatsHandler(mock.NewMockVerificationRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications/stats?period=decade", nil)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid period or date range")
}

func TestStatsGet_BadDateRange(t *testing.T) {
	handler := NewStatsHandler(mock.NewMockVerificationRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications/stats?start=12/05/2024", nil)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestLatest(t *testing.T) {
	repo := mock.NewMockVerificationRepository()
	seedVerifications(t, repo)
	handler := NewStatsHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications?limit=2", nil)
	recorder := httptest.NewRecorder()
	handler.Latest(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Verifications []VerificationPayload `json:"verifications"`
		Count         int                   `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 {
		t.Errorf("expected 2 rows, got %d", resp.Count)
	}
}

func TestLatest_InvalidLimit(t *testing.T) {
	handler := NewStatsHandler(mock.NewMockVerificationRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications?limit=0", nil)
	recorder := httptest.NewRecorder()
	handler.Latest(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "limit must be between 1 and 500")
}
