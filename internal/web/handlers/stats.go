package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// StatsHandler handles verification history and statistics endpoints.
type StatsHandler struct {
	repo database.VerificationReader
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo database.VerificationReader) *StatsHandler {
	return &StatsHandler{repo: repo}
}

// statsFilter reads the period/start/end query parameters. period takes one
// of today/yesterday/week/month; start and end define a custom range.
func statsFilter(r *http.Request) (database.StatsFilter, bool) {
	q := r.URL.Query()
	filter := database.StatsFilter{Period: q.Get("period")}

	switch filter.Period {
	case "", "today", "yesterday", "week", "month":
	default:
		return filter, false
	}

	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, false
		}
		filter.Start = t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, false
		}
		filter.End = t
	}
	return filter, true
}

// Get handles GET /verifications/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	filter, ok := statsFilter(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid period or date range")
		return
	}

	stats, err := h.repo.Stats(r.Context(), filter)
	if err != nil {
		log.Printf("stats query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ByPlace handles GET /verifications/stats/places.
func (h *StatsHandler) ByPlace(w http.ResponseWriter, r *http.Request) {
	filter, ok := statsFilter(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid period or date range")
		return
	}

	stats, err := h.repo.StatsByPlace(r.Context(), filter, 10)
	if err != nil {
		log.Printf("per-place stats query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"places": stats, "count": len(stats)})
}

// VerificationPayload is the JSON shape of one history row.
type VerificationPayload struct {
	ID              int64  `json:"id"`
	VerifiedAt      string `json:"date_de_verification"`
	FaceResult      string `json:"resultat_photo"`
	DataResult      string `json:"resultat_donnee"`
	FailureImageURL string `json:"url_image_echec,omitempty"`
	DocumentID      *int64 `json:"document_id,omitempty"`
	OCRRecordID     *int64 `json:"ocr_record_id,omitempty"`
	PlaceID         *int64 `json:"lieu_id,omitempty"`
}

// Latest handles GET /verifications. Accepts an optional limit parameter,
// default 50.
func (h *StatsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	filter, ok := statsFilter(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid period or date range")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := h.repo.Latest(r.Context(), filter, limit)
	if err != nil {
		log.Printf("history query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	out := make([]VerificationPayload, len(rows))
	for i, v := range rows {
		out[i] = VerificationPayload{
			ID:              v.ID,
			VerifiedAt:      v.VerifiedAt.Format(time.RFC3339),
			FaceResult:      v.FaceResult,
			DataResult:      v.DataResult,
			FailureImageURL: v.FailureImageURL,
			DocumentID:      v.DocumentID,
			OCRRecordID:     v.OCRRecordID,
			PlaceID:         v.PlaceID,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"verifications": out, "count": len(out)})
}
