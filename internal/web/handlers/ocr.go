package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
)

// OCRHandler handles raw text recognition endpoints.
type OCRHandler struct {
	provider recognizer.Provider
	records  database.OCRRecordWriter
}

// NewOCRHandler creates a new OCR handler.
func NewOCRHandler(provider recognizer.Provider, records database.OCRRecordWriter) *OCRHandler {
	return &OCRHandler{provider: provider, records: records}
}

// RecognizeResponse is the JSON shape of a raw recognition.
type RecognizeResponse struct {
	RecordID   int64                 `json:"record_id"`
	Text       string                `json:"text"`
	Confidence float64               `json:"confidence"`
	Fragments  []recognizer.Fragment `json:"fragments"`
}

// Recognize handles POST /ocr/recognize. The result is persisted so scans
// can be re-matched later without re-running recognition.
func (h *OCRHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	image, filename, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}

	fragments, err := h.provider.RecognizeText(r.Context(), image)
	if err != nil {
		if errors.Is(err, recognizer.ErrNoText) {
			respondError(w, http.StatusUnprocessableEntity, "no text recognized")
			return
		}
		log.Printf("recognition failed for %s: %v", sanitizeForLog(filename), err)
		respondError(w, http.StatusBadGateway, "text recognition unavailable")
		return
	}

	raw, err := json.Marshal(fragments)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to serialize fragments")
		return
	}

	rec := &database.OCRRecord{
		ImageName:     filename,
		Text:          recognizer.JoinText(fragments),
		Confidence:    recognizer.MaxConfidence(fragments),
		FragmentsJSON: string(raw),
	}
	id, err := h.records.Save(r.Context(), rec)
	if err != nil {
		log.Printf("saving recognition result failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to save recognition result")
		return
	}

	respondJSON(w, http.StatusOK, RecognizeResponse{
		RecordID:   id,
		Text:       rec.Text,
		Confidence: rec.Confidence,
		Fragments:  fragments,
	})
}
