package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/enrollment"
	"github.com/kozaktomas/id-verifier/internal/recognizer"

	"github.com/go-chi/chi/v5"
)

// defaultDuplicateDistance is the raw euclidean distance below which two
// enrolled embeddings are flagged as probable duplicates.
const defaultDuplicateDistance = 0.6

// EnrollmentHandler handles enrolled identity endpoints. Mutations invalidate
// the embedding snapshot so the matcher picks them up.
type EnrollmentHandler struct {
	repo     database.EnrolledFaceWriter
	store    *enrollment.Store
	provider recognizer.Provider
	dim      int
	model    string
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(repo database.EnrolledFaceWriter, store *enrollment.Store, provider recognizer.Provider, dim int) *EnrollmentHandler {
	return &EnrollmentHandler{
		repo:     repo,
		store:    store,
		provider: provider,
		dim:      dim,
		model:    provider.Name(),
	}
}

// EnrolledResponse is the JSON shape of one enrolled identity.
type EnrolledResponse struct {
	Label     string `json:"label"`
	Model     string `json:"model,omitempty"`
	Dim       int    `json:"dim"`
	CreatedAt string `json:"created_at,omitempty"`
}

// List handles GET /enrollment.
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	faces, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("listing enrolled faces failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list enrolled identities")
		return
	}

	out := make([]EnrolledResponse, len(faces))
	for i, f := range faces {
		out[i] = EnrolledResponse{
			Label: f.Label,
			Model: f.Model,
			Dim:   len(f.Embedding),
		}
		if !f.CreatedAt.IsZero() {
			out[i].CreatedAt = f.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": out,
		"count":      len(out),
	})
}

// Enroll handles POST /enrollment. Expects a multipart form with "label" and
// "image"; the face embedding is computed by the recognition provider.
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	image, _, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}

	label := strings.TrimSpace(r.FormValue("label"))
	if label == "" {
		respondError(w, http.StatusBadRequest, "label is required")
		return
	}

	embedding, err := h.provider.DetectAndEmbed(r.Context(), image)
	if err != nil {
		if errors.Is(err, recognizer.ErrNoFace) {
			respondError(w, http.StatusUnprocessableEntity, "no face detected in image")
			return
		}
		log.Printf("embedding for %s failed: %v", sanitizeForLog(label), err)
		respondError(w, http.StatusBadGateway, "face embedding unavailable")
		return
	}
	if len(embedding) != h.dim {
		log.Printf("provider returned dim %d, expected %d", len(embedding), h.dim)
		respondError(w, http.StatusBadGateway, "unexpected embedding dimension")
		return
	}

	face := database.EnrolledFace{
		Label:     label,
		Embedding: embedding,
		Model:     h.model,
		Dim:       len(embedding),
	}
	if err := h.repo.Save(r.Context(), face); err != nil {
		log.Printf("saving enrollment for %s failed: %v", sanitizeForLog(label), err)
		respondError(w, http.StatusInternalServerError, "failed to save enrollment")
		return
	}
	h.store.Invalidate()

	respondJSON(w, http.StatusCreated, EnrolledResponse{
		Label: label,
		Model: face.Model,
		Dim:   face.Dim,
	})
}

// Delete handles DELETE /enrollment/{label}.
func (h *EnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	if label == "" {
		respondError(w, http.StatusBadRequest, "label is required")
		return
	}

	if err := h.repo.Delete(r.Context(), label); err != nil {
		log.Printf("deleting enrollment %s failed: %v", sanitizeForLog(label), err)
		respondError(w, http.StatusNotFound, "enrolled identity not found")
		return
	}
	h.store.Invalidate()

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DuplicateResponse is one suspicious enrolled pair.
type DuplicateResponse struct {
	Label    string  `json:"label"`
	Other    string  `json:"other"`
	Distance float64 `json:"distance"`
}

// Duplicates handles GET /enrollment/duplicates. Accepts an optional
// max_distance query parameter.
func (h *EnrollmentHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	maxDistance := defaultDuplicateDistance
	if raw := r.URL.Query().Get("max_distance"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			respondError(w, http.StatusBadRequest, "max_distance must be a positive number")
			return
		}
		maxDistance = v
	}

	dups, err := h.store.AuditDuplicates(r.Context(), maxDistance)
	if err != nil {
		log.Printf("duplicate audit failed: %v", err)
		respondError(w, http.StatusInternalServerError, "duplicate audit failed")
		return
	}

	out := make([]DuplicateResponse, len(dups))
	for i, d := range dups {
		out[i] = DuplicateResponse{Label: d.Label, Other: d.Other, Distance: d.Distance}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"duplicates":   out,
		"count":        len(out),
		"max_distance": maxDistance,
	})
}
