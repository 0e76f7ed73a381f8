package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// DocumentTypesHandler handles document category endpoints.
type DocumentTypesHandler struct {
	repo database.DocumentTypeWriter
}

// NewDocumentTypesHandler creates a new document types handler.
func NewDocumentTypesHandler(repo database.DocumentTypeWriter) *DocumentTypesHandler {
	return &DocumentTypesHandler{repo: repo}
}

// DocumentTypePayload is the JSON shape of a document category.
type DocumentTypePayload struct {
	ID          int64  `json:"id,omitempty"`
	Label       string `json:"libelle"`
	Description string `json:"description,omitempty"`
}

// List handles GET /types.
func (h *DocumentTypesHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("listing document types failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list document types")
		return
	}

	out := make([]DocumentTypePayload, len(types))
	for i, t := range types {
		out[i] = DocumentTypePayload{ID: t.ID, Label: t.Label, Description: t.Description}
	}
	respondJSON(w, http.StatusOK, map[string]any{"types": out, "count": len(out)})
}

// Get handles GET /types/{id}.
func (h *DocumentTypesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid type id")
		return
	}

	dt, err := h.repo.Get(r.Context(), id)
	if err != nil {
		log.Printf("fetching document type %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to fetch document type")
		return
	}
	if dt == nil {
		respondError(w, http.StatusNotFound, "document type not found")
		return
	}
	respondJSON(w, http.StatusOK, DocumentTypePayload{ID: dt.ID, Label: dt.Label, Description: dt.Description})
}

// Create handles POST /types.
func (h *DocumentTypesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload DocumentTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if payload.Label == "" {
		respondError(w, http.StatusBadRequest, "libelle is required")
		return
	}

	dt := &database.DocumentType{Label: payload.Label, Description: payload.Description}
	id, err := h.repo.Create(r.Context(), dt)
	if err != nil {
		log.Printf("creating document type failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create document type")
		return
	}
	payload.ID = id
	respondJSON(w, http.StatusCreated, payload)
}

// Delete handles DELETE /types/{id}.
func (h *DocumentTypesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid type id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		log.Printf("deleting document type %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to delete document type")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
