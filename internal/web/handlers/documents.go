package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/docindex"
)

// DocumentsHandler handles the document register endpoints. Every mutation
// invalidates the in-memory index so the matcher sees the change on its next
// load.
type DocumentsHandler struct {
	repo  database.DocumentWriter
	index *docindex.Index
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(repo database.DocumentWriter, index *docindex.Index) *DocumentsHandler {
	return &DocumentsHandler{repo: repo, index: index}
}

// DocumentPayload is the JSON shape of a register document. Field names stay
// French to match the legacy register clients.
type DocumentPayload struct {
	ID               int64  `json:"id,omitempty"`
	Number           string `json:"numero_document"`
	Surname          string `json:"nom"`
	GivenName        string `json:"prenom"`
	Nationality      string `json:"nationalite,omitempty"`
	BirthDate        string `json:"date_de_naissance,omitempty"`
	Sex              string `json:"sexe,omitempty"`
	BirthPlace       string `json:"lieu_naissance,omitempty"`
	IssueDate        string `json:"date_de_delivrance,omitempty"`
	ExpiryDate       string `json:"date_d_expiration,omitempty"`
	ImagePath        string `json:"chemin_image,omitempty"`
	Profession       string `json:"profession,omitempty"`
	Domicile         string `json:"domicile,omitempty"`
	IssuingAuthority string `json:"organisme_delivrance,omitempty"`
	NFCInfo          string `json:"info_nfc,omitempty"`
	TypeID           *int64 `json:"type_document_id,omitempty"`
}

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func documentPayload(doc *database.Document) DocumentPayload {
	return DocumentPayload{
		ID:               doc.ID,
		Number:           doc.Number,
		Surname:          doc.Surname,
		GivenName:        doc.GivenName,
		Nationality:      doc.Nationality,
		BirthDate:        formatDate(doc.BirthDate),
		Sex:              doc.Sex,
		BirthPlace:       doc.BirthPlace,
		IssueDate:        formatDate(doc.IssueDate),
		ExpiryDate:       formatDate(doc.ExpiryDate),
		ImagePath:        doc.ImagePath,
		Profession:       doc.Profession,
		Domicile:         doc.Domicile,
		IssuingAuthority: doc.IssuingAuthority,
		NFCInfo:          doc.NFCInfo,
		TypeID:           doc.TypeID,
	}
}

func (p *DocumentPayload) toDocument() (*database.Document, error) {
	birth, err := parseDate(p.BirthDate)
	if err != nil {
		return nil, err
	}
	issue, err := parseDate(p.IssueDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDate(p.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return &database.Document{
		ID:               p.ID,
		Number:           p.Number,
		Surname:          p.Surname,
		GivenName:        p.GivenName,
		Nationality:      p.Nationality,
		BirthDate:        birth,
		Sex:              p.Sex,
		BirthPlace:       p.BirthPlace,
		IssueDate:        issue,
		ExpiryDate:       expiry,
		ImagePath:        p.ImagePath,
		Profession:       p.Profession,
		Domicile:         p.Domicile,
		IssuingAuthority: p.IssuingAuthority,
		NFCInfo:          p.NFCInfo,
		TypeID:           p.TypeID,
	}, nil
}

// List handles GET /documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("listing documents failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	payloads := make([]DocumentPayload, len(docs))
	for i := range docs {
		payloads[i] = documentPayload(&docs[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"documents": payloads,
		"count":     len(payloads),
	})
}

// Get handles GET /documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := h.repo.Get(r.Context(), id)
	if err != nil {
		log.Printf("fetching document %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}
	respondJSON(w, http.StatusOK, documentPayload(doc))
}

// Create handles POST /documents.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload DocumentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if payload.Number == "" || payload.Surname == "" {
		respondError(w, http.StatusBadRequest, "numero_document and nom are required")
		return
	}

	doc, err := payload.toDocument()
	if err != nil {
		respondError(w, http.StatusBadRequest, "dates must use the YYYY-MM-DD format")
		return
	}

	id, err := h.repo.Create(r.Context(), doc)
	if err != nil {
		log.Printf("creating document failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create document")
		return
	}
	h.index.Invalidate()

	doc.ID = id
	respondJSON(w, http.StatusCreated, documentPayload(doc))
}

// Update handles PUT /documents/{id}.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var payload DocumentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	payload.ID = id

	doc, err := payload.toDocument()
	if err != nil {
		respondError(w, http.StatusBadRequest, "dates must use the YYYY-MM-DD format")
		return
	}

	if err := h.repo.Update(r.Context(), doc); err != nil {
		log.Printf("updating document %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to update document")
		return
	}
	h.index.Invalidate()

	respondJSON(w, http.StatusOK, documentPayload(doc))
}

// Delete handles DELETE /documents/{id}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		log.Printf("deleting document %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	h.index.Invalidate()

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// InvalidateCache handles POST /documents/cache/invalidate, forcing the next
// match to reload the register. Used after out-of-band register changes.
func (h *DocumentsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.index.Invalidate()
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
