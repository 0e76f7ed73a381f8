package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
	"github.com/kozaktomas/id-verifier/internal/verify"
)

// VerifyHandler handles the verification endpoints.
type VerifyHandler struct {
	verifier *verify.Verifier
	uploads  *Uploader
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(verifier *verify.Verifier, uploads *Uploader) *VerifyHandler {
	return &VerifyHandler{verifier: verifier, uploads: uploads}
}

// FaceResponse is the JSON shape of a face verification.
type FaceResponse struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Matched  bool    `json:"matched"`
	Result   string  `json:"result"`
}

// Face handles POST /verify/face.
func (h *VerifyHandler) Face(w http.ResponseWriter, r *http.Request) {
	image, _, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}

	result, err := h.verifier.VerifyFace(r.Context(), image)
	if err != nil {
		log.Printf("face verification failed: %v", err)
		respondError(w, http.StatusBadGateway, "face verification unavailable")
		return
	}

	faceResult := database.FaceResultUnknown
	if result.Matched {
		faceResult = database.FaceResultOK
	}
	respondJSON(w, http.StatusOK, FaceResponse{
		Label:    result.Label,
		Distance: result.Distance,
		Matched:  result.Matched,
		Result:   faceResult,
	})
}

// OutcomeResponse wraps a document verification outcome with its kind tag.
type OutcomeResponse struct {
	Result          string `json:"result"`
	Outcome         any    `json:"outcome,omitempty"`
	FailureImageURL string `json:"failure_image_url,omitempty"`
}

// outcomeResponse tags the concrete outcome type for JSON clients.
func outcomeResponse(outcome verify.Outcome, imageURL string) OutcomeResponse {
	resp := OutcomeResponse{FailureImageURL: imageURL}
	switch o := outcome.(type) {
	case verify.Matched:
		resp.Result = "matched"
		resp.Outcome = o
	case verify.NotMatched:
		resp.Result = "not_matched"
	case verify.External:
		resp.Result = "external"
		resp.Outcome = o
	case verify.Failed:
		resp.Result = "failed"
		resp.Outcome = o
	}
	return resp
}

// requestOptions builds the persistence options for a document verification.
// The probe image is stored up front so failures can be reviewed later.
func (h *VerifyHandler) requestOptions(r *http.Request, image []byte, filename string) verify.Options {
	opts := verify.Options{ImageName: filename}

	if raw := r.FormValue("place_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			opts.PlaceID = &id
		}
	}

	url, err := h.uploads.Save(image, filename)
	if err != nil {
		log.Printf("could not store probe image %s: %v", sanitizeForLog(filename), err)
	} else {
		opts.FailureImageURL = url
	}
	return opts
}

// Document handles POST /verify/document.
func (h *VerifyHandler) Document(w http.ResponseWriter, r *http.Request) {
	image, filename, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	opts := h.requestOptions(r, image, filename)

	outcome, err := h.verifier.VerifyDocument(r.Context(), image, opts)
	if err != nil {
		log.Printf("document verification failed: %v", err)
		respondError(w, http.StatusInternalServerError, "document verification failed")
		return
	}

	respondJSON(w, http.StatusOK, outcomeResponse(outcome, opts.FailureImageURL))
}

// fragmentsRequest carries pre-recognized fragments for callers that bring
// their own OCR.
type fragmentsRequest struct {
	Fragments []recognizer.Fragment `json:"fragments"`
	PlaceID   *int64                `json:"place_id,omitempty"`
	ImageName string                `json:"image_name,omitempty"`
}

// DocumentFragments handles POST /verify/document/fragments.
func (h *VerifyHandler) DocumentFragments(w http.ResponseWriter, r *http.Request) {
	var req fragmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Fragments) == 0 {
		respondError(w, http.StatusBadRequest, "fragments are required")
		return
	}

	opts := verify.Options{ImageName: req.ImageName, PlaceID: req.PlaceID}
	outcome, err := h.verifier.VerifyDocumentFragments(r.Context(), req.Fragments, opts)
	if err != nil {
		log.Printf("document verification failed: %v", err)
		respondError(w, http.StatusInternalServerError, "document verification failed")
		return
	}

	respondJSON(w, http.StatusOK, outcomeResponse(outcome, ""))
}

// External handles POST /verify/external, the explicit extraction path for
// documents absent from the register.
func (h *VerifyHandler) External(w http.ResponseWriter, r *http.Request) {
	image, filename, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	opts := h.requestOptions(r, image, filename)

	outcome, err := h.verifier.VerifyExternal(r.Context(), image, opts)
	if err != nil {
		log.Printf("external verification failed: %v", err)
		respondError(w, http.StatusInternalServerError, "external verification failed")
		return
	}

	respondJSON(w, http.StatusOK, outcomeResponse(outcome, opts.FailureImageURL))
}
