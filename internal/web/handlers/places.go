package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// PlacesHandler handles control point endpoints.
type PlacesHandler struct {
	repo database.PlaceWriter
}

// NewPlacesHandler creates a new places handler.
func NewPlacesHandler(repo database.PlaceWriter) *PlacesHandler {
	return &PlacesHandler{repo: repo}
}

// PlacePayload is the JSON shape of a control point.
type PlacePayload struct {
	ID        int64   `json:"id,omitempty"`
	Name      string  `json:"nom"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	SiteID    int64   `json:"site_id,omitempty"`
}

func placePayload(p *database.Place) PlacePayload {
	return PlacePayload{
		ID:        p.ID,
		Name:      p.Name,
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
		SiteID:    p.SiteID,
	}
}

// List handles GET /places.
func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	places, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("listing places failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list places")
		return
	}

	out := make([]PlacePayload, len(places))
	for i := range places {
		out[i] = placePayload(&places[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{"places": out, "count": len(out)})
}

// Get handles GET /places/{id}.
func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid place id")
		return
	}

	place, err := h.repo.Get(r.Context(), id)
	if err != nil {
		log.Printf("fetching place %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to fetch place")
		return
	}
	if place == nil {
		respondError(w, http.StatusNotFound, "place not found")
		return
	}
	respondJSON(w, http.StatusOK, placePayload(place))
}

// Create handles POST /places.
func (h *PlacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload PlacePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if payload.Name == "" {
		respondError(w, http.StatusBadRequest, "nom is required")
		return
	}

	place := &database.Place{
		Name:      payload.Name,
		Longitude: payload.Longitude,
		Latitude:  payload.Latitude,
		SiteID:    payload.SiteID,
	}
	id, err := h.repo.Create(r.Context(), place)
	if err != nil {
		log.Printf("creating place failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create place")
		return
	}
	place.ID = id
	respondJSON(w, http.StatusCreated, placePayload(place))
}

// Update handles PUT /places/{id}.
func (h *PlacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid place id")
		return
	}

	var payload PlacePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	place := &database.Place{
		ID:        id,
		Name:      payload.Name,
		Longitude: payload.Longitude,
		Latitude:  payload.Latitude,
		SiteID:    payload.SiteID,
	}
	if err := h.repo.Update(r.Context(), place); err != nil {
		log.Printf("updating place %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to update place")
		return
	}
	respondJSON(w, http.StatusOK, placePayload(place))
}

// Delete handles DELETE /places/{id}.
func (h *PlacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid place id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		log.Printf("deleting place %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to delete place")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
