package handler

import (
	"net/http"

	"github.com/shiva/wayfarer/internal/service"
)

// DirectionsHandler handles point-to-point directions requests.
type DirectionsHandler struct {
	directions *service.DirectionsService
}

// NewDirectionsHandler creates a new directions handler.
func NewDirectionsHandler(directions *service.DirectionsService) *DirectionsHandler {
	return &DirectionsHandler{directions: directions}
}

// GetDirections handles GET /api/v1/directions?origin=lat,lng&destination=lat,lng
//
// Always answers 200 for valid coordinates. "fallback": true marks a
// synthetic driving estimate; a missing "transit" means no transit route
// was found.
func (h *DirectionsHandler) GetDirections(w http.ResponseWriter, r *http.Request) {
	origin, err := parseLatLng(r.URL.Query().Get("origin"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_origin", err.Error())
		return
	}
	destination, err := parseLatLng(r.URL.Query().Get("destination"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_destination", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.directions.GetDirections(r.Context(), origin, destination))
}
