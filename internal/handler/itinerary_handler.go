package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shiva/wayfarer/internal/catalog"
	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

// ItineraryRequest is the JSON body for POST /api/v1/itineraries.
type ItineraryRequest struct {
	City        string                     `json:"city"`
	Constraints model.ItineraryConstraints `json:"constraints"`
}

// ItineraryHandler serves city catalogs and one-shot itinerary generation.
type ItineraryHandler struct {
	itineraries *service.ItineraryService
	logger      *slog.Logger
}

// NewItineraryHandler creates a new itinerary handler.
func NewItineraryHandler(itineraries *service.ItineraryService, logger *slog.Logger) *ItineraryHandler {
	return &ItineraryHandler{itineraries: itineraries, logger: logger}
}

// ListPlaces handles GET /api/v1/cities/{city}/places
func (h *ItineraryHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := catalog.Lookup(mux.Vars(r)["city"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

// CreateItinerary handles POST /api/v1/itineraries
//
// Request body:
//
//	{"city": "sf", "constraints": {"vibe": "chill", "budget": "low", "hours_outside": 4}}
//
// Response: {"options": [...]} with 1 to 3 options. Generation failures
// degrade to the fallback option and are not surfaced as errors.
func (h *ItineraryHandler) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	var req ItineraryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.City == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "city is required")
		return
	}

	candidates, err := catalog.Lookup(req.City)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.itineraries.FetchItineraryOptions(r.Context(), req.Constraints, candidates))
}
