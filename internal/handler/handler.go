// Package handler contains HTTP request handlers for the trip planning API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shiva/wayfarer/internal/catalog"
	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 64 << 10

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "no_plan", "This profile has no active plan.")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "Planning session not found or expired.")
	case errors.Is(err, catalog.ErrUnknownCity):
		writeError(w, http.StatusNotFound, "unknown_city", err.Error())
	case errors.Is(err, service.ErrGenerationInFlight):
		writeError(w, http.StatusConflict, "generation_in_flight", "Itinerary generation is already running for this session.")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_state", "This action is not available in the session's current state.")
	case errors.Is(err, service.ErrNoOptionIncluded):
		writeError(w, http.StatusUnprocessableEntity, "no_option_included", "Every option has been crossed out.")
	case errors.Is(err, service.ErrOptionIndex):
		writeError(w, http.StatusNotFound, "option_not_found", "No option at that index.")
	case errors.Is(err, service.ErrEmptyOption):
		writeError(w, http.StatusUnprocessableEntity, "empty_option", "The option has no places.")
	default:
		logger.Error("unhandled service error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

// parseLatLng parses "lat,lng" and checks coordinate ranges.
func parseLatLng(s string) (model.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return model.Coordinate{}, fmt.Errorf("%q is not in lat,lng form", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("invalid longitude %q", lngStr)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.Coordinate{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return model.Coordinate{Lat: lat, Lng: lng}, nil
}
