package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Directions  *DirectionsHandler
	Itineraries *ItineraryHandler
	Planning    *PlanningHandler
	Plans       *PlanHandler
	Health      http.Handler
}

// NewRouter registers every route of the API.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()

	router.Handle("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/openapi.json", handleOpenAPI()).Methods(http.MethodGet)
	router.PathPrefix("/docs").Handler(v5emb.New("Wayfarer API", "/openapi.json", "/docs"))

	api := router.PathPrefix("/api/v1").Subrouter()

	// Directions & catalog
	api.HandleFunc("/directions", h.Directions.GetDirections).Methods(http.MethodGet)
	api.HandleFunc("/cities/{city}/places", h.Itineraries.ListPlaces).Methods(http.MethodGet)
	api.HandleFunc("/itineraries", h.Itineraries.CreateItinerary).Methods(http.MethodPost)

	// Planning sessions
	api.HandleFunc("/planning/sessions", h.Planning.Open).Methods(http.MethodPost)
	api.HandleFunc("/planning/sessions/{id}", h.Planning.Get).Methods(http.MethodGet)
	api.HandleFunc("/planning/sessions/{id}", h.Planning.Close).Methods(http.MethodDelete)
	api.HandleFunc("/planning/sessions/{id}/generate", h.Planning.Generate).Methods(http.MethodPost)
	api.HandleFunc("/planning/sessions/{id}/options/{index}", h.Planning.SetIncluded).Methods(http.MethodPut)
	api.HandleFunc("/planning/sessions/{id}/accept", h.Planning.Accept).Methods(http.MethodPost)
	api.HandleFunc("/planning/sessions/{id}/retry", h.Planning.TryAgain).Methods(http.MethodPost)

	// Active plan
	api.HandleFunc("/profiles/{id}/plan", h.Plans.Get).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}/plan", h.Plans.End).Methods(http.MethodDelete)
	api.HandleFunc("/profiles/{id}/plan/route", h.Plans.Route).Methods(http.MethodGet)

	return router
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports "ok" when every check passes and 503 "degraded"
// otherwise.
func HealthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string, len(checks)),
		}
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Services[name] = "unhealthy: " + err.Error()
			} else {
				resp.Services[name] = "healthy"
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
