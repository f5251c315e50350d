package handler

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/shiva/wayfarer/internal/model"
)

// Path and query parameter holders for the reflector.
type directionsQuery struct {
	Origin      string `query:"origin" required:"true" description:"lat,lng"`
	Destination string `query:"destination" required:"true" description:"lat,lng"`
}

type cityPath struct {
	City string `path:"city"`
}

type sessionPath struct {
	ID string `path:"id"`
}

type sessionGenerateRequest struct {
	ID string `path:"id"`
	model.ItineraryConstraints
}

type sessionOptionRequest struct {
	ID    string `path:"id"`
	Index int    `path:"index"`
	SetIncludedRequest
}

type sessionAcceptRequest struct {
	ID string `path:"id"`
	AcceptRequest
}

type profilePath struct {
	ID string `path:"id"`
}

type routeQuery struct {
	ID     string `path:"id"`
	Origin string `query:"origin" description:"optional lat,lng of the starting point"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Wayfarer API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Trip planning: directions with cost estimates, itinerary generation and plans.")

	type op struct {
		method, path, summary, description string
		req                                interface{}
		resp                               map[int]interface{}
	}

	ops := []op{
		{http.MethodGet, "/health", "Health check", "Reports Postgres and Redis connectivity.", nil,
			map[int]interface{}{http.StatusOK: HealthResponse{}, http.StatusServiceUnavailable: HealthResponse{}}},
		{http.MethodGet, "/api/v1/directions", "Directions", "Driving and transit legs with cost estimates. fallback=true marks a synthetic driving estimate.", directionsQuery{},
			map[int]interface{}{http.StatusOK: model.DirectionsResult{}, http.StatusBadRequest: ErrorResponse{}}},
		{http.MethodGet, "/api/v1/cities/{city}/places", "City catalog", "Candidate places of a city.", cityPath{},
			map[int]interface{}{http.StatusOK: []model.PlaceCandidate{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodPost, "/api/v1/itineraries", "Generate itineraries", "Returns 1 to 3 ordered options drawn from the city catalog.", ItineraryRequest{},
			map[int]interface{}{http.StatusOK: model.ItineraryOptions{}, http.StatusBadRequest: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodPost, "/api/v1/planning/sessions", "Open planning session", "Starts in form, or viewing when the profile has an active plan.", OpenSessionRequest{},
			map[int]interface{}{http.StatusCreated: model.PlanningSession{}, http.StatusBadRequest: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodGet, "/api/v1/planning/sessions/{id}", "Get planning session", "", sessionPath{},
			map[int]interface{}{http.StatusOK: model.PlanningSession{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodDelete, "/api/v1/planning/sessions/{id}", "Close planning session", "", sessionPath{},
			map[int]interface{}{http.StatusNoContent: nil}},
		{http.MethodPost, "/api/v1/planning/sessions/{id}/generate", "Generate options", "Only from form. Ends in results with every option included.", sessionGenerateRequest{},
			map[int]interface{}{http.StatusOK: model.PlanningSession{}, http.StatusConflict: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodPut, "/api/v1/planning/sessions/{id}/options/{index}", "Cross out or restore an option", "", sessionOptionRequest{},
			map[int]interface{}{http.StatusOK: model.PlanningSession{}, http.StatusConflict: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodPost, "/api/v1/planning/sessions/{id}/accept", "Accept", "The first included option becomes the active plan.", sessionAcceptRequest{},
			map[int]interface{}{http.StatusOK: AcceptResponse{}, http.StatusConflict: ErrorResponse{}, http.StatusUnprocessableEntity: ErrorResponse{}}},
		{http.MethodPost, "/api/v1/planning/sessions/{id}/retry", "Try again", "Back to form with the constraints kept.", sessionPath{},
			map[int]interface{}{http.StatusOK: model.PlanningSession{}, http.StatusConflict: ErrorResponse{}}},
		{http.MethodGet, "/api/v1/profiles/{id}/plan", "Active plan", "", profilePath{},
			map[int]interface{}{http.StatusOK: model.Plan{}, http.StatusNotFound: ErrorResponse{}}},
		{http.MethodDelete, "/api/v1/profiles/{id}/plan", "End plan", "", profilePath{},
			map[int]interface{}{http.StatusNoContent: nil}},
		{http.MethodGet, "/api/v1/profiles/{id}/plan/route", "Route the active plan", "Per-leg directions and totals.", routeQuery{},
			map[int]interface{}{http.StatusOK: model.PlanRoute{}, http.StatusNotFound: ErrorResponse{}}},
	}

	for _, o := range ops {
		oc, err := r.NewOperationContext(o.method, o.path)
		if err != nil {
			continue
		}
		oc.SetSummary(o.summary)
		if o.description != "" {
			oc.SetDescription(o.description)
		}
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		for status, body := range o.resp {
			oc.AddRespStructure(body, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(data)
	}
}
