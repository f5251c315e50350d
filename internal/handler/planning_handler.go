package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

// OpenSessionRequest is the JSON body for POST /api/v1/planning/sessions.
type OpenSessionRequest struct {
	ProfileID string `json:"profile_id"`
	City      string `json:"city"`
}

// SetIncludedRequest is the JSON body for PUT .../options/{index}.
type SetIncludedRequest struct {
	Included bool `json:"included"`
}

// AcceptRequest is the JSON body for POST .../accept.
type AcceptRequest struct {
	PendingEventID string `json:"pending_event_id,omitempty"`
}

// AcceptResponse pairs the finished session with the stored plan.
type AcceptResponse struct {
	Session *model.PlanningSession `json:"session"`
	Plan    *model.Plan            `json:"plan"`
}

// PlanningHandler exposes the planning modal state machine.
type PlanningHandler struct {
	planning *service.PlanningService
	logger   *slog.Logger
}

// NewPlanningHandler creates a new planning handler.
func NewPlanningHandler(planning *service.PlanningService, logger *slog.Logger) *PlanningHandler {
	return &PlanningHandler{planning: planning, logger: logger}
}

// Open handles POST /api/v1/planning/sessions
//
// Response codes:
//
//	201  Session created (state "form", or "viewing" with an active plan)
//	400  Missing profile_id or city
//	404  Unknown city
func (h *PlanningHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.ProfileID == "" || req.City == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "profile_id and city are required")
		return
	}

	session, err := h.planning.Open(r.Context(), req.ProfileID, req.City)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /api/v1/planning/sessions/{id}
func (h *PlanningHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.planning.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Generate handles POST /api/v1/planning/sessions/{id}/generate
//
// The body holds the constraints; every field is optional.
//
// Response codes:
//
//	200  Options generated (state "results")
//	404  Unknown session
//	409  Not in "form", or a generation is already running
func (h *PlanningHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var constraints model.ItineraryConstraints
	if err := decodeJSON(w, r, &constraints); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	session, err := h.planning.Generate(r.Context(), mux.Vars(r)["id"], constraints)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SetIncluded handles PUT /api/v1/planning/sessions/{id}/options/{index}
func (h *PlanningHandler) SetIncluded(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}
	var req SetIncludedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	session, err := h.planning.SetIncluded(r.Context(), vars["id"], index, req.Included)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Accept handles POST /api/v1/planning/sessions/{id}/accept
//
// Response codes:
//
//	200  First included option stored as the plan (state "viewing")
//	409  Not in "results"
//	422  Every option is crossed out
func (h *PlanningHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	session, plan, err := h.planning.Accept(r.Context(), mux.Vars(r)["id"], req.PendingEventID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AcceptResponse{Session: session, Plan: plan})
}

// TryAgain handles POST /api/v1/planning/sessions/{id}/retry
func (h *PlanningHandler) TryAgain(w http.ResponseWriter, r *http.Request) {
	session, err := h.planning.TryAgain(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Close handles DELETE /api/v1/planning/sessions/{id}
func (h *PlanningHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.planning.Close(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
