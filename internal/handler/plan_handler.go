package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

// PlanHandler exposes a profile's active plan and its route.
type PlanHandler struct {
	plans  *service.PlanService
	routes *service.RouteService
	logger *slog.Logger
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(plans *service.PlanService, routes *service.RouteService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, routes: routes, logger: logger}
}

// Get handles GET /api/v1/profiles/{id}/plan
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.plans.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// End handles DELETE /api/v1/profiles/{id}/plan
func (h *PlanHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.plans.End(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Route handles GET /api/v1/profiles/{id}/plan/route[?origin=lat,lng]
//
// Resolves directions for every leg of the active plan. "estimated": true
// means at least one driving leg is a synthetic estimate.
func (h *PlanHandler) Route(w http.ResponseWriter, r *http.Request) {
	var origin *model.Coordinate
	if raw := r.URL.Query().Get("origin"); raw != "" {
		c, err := parseLatLng(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_origin", err.Error())
			return
		}
		origin = &c
	}

	route, err := h.routes.RoutePlan(r.Context(), mux.Vars(r)["id"], origin)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}
