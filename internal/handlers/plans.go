package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/alloyplan/internal/middleware"
	"github.com/xelth-com/alloyplan/internal/models"
)

func planID(w http.ResponseWriter, req *http.Request) (models.PlanID, bool) {
	id, err := models.ParsePlanID(mux.Vars(req)["planId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return models.PlanID{}, false
	}
	return id, true
}

// getPlans returns the planner state
func (r *Router) getPlans(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.planning.Plans())
}

// addPlan creates a plan for a catalog item
func (r *Router) addPlan(w http.ResponseWriter, req *http.Request) {
	var body struct {
		SourceItemID int64  `json:"sourceItemId"`
		TargetFinish string `json:"targetFinish"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	id, err := r.planning.AddPlan(req.Context(), body.SourceItemID, body.TargetFinish)
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"planId": id,
		"state":  r.planning.Plans(),
	})
}

// updatePlan changes one field of a plan
func (r *Router) updatePlan(w http.ResponseWriter, req *http.Request) {
	id, ok := planID(w, req)
	if !ok {
		return
	}

	var body struct {
		Field string      `json:"field"`
		Value interface{} `json:"value"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	plan, err := r.planning.UpdatePlan(req.Context(), id, body.Field, body.Value)
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// removePlan deletes one plan
func (r *Router) removePlan(w http.ResponseWriter, req *http.Request) {
	id, ok := planID(w, req)
	if !ok {
		return
	}
	if err := r.planning.RemovePlan(req.Context(), id); err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearPlans removes every plan
func (r *Router) clearPlans(w http.ResponseWriter, req *http.Request) {
	r.planning.ClearPlans(req.Context())
	w.WriteHeader(http.StatusNoContent)
}

// addAllPlans adds a plan for every eligible catalog item
func (r *Router) addAllPlans(w http.ResponseWriter, req *http.Request) {
	n := r.planning.AddAll(req.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"added": n,
		"state": r.planning.Plans(),
	})
}

// autoFillPlans picks the first available finish for open plans
func (r *Router) autoFillPlans(w http.ResponseWriter, req *http.Request) {
	n := r.planning.AutoFill(req.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filled": n,
		"state":  r.planning.Plans(),
	})
}

// planCandidates lists the finishes a plan may target
func (r *Router) planCandidates(w http.ResponseWriter, req *http.Request) {
	id, ok := planID(w, req)
	if !ok {
		return
	}
	candidates, err := r.planning.PlanCandidates(id)
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// setFilters replaces the catalog filters of the session
func (r *Router) setFilters(w http.ResponseWriter, req *http.Request) {
	var f models.Filters
	if err := json.NewDecoder(req.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	r.planning.SetFilters(req.Context(), f)
	respondJSON(w, http.StatusOK, f)
}

// submitPlans places the purchase orders of the selection
func (r *Router) submitPlans(w http.ResponseWriter, req *http.Request) {
	var body struct {
		SupplierID string `json:"supplierId"`
	}
	// An empty body uses the configured supplier
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	result, err := r.planning.Submit(req.Context(), body.SupplierID)
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	if user := middleware.Subject(req.Context()); user != "" {
		log.Printf("📦 Planner: submission by %s: %s", user, result.Outcome)
	}
	respondJSON(w, http.StatusOK, result)
}

// discardFailed drops the plans left over from a partial submission
func (r *Router) discardFailed(w http.ResponseWriter, req *http.Request) {
	n, err := r.planning.DiscardFailed(req.Context())
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"discarded": n,
		"state":     r.planning.Plans(),
	})
}
