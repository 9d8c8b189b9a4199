package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/xelth-com/alloyplan/internal/buildinfo"
	"github.com/xelth-com/alloyplan/internal/models"
	"github.com/xelth-com/alloyplan/internal/services/planning"
)

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns build and runtime information
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	status := map[string]interface{}{
		"status":       "running",
		"buildTime":    buildinfo.BuildTime,
		"commitTime":   buildinfo.CommitTime,
		"commitHash":   buildinfo.CommitHash,
		"startTime":    buildinfo.StartTime,
		"catalogItems": r.planning.CatalogSize(),
		"plans":        len(r.planning.Plans().Plans),
	}
	if r.catalog != nil {
		status["catalog"] = r.catalog.Status()
	}
	if r.hub != nil {
		status["consoles"] = r.hub.Count()
	}
	respondJSON(w, http.StatusOK, status)
}

// productionDashboard returns fleet-wide allocation metrics
func (r *Router) productionDashboard(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	urgentOnly, _ := strconv.ParseBool(q.Get("urgentOnly"))
	filters := models.ProductionFilters{
		Status:     q.Get("status"),
		UrgentOnly: urgentOnly,
	}

	metrics, err := r.planning.Dashboard(req.Context(), filters, limit)
	if err != nil {
		respondServiceError(w, err, http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// productionTracking returns the allocation figures of one production plan
func (r *Router) productionTracking(w http.ResponseWriter, req *http.Request) {
	tracking, err := r.planning.Tracking(req.Context(), itemID(req))
	if err != nil {
		respondServiceError(w, err, http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, tracking)
}

// layoutHeights sizes list rows for the virtualized catalog
func (r *Router) layoutHeights(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Rows []planning.RowRequest `json:"rows"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	heights, err := r.planning.RowHeights(body.Rows)
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"heights": heights,
		"sizer":   r.planning.Sizer(),
	})
}
