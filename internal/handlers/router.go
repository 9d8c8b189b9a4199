package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/alloyplan/internal/middleware"
	"github.com/xelth-com/alloyplan/internal/planner"
	"github.com/xelth-com/alloyplan/internal/services/catalog"
	"github.com/xelth-com/alloyplan/internal/services/planning"
	"github.com/xelth-com/alloyplan/internal/websocket"
)

// Options configures the HTTP surface
type Options struct {
	// JWTSecret protects /api when set
	JWTSecret string
	// StaticDir serves the console frontend when set
	StaticDir string
}

// Router wraps the mux router and the console services
type Router struct {
	*mux.Router
	planning *planning.Service
	catalog  *catalog.Service // nil: refresh straight from the backend
	hub      *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(svc *planning.Service, cat *catalog.Service, hub *websocket.Hub, opts Options) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		planning: svc,
		catalog:  cat,
		hub:      hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Console push channel
	if hub != nil {
		r.HandleFunc("/ws", r.serveWs)
	}

	api := r.PathPrefix("/api").Subrouter()
	if opts.JWTSecret != "" {
		api.Use(middleware.Auth(opts.JWTSecret))
	}
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Catalog
	api.HandleFunc("/catalog", r.listCatalog).Methods("GET")
	api.HandleFunc("/catalog/refresh", r.refreshCatalog).Methods("POST")
	api.HandleFunc("/catalog/{id:[0-9]+}/candidates", r.itemCandidates).Methods("GET")
	api.HandleFunc("/catalog/{id:[0-9]+}/uncoated", r.itemUncoated).Methods("GET")
	api.HandleFunc("/catalog/{id:[0-9]+}/sales", r.itemSales).Methods("GET")

	// Conversion plans
	plans := api.PathPrefix("/plans").Subrouter()
	plans.HandleFunc("", r.getPlans).Methods("GET")
	plans.HandleFunc("", r.addPlan).Methods("POST")
	plans.HandleFunc("", r.clearPlans).Methods("DELETE")
	plans.HandleFunc("/add-all", r.addAllPlans).Methods("POST")
	plans.HandleFunc("/autofill", r.autoFillPlans).Methods("POST")
	plans.HandleFunc("/filters", r.setFilters).Methods("PUT")
	plans.HandleFunc("/submit", r.submitPlans).Methods("POST")
	plans.HandleFunc("/discard-failed", r.discardFailed).Methods("POST")
	plans.HandleFunc("/{planId}/candidates", r.planCandidates).Methods("GET")
	plans.HandleFunc("/{planId}", r.updatePlan).Methods("PATCH")
	plans.HandleFunc("/{planId}", r.removePlan).Methods("DELETE")

	// Production allocation
	api.HandleFunc("/production/dashboard", r.productionDashboard).Methods("GET")
	api.HandleFunc("/production/plans/{id:[0-9]+}/tracking", r.productionTracking).Methods("GET")

	// List layout
	api.HandleFunc("/layout/heights", r.layoutHeights).Methods("POST")

	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}

func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	websocket.ServeWs(r.hub, w, req)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps service errors to status codes. Errors the
// service does not classify get fallback.
func respondServiceError(w http.ResponseWriter, err error, fallback int) {
	respondError(w, statusFor(err, fallback), err.Error())
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, planning.ErrItemNotFound),
		errors.Is(err, planning.ErrProductionPlanNotFound),
		errors.Is(err, planner.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, planning.ErrNoCandidates),
		errors.Is(err, planning.ErrNothingToDiscard),
		errors.Is(err, planner.ErrDuplicateFinish),
		errors.Is(err, planner.ErrFinishUnavailable):
		return http.StatusConflict
	case errors.Is(err, planning.ErrNoSupplier),
		errors.Is(err, planner.ErrUnknownField),
		errors.Is(err, planner.ErrInvalidValue):
		return http.StatusBadRequest
	default:
		return fallback
	}
}
