package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/xelth-com/alloyplan/internal/models"
)

// filtersFromQuery reads catalog filters from the query string
func filtersFromQuery(req *http.Request) models.Filters {
	q := req.URL.Query()
	onlyWithStock, _ := strconv.ParseBool(q.Get("onlyWithStock"))
	return models.Filters{
		Search:        q.Get("search"),
		Size:          q.Get("size"),
		Pcd:           q.Get("pcd"),
		Finish:        q.Get("finish"),
		OnlyWithStock: onlyWithStock,
	}
}

func itemID(req *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	return id
}

// listCatalog returns the filtered catalog
func (r *Router) listCatalog(w http.ResponseWriter, req *http.Request) {
	rows := r.planning.Catalog(filtersFromQuery(req))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": rows,
		"count": len(rows),
		"total": r.planning.CatalogSize(),
	})
}

// refreshCatalog pulls the catalog from the ERP now
func (r *Router) refreshCatalog(w http.ResponseWriter, req *http.Request) {
	var (
		n   int
		err error
	)
	if r.catalog != nil {
		n, err = r.catalog.Refresh(req.Context())
	} else {
		n, err = r.planning.RefreshCatalog(req.Context())
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"items": n})
}

// itemCandidates lists the alternate finishes of one item
func (r *Router) itemCandidates(w http.ResponseWriter, req *http.Request) {
	candidates, err := r.planning.Candidates(itemID(req))
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// itemUncoated returns the uncoated aggregate of an item's specification
func (r *Router) itemUncoated(w http.ResponseWriter, req *http.Request) {
	agg, ok, err := r.planning.Uncoated(itemID(req))
	if err != nil {
		respondServiceError(w, err, http.StatusInternalServerError)
		return
	}
	if !ok {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	respondJSON(w, http.StatusOK, agg)
}

// itemSales returns the sales history of an item. A failed fetch yields
// an empty record, never an error.
func (r *Router) itemSales(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.planning.SalesHistory(req.Context(), itemID(req)))
}
