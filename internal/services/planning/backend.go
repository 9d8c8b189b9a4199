package planning

import (
	"context"
	"fmt"
	"sync"

	"github.com/xelth-com/alloyplan/internal/models"
)

// Backend is the ERP as the planning console sees it
type Backend interface {
	FetchCatalog(ctx context.Context) ([]models.StockItem, error)
	FetchSalesHistory(ctx context.Context, itemID int64) (models.SalesHistory, error)
	SubmitPurchaseOrder(ctx context.Context, lines []models.PurchaseOrderLine, supplierID string) (string, error)
	FetchProductionPlans(ctx context.Context, filters models.ProductionFilters) ([]models.ProductionPlan, error)
	FetchJobCardAllocations(ctx context.Context, filters models.ProductionFilters) ([]models.JobCardAllocation, error)
}

// SubmittedOrder is a purchase order accepted by a MemoryBackend
type SubmittedOrder struct {
	OrderID    string
	SupplierID string
	Lines      []models.PurchaseOrderLine
}

// MemoryBackend is an in-process Backend for tests and demo mode
type MemoryBackend struct {
	mu          sync.Mutex
	catalog     []models.StockItem
	sales       map[int64]models.SalesHistory
	plans       []models.ProductionPlan
	allocations []models.JobCardAllocation
	orders      []SubmittedOrder

	// errors returned for a source item id (submission) or item id (sales)
	SubmitErrors map[int64]error
	SalesErrors  map[int64]error
	CatalogError error
}

// NewMemoryBackend creates a backend serving the given data
func NewMemoryBackend(catalog []models.StockItem, sales map[int64]models.SalesHistory, plans []models.ProductionPlan, allocations []models.JobCardAllocation) *MemoryBackend {
	if sales == nil {
		sales = make(map[int64]models.SalesHistory)
	}
	return &MemoryBackend{
		catalog:      catalog,
		sales:        sales,
		plans:        plans,
		allocations:  allocations,
		SubmitErrors: make(map[int64]error),
		SalesErrors:  make(map[int64]error),
	}
}

// SetCatalog replaces the served catalog
func (b *MemoryBackend) SetCatalog(items []models.StockItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalog = items
}

// FetchCatalog implements Backend
func (b *MemoryBackend) FetchCatalog(ctx context.Context) ([]models.StockItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CatalogError != nil {
		return nil, b.CatalogError
	}
	return append([]models.StockItem(nil), b.catalog...), nil
}

// FetchSalesHistory implements Backend
func (b *MemoryBackend) FetchSalesHistory(ctx context.Context, itemID int64) (models.SalesHistory, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.SalesErrors[itemID]; err != nil {
		return models.SalesHistory{}, err
	}
	h, ok := b.sales[itemID]
	if !ok {
		return models.EmptySalesHistory(itemID), nil
	}
	return h, nil
}

// SubmitPurchaseOrder implements Backend
func (b *MemoryBackend) SubmitPurchaseOrder(ctx context.Context, lines []models.PurchaseOrderLine, supplierID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range lines {
		if err := b.SubmitErrors[l.SourceItemID]; err != nil {
			return "", err
		}
	}
	id := fmt.Sprintf("PO%05d", len(b.orders)+1)
	b.orders = append(b.orders, SubmittedOrder{
		OrderID:    id,
		SupplierID: supplierID,
		Lines:      append([]models.PurchaseOrderLine(nil), lines...),
	})
	return id, nil
}

// Orders returns the accepted purchase orders
func (b *MemoryBackend) Orders() []SubmittedOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SubmittedOrder(nil), b.orders...)
}

// FetchProductionPlans implements Backend
func (b *MemoryBackend) FetchProductionPlans(ctx context.Context, filters models.ProductionFilters) ([]models.ProductionPlan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.ProductionPlan
	for _, p := range b.plans {
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if filters.UrgentOnly && !p.Urgent {
			continue
		}
		if len(filters.PlanIDs) > 0 && !containsID(filters.PlanIDs, p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// FetchJobCardAllocations implements Backend
func (b *MemoryBackend) FetchJobCardAllocations(ctx context.Context, filters models.ProductionFilters) ([]models.JobCardAllocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.JobCardAllocation
	for _, a := range b.allocations {
		if len(filters.PlanIDs) > 0 && !containsID(filters.PlanIDs, a.ProductionPlanID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
