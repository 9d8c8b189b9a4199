package odoo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/alloyplan/internal/models"
)

// Odoo models used by the backend
const (
	productModel       = "product.product"
	salesHistoryModel  = "alloy.sales.history"
	purchaseOrderModel = "purchase.order"
	productionModel    = "mrp.production"
	workorderModel     = "mrp.workorder"
)

const catalogPageSize = 500

var catalogFields = []string{
	"display_name",
	"model_id", "size_id", "pcd_id", "holes_id", "width_id", "finish_id",
	"in_house_stock", "showroom_stock",
}

// Backend serves catalog, sales, purchasing and production data from Odoo
type Backend struct {
	client *Client
}

// NewBackend creates a backend over an Odoo connection
func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

// FetchCatalog reads every stockable wheel variant, page by page
func (b *Backend) FetchCatalog(ctx context.Context) ([]models.StockItem, error) {
	domain := []interface{}{
		[]interface{}{"model_id", "!=", false},
		[]interface{}{"active", "=", true},
	}

	var items []models.StockItem
	for offset := 0; ; offset += catalogPageSize {
		var page []models.StockItem
		if err := b.client.SearchRead(ctx, productModel, domain, catalogFields, catalogPageSize, offset, &page); err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}
		items = append(items, page...)
		if len(page) < catalogPageSize {
			break
		}
	}
	return items, nil
}

// salesReport is the payload of alloy.sales.history/get_item_history
type salesReport struct {
	TotalUnits          float64 `json:"total_units"`
	MonthlyAverageSales float64 `json:"monthly_average_sales"`
	MonthlySalesData    []struct {
		Month string  `json:"month"`
		Units float64 `json:"units"`
	} `json:"monthly_sales_data"`
	SalesTrend models.OdooString `json:"sales_trend"`
}

func (r salesReport) history(itemID int64) models.SalesHistory {
	h := models.EmptySalesHistory(itemID)
	h.TotalUnits = int(r.TotalUnits)
	h.MonthlyAverageSales = decimal.NewFromFloat(r.MonthlyAverageSales).Round(2)
	for _, m := range r.MonthlySalesData {
		h.MonthlySalesData = append(h.MonthlySalesData, models.MonthlySales{Month: m.Month, Units: int(m.Units)})
	}
	if trend := r.SalesTrend.String(); trend != "" {
		h.SalesTrend = trend
	}
	return h
}

// FetchSalesHistory reads the trailing twelve months of sales of one item
func (b *Backend) FetchSalesHistory(ctx context.Context, itemID int64) (models.SalesHistory, error) {
	var report salesReport
	kwargs := map[string]interface{}{"months": 12}
	if err := b.client.CallMethod(ctx, salesHistoryModel, "get_item_history", []interface{}{itemID}, kwargs, &report); err != nil {
		return models.SalesHistory{}, fmt.Errorf("fetch sales history for item %d: %w", itemID, err)
	}
	return report.history(itemID), nil
}

// SubmitPurchaseOrder creates one draft purchase order holding lines and
// returns its reference
func (b *Backend) SubmitPurchaseOrder(ctx context.Context, lines []models.PurchaseOrderLine, supplierID string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("purchase order has no lines")
	}
	partnerID, err := strconv.ParseInt(supplierID, 10, 64)
	if err != nil || partnerID <= 0 {
		return "", fmt.Errorf("invalid supplier id %q", supplierID)
	}

	values := purchaseOrderValues(lines, partnerID)
	id, err := b.client.Create(ctx, purchaseOrderModel, values)
	if err != nil {
		return "", fmt.Errorf("create purchase order: %w", err)
	}

	var created []struct {
		Name models.OdooString `json:"name"`
	}
	if err := b.client.Read(ctx, purchaseOrderModel, []int64{id}, []string{"name"}, &created); err == nil && len(created) == 1 && created[0].Name != "" {
		return created[0].Name.String(), nil
	}
	return strconv.FormatInt(id, 10), nil
}

func purchaseOrderValues(lines []models.PurchaseOrderLine, partnerID int64) map[string]interface{} {
	priority := "0"
	orderLines := make([]interface{}, 0, len(lines))
	for _, l := range lines {
		if l.Urgent {
			priority = "1"
		}
		orderLines = append(orderLines, []interface{}{0, 0, map[string]interface{}{
			"product_id":      l.SourceItemID,
			"product_qty":     l.Quantity,
			"name":            fmt.Sprintf("Convert to %s finish (plan %s)", l.TargetFinish, l.PlanID),
			"x_target_finish": l.TargetFinish,
		}})
	}
	return map[string]interface{}{
		"partner_id": partnerID,
		"priority":   priority,
		"order_line": orderLines,
	}
}

// FetchProductionPlans reads manufacturing orders
func (b *Backend) FetchProductionPlans(ctx context.Context, filters models.ProductionFilters) ([]models.ProductionPlan, error) {
	var plans []models.ProductionPlan
	fields := []string{"name", "product_qty", "priority", "state"}
	if err := b.client.SearchRead(ctx, productionModel, productionDomain(filters, "id"), fields, 0, 0, &plans); err != nil {
		return nil, fmt.Errorf("fetch production plans: %w", err)
	}
	return plans, nil
}

// FetchJobCardAllocations reads the work orders of the selected plans
func (b *Backend) FetchJobCardAllocations(ctx context.Context, filters models.ProductionFilters) ([]models.JobCardAllocation, error) {
	var allocations []models.JobCardAllocation
	fields := []string{"production_id", "qty_production", "qty_produced", "state"}
	domain := productionDomain(models.ProductionFilters{PlanIDs: filters.PlanIDs}, "production_id")
	if err := b.client.SearchRead(ctx, workorderModel, domain, fields, 0, 0, &allocations); err != nil {
		return nil, fmt.Errorf("fetch job card allocations: %w", err)
	}
	return allocations, nil
}

// productionDomain turns filters into an Odoo search domain; planField is
// the field holding the manufacturing order id
func productionDomain(filters models.ProductionFilters, planField string) []interface{} {
	domain := []interface{}{}
	if filters.Status != "" {
		domain = append(domain, []interface{}{"state", "=", filters.Status})
	}
	if filters.UrgentOnly {
		domain = append(domain, []interface{}{"priority", "=", "1"})
	}
	if len(filters.PlanIDs) > 0 {
		ids := make([]interface{}, len(filters.PlanIDs))
		for i, id := range filters.PlanIDs {
			ids[i] = id
		}
		domain = append(domain, []interface{}{planField, "in", ids})
	}
	return domain
}
