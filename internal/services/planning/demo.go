package planning

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/alloyplan/internal/models"
)

type demoModel struct {
	id     int64
	name   string
	size   int64
	pcd    int64
	holes  int64
	width  int64
	finish []string
}

var demoFinishes = map[string]int64{
	"Silver":                 1,
	"Hyper Silver":           2,
	"Gloss Black":            3,
	"Matt Black":             4,
	"Anthracite":             5,
	"Bronze":                 6,
	"Polished Lip":           7,
	"Machined without paint": 8,
	"Raw without lacquer":    9,
}

var demoModels = []demoModel{
	{1, "Spider", 17, 1, 5, 75, []string{"Silver", "Gloss Black", "Anthracite", "Machined without paint"}},
	{2, "Spider", 18, 1, 5, 80, []string{"Silver", "Matt Black", "Raw without lacquer", "Machined without paint"}},
	{3, "Vector", 17, 2, 4, 70, []string{"Hyper Silver", "Gloss Black", "Bronze"}},
	{4, "Vector", 19, 2, 5, 85, []string{"Hyper Silver", "Polished Lip"}},
	{5, "Falcon", 16, 3, 4, 65, []string{"Silver"}},
}

// DemoCatalog returns a small wheel catalog with several finish families
func DemoCatalog() []models.StockItem {
	var items []models.StockItem
	id := int64(1000)
	for _, m := range demoModels {
		for i, finish := range m.finish {
			id++
			items = append(items, models.StockItem{
				ProductSpecification: models.ProductSpecification{
					ModelID: m.id,
					SizeID:  m.size,
					PcdID:   m.pcd,
					HolesID: m.holes,
					WidthID: m.width,
				},
				ID:            id,
				FinishID:      demoFinishes[finish],
				FinishName:    finish,
				DisplayName:   fmt.Sprintf("%s R%d %.1fJ %s", m.name, m.size, float64(m.width)/10, finish),
				InHouseStock:  int((id * 7) % 13),
				ShowroomStock: i % 2,
			})
		}
	}
	return items
}

// DemoBackend serves DemoCatalog plus sales and production data
func DemoBackend() *MemoryBackend {
	catalog := DemoCatalog()

	sales := make(map[int64]models.SalesHistory)
	for i, item := range catalog {
		if i%3 == 2 {
			continue // no history recorded
		}
		h := models.EmptySalesHistory(item.ID)
		for m := 1; m <= 6; m++ {
			units := int((item.ID+int64(m))%9) + 1
			h.MonthlySalesData = append(h.MonthlySalesData, models.MonthlySales{Month: fmt.Sprintf("2026-%02d", m+3), Units: units})
			h.TotalUnits += units
		}
		h.MonthlyAverageSales = decimal.NewFromInt(int64(h.TotalUnits)).Div(decimal.NewFromInt(6)).Round(2)
		first, last := h.MonthlySalesData[0].Units, h.MonthlySalesData[5].Units
		switch {
		case last > first:
			h.SalesTrend = models.SalesTrendUp
		case last < first:
			h.SalesTrend = models.SalesTrendDown
		}
		sales[item.ID] = h
	}

	plans := []models.ProductionPlan{
		{ID: 1, RequestedQuantity: 40, Status: "confirmed", Reference: "MO/00001"},
		{ID: 2, RequestedQuantity: 24, Urgent: true, Status: "confirmed", Reference: "MO/00002"},
		{ID: 3, RequestedQuantity: 60, Status: "progress", Reference: "MO/00003"},
		{ID: 4, RequestedQuantity: 16, Status: "progress", Reference: "MO/00004"},
		{ID: 5, RequestedQuantity: 32, Status: "to_close", Reference: "MO/00005"},
	}
	allocations := []models.JobCardAllocation{
		{ID: 1, ProductionPlanID: 1, AllocatedQuantity: 20, CompletedQuantity: 8, Status: "progress"},
		{ID: 2, ProductionPlanID: 3, AllocatedQuantity: 30, CompletedQuantity: 30, Status: "done"},
		{ID: 3, ProductionPlanID: 3, AllocatedQuantity: 25, CompletedQuantity: 10, Status: "progress"},
		{ID: 4, ProductionPlanID: 4, AllocatedQuantity: 20, CompletedQuantity: 4, Status: "progress"},
		{ID: 5, ProductionPlanID: 5, AllocatedQuantity: 32, CompletedQuantity: 32, Status: "done"},
	}

	return NewMemoryBackend(catalog, sales, plans, allocations)
}
