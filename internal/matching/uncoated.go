package matching

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/alloyplan/internal/models"
)

// Finish names carrying one of these markers describe pre-finishing stock.
// Such variants are commercially interchangeable.
var uncoatedMarkers = []string{
	"without paint",
	"without lacquer",
	"unpainted",
	"unlacquered",
	"no paint",
	"no lacquer",
}

// IsUncoated reports whether a finish name describes an uncoated variant
func IsUncoated(finishName string) bool {
	name := strings.ToLower(finishName)
	for _, marker := range uncoatedMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// UncoatedAggregate is the combined stock and sales figure of every
// uncoated variant of one specification.
type UncoatedAggregate struct {
	Spec                models.ProductSpecification `json:"spec"`
	ItemIDs             []int64                     `json:"itemIds"`
	FinishNames         []string                    `json:"finishNames"`
	TotalStock          int                         `json:"totalStock"`
	MonthlyAverageSales decimal.Decimal             `json:"monthlyAverageSales"`
}

// AggregateUncoated sums the uncoated variants of spec. sales holds whatever
// history has been fetched so far; items without history count as zero.
// The result is informational and never changes FindCandidates.
func (idx *SpecificationIndex) AggregateUncoated(spec models.ProductSpecification, sales map[int64]models.SalesHistory) (UncoatedAggregate, bool) {
	agg := UncoatedAggregate{
		Spec:                spec,
		MonthlyAverageSales: decimal.Zero,
	}
	for _, item := range idx.Lookup(spec) {
		if !IsUncoated(item.FinishName) {
			continue
		}
		agg.ItemIDs = append(agg.ItemIDs, item.ID)
		agg.FinishNames = append(agg.FinishNames, item.FinishName)
		agg.TotalStock += item.Stock()
		if h, ok := sales[item.ID]; ok {
			agg.MonthlyAverageSales = agg.MonthlyAverageSales.Add(h.MonthlyAverageSales)
		}
	}
	return agg, len(agg.ItemIDs) > 0
}
