package models

import "github.com/shopspring/decimal"

// MonthlySales is one point of an item's sales time series
type MonthlySales struct {
	Month string `json:"month"` // YYYY-MM
	Units int    `json:"units"`
}

// SalesHistory is the trailing sales record of one stock item
type SalesHistory struct {
	ItemID              int64           `json:"itemId"`
	TotalUnits          int             `json:"totalUnits"`
	MonthlyAverageSales decimal.Decimal `json:"monthlyAverageSales"`
	MonthlySalesData    []MonthlySales  `json:"monthlySalesData"`
	SalesTrend          string          `json:"salesTrend"`
}

// Sales trend labels
const (
	SalesTrendUp     = "up"
	SalesTrendDown   = "down"
	SalesTrendStable = "stable"
)

// EmptySalesHistory is the default record used when no history is available
func EmptySalesHistory(itemID int64) SalesHistory {
	return SalesHistory{
		ItemID:              itemID,
		MonthlyAverageSales: decimal.Zero,
		MonthlySalesData:    []MonthlySales{},
		SalesTrend:          SalesTrendStable,
	}
}

// HasSeries reports whether the record carries time-series data worth charting
func (h SalesHistory) HasSeries() bool {
	return len(h.MonthlySalesData) > 0
}
