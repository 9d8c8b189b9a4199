package layout

import (
	"github.com/xelth-com/alloyplan/internal/matching"
	"github.com/xelth-com/alloyplan/internal/models"
)

// Sizer holds the fixed pixel metrics of the virtualized catalog list
type Sizer struct {
	CollapsedHeight    int `json:"collapsedHeight"`
	ExpandedBaseHeight int `json:"expandedBaseHeight"`
	RichCardHeight     int `json:"richCardHeight"`    // card with sales trend chart
	CompactCardHeight  int `json:"compactCardHeight"` // metrics only
	CardSpacing        int `json:"cardSpacing"`
}

// DefaultSizer returns the metrics used by the console
func DefaultSizer() Sizer {
	return Sizer{
		CollapsedHeight:    72,
		ExpandedBaseHeight: 128,
		RichCardHeight:     236,
		CompactCardHeight:  112,
		CardSpacing:        12,
	}
}

// Entries tells which items already have a sales time series to chart.
// A record that arrived empty, such as a failed fetch, does not count.
type Entries interface {
	HasSeries(itemID int64) bool
}

// EntrySet is a static Entries
type EntrySet map[int64]bool

// HasSeries implements Entries
func (s EntrySet) HasSeries(itemID int64) bool {
	return s[itemID]
}

// ItemHeight returns the pixel height of one row. It only reads its inputs;
// cards stay compact until a sales series for the item arrives.
// The record is keyed by the source item and shared by all its cards.
func (s Sizer) ItemHeight(item models.StockItem, expanded bool, candidates []matching.Candidate, entries Entries) int {
	if !expanded {
		return s.CollapsedHeight
	}
	card := s.CompactCardHeight
	if entries != nil && entries.HasSeries(item.ID) {
		card = s.RichCardHeight
	}
	return s.ExpandedBaseHeight + len(candidates)*(card+s.CardSpacing)
}

// Row is one list row as the virtualization layer sees it
type Row struct {
	Item       models.StockItem
	Expanded   bool
	Candidates []matching.Candidate
}

// RowHeights sizes a whole list
func (s Sizer) RowHeights(rows []Row, entries Entries) []int {
	heights := make([]int, len(rows))
	for i, r := range rows {
		heights[i] = s.ItemHeight(r.Item, r.Expanded, r.Candidates, entries)
	}
	return heights
}
