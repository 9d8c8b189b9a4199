package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PlanID identifies one conversion plan. A source item can have several
// plans at once, told apart by the store-issued sequence number.
type PlanID struct {
	SourceID int64
	Sequence int
}

// String renders the id as "<sourceId>-<sequence>"
func (id PlanID) String() string {
	return fmt.Sprintf("%d-%d", id.SourceID, id.Sequence)
}

// MarshalText lets PlanID be used as a JSON object key
func (id PlanID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the "<sourceId>-<sequence>" form
func (id *PlanID) UnmarshalText(text []byte) error {
	parsed, err := ParsePlanID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParsePlanID parses the textual form produced by PlanID.String
func ParsePlanID(s string) (PlanID, error) {
	sep := strings.LastIndex(s, "-")
	if sep <= 0 || sep == len(s)-1 {
		return PlanID{}, fmt.Errorf("invalid plan id %q", s)
	}
	source, err := strconv.ParseInt(s[:sep], 10, 64)
	if err != nil {
		return PlanID{}, fmt.Errorf("invalid plan id %q: %w", s, err)
	}
	seq, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return PlanID{}, fmt.Errorf("invalid plan id %q: %w", s, err)
	}
	return PlanID{SourceID: source, Sequence: seq}, nil
}

// ConversionPlan is the intent to convert stock of one finish into another
type ConversionPlan struct {
	PlanID       PlanID    `json:"planId"`
	SourceItem   StockItem `json:"sourceItem"`
	TargetFinish *string   `json:"targetFinish"`
	Quantity     int       `json:"quantity"`
	Urgent       bool      `json:"urgent"`
}

// HasTarget reports whether a target finish has been chosen
func (p ConversionPlan) HasTarget() bool {
	return p.TargetFinish != nil && *p.TargetFinish != ""
}

// Target returns the chosen finish or "" when none is set
func (p ConversionPlan) Target() string {
	if p.TargetFinish == nil {
		return ""
	}
	return *p.TargetFinish
}

// Filters are the catalog filters of the planning view
type Filters struct {
	Search        string `json:"search"`
	Size          string `json:"size"`
	Pcd           string `json:"pcd"`
	Finish        string `json:"finish"`
	OnlyWithStock bool   `json:"onlyWithStock"`
}

// SelectionSnapshot is the persisted planner state
type SelectionSnapshot struct {
	SelectedRows    []PlanID                  `json:"selectedRows"`
	ConversionPlans map[PlanID]ConversionPlan `json:"conversionPlans"`
	PlanCounter     int                       `json:"planCounter"`
	Filters         Filters                   `json:"filters"`
	Timestamp       int64                     `json:"timestamp"` // epoch ms
}

// SavedAt returns the snapshot timestamp as a time.Time
func (s SelectionSnapshot) SavedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// PurchaseOrderLine is one line of a vendor purchase order produced from a plan
type PurchaseOrderLine struct {
	PlanID       PlanID               `json:"planId"`
	SourceItemID int64                `json:"sourceItemId"`
	SourceSpec   ProductSpecification `json:"sourceSpec"`
	TargetFinish string               `json:"targetFinish"`
	Quantity     int                  `json:"quantity"`
	Urgent       bool                 `json:"urgent"`
}
