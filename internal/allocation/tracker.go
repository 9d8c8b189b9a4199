package allocation

import (
	"math"
	"sort"

	"github.com/xelth-com/alloyplan/internal/models"
)

// State classifies how much of a production plan is committed to job cards
type State string

const (
	NotStarted         State = "not_started"
	PartiallyAllocated State = "partially_allocated"
	FullyAllocated     State = "fully_allocated"
	OverAllocated      State = "over_allocated"
)

// States lists every state in display order
var States = []State{NotStarted, PartiallyAllocated, FullyAllocated, OverAllocated}

// criticalRemainingRatio: plans with less than this share of their requested
// quantity left to allocate are critical
const criticalRemainingRatio = 0.20

// QuantityTracking is derived per production plan, never stored
type QuantityTracking struct {
	ProductionPlanID     int64 `json:"productionPlanId"`
	RequestedQuantity    int   `json:"requestedQuantity"`
	TotalJobCardQuantity int   `json:"totalJobCardQuantity"`
	CompletedQuantity    int   `json:"completedQuantity"`
	RemainingQuantity    int   `json:"remainingQuantity"` // negative when over-allocated
	State                State `json:"state"`
	Urgent               bool  `json:"urgent"`
	// Over-allocation is allowed upstream; it is only flagged for review here
	NeedsReview bool `json:"needsReview"`
}

// Classify returns the allocation state of a plan
func Classify(requested, allocated int) State {
	switch {
	case allocated == 0:
		return NotStarted
	case allocated < requested:
		return PartiallyAllocated
	case allocated == requested:
		return FullyAllocated
	default:
		return OverAllocated
	}
}

// Track derives the tracking figures of one plan. Allocations that belong to
// other plans are ignored.
func Track(plan models.ProductionPlan, allocations []models.JobCardAllocation) QuantityTracking {
	var allocated, completed int
	for _, a := range allocations {
		if a.ProductionPlanID != plan.ID {
			continue
		}
		allocated += a.AllocatedQuantity
		completed += a.CompletedQuantity
	}
	return tracking(plan, allocated, completed)
}

func tracking(plan models.ProductionPlan, allocated, completed int) QuantityTracking {
	state := Classify(plan.RequestedQuantity, allocated)
	return QuantityTracking{
		ProductionPlanID:     plan.ID,
		RequestedQuantity:    plan.RequestedQuantity,
		TotalJobCardQuantity: allocated,
		CompletedQuantity:    completed,
		RemainingQuantity:    plan.RequestedQuantity - allocated,
		State:                state,
		Urgent:               plan.Urgent,
		NeedsReview:          state == OverAllocated,
	}
}

// TrackAll derives tracking figures for every plan, in plan order
func TrackAll(plans []models.ProductionPlan, allocations []models.JobCardAllocation) []QuantityTracking {
	type sums struct{ allocated, completed int }
	byPlan := make(map[int64]sums, len(plans))
	for _, a := range allocations {
		s := byPlan[a.ProductionPlanID]
		s.allocated += a.AllocatedQuantity
		s.completed += a.CompletedQuantity
		byPlan[a.ProductionPlanID] = s
	}

	out := make([]QuantityTracking, len(plans))
	for i, p := range plans {
		s := byPlan[p.ID]
		out[i] = tracking(p, s.allocated, s.completed)
	}
	return out
}

// IsCritical: urgent plans, and plans with less than 20% of the requested
// quantity left to allocate
func (t QuantityTracking) IsCritical() bool {
	if t.Urgent {
		return true
	}
	if t.RequestedQuantity <= 0 {
		return false
	}
	return t.remainingRatio() < criticalRemainingRatio
}

func (t QuantityTracking) remainingRatio() float64 {
	if t.RequestedQuantity <= 0 {
		return math.Inf(1)
	}
	return float64(t.RemainingQuantity) / float64(t.RequestedQuantity)
}

// DashboardMetrics is the fleet-wide view over all production plans
type DashboardMetrics struct {
	TotalPlans     int                `json:"totalPlans"`
	TotalRequested int                `json:"totalRequested"`
	TotalAllocated int                `json:"totalAllocated"`
	TotalCompleted int                `json:"totalCompleted"`
	AllocationRate int                `json:"allocationRate"` // percent
	CompletionRate int                `json:"completionRate"` // percent
	Counts         map[State]int      `json:"counts"`
	CriticalCount  int                `json:"criticalCount"`
	CriticalPlans  []QuantityTracking `json:"criticalPlans"`
	NeedsReview    int                `json:"needsReview"`
}

// ComputeDashboardMetrics aggregates all plans. criticalLimit caps the
// critical plan list (most pressing first); zero or less means no cap.
func ComputeDashboardMetrics(plans []models.ProductionPlan, allocations []models.JobCardAllocation, criticalLimit int) DashboardMetrics {
	m := DashboardMetrics{
		TotalPlans:    len(plans),
		Counts:        make(map[State]int, len(States)),
		CriticalPlans: []QuantityTracking{},
	}
	for _, s := range States {
		m.Counts[s] = 0
	}

	var critical []QuantityTracking
	for _, t := range TrackAll(plans, allocations) {
		m.TotalRequested += t.RequestedQuantity
		m.TotalAllocated += t.TotalJobCardQuantity
		m.TotalCompleted += t.CompletedQuantity
		m.Counts[t.State]++
		if t.NeedsReview {
			m.NeedsReview++
		}
		if t.IsCritical() {
			critical = append(critical, t)
		}
	}

	m.AllocationRate = percent(m.TotalAllocated, m.TotalRequested)
	m.CompletionRate = percent(m.TotalCompleted, m.TotalRequested)

	sort.SliceStable(critical, func(i, j int) bool {
		if critical[i].Urgent != critical[j].Urgent {
			return critical[i].Urgent
		}
		return critical[i].remainingRatio() < critical[j].remainingRatio()
	})
	m.CriticalCount = len(critical)
	if criticalLimit > 0 && len(critical) > criticalLimit {
		critical = critical[:criticalLimit]
	}
	if critical != nil {
		m.CriticalPlans = critical
	}
	return m
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
