package allocation

import (
	"testing"

	"github.com/xelth-com/alloyplan/internal/models"
)

func TestTrack_Boundaries(t *testing.T) {
	plan := models.ProductionPlan{ID: 1, RequestedQuantity: 100}

	cases := []struct {
		allocated int
		state     State
		remaining int
		review    bool
	}{
		{0, NotStarted, 100, false},
		{40, PartiallyAllocated, 60, false},
		{100, FullyAllocated, 0, false},
		{120, OverAllocated, -20, true},
	}

	for _, tc := range cases {
		// split across two job cards plus one for another plan
		allocs := []models.JobCardAllocation{
			{ProductionPlanID: 1, AllocatedQuantity: tc.allocated / 2, CompletedQuantity: 1},
			{ProductionPlanID: 1, AllocatedQuantity: tc.allocated - tc.allocated/2},
			{ProductionPlanID: 2, AllocatedQuantity: 999, CompletedQuantity: 999},
		}
		got := Track(plan, allocs)
		if got.State != tc.state {
			t.Errorf("allocated=%d: state %s, want %s", tc.allocated, got.State, tc.state)
		}
		if got.RemainingQuantity != tc.remaining {
			t.Errorf("allocated=%d: remaining %d, want %d", tc.allocated, got.RemainingQuantity, tc.remaining)
		}
		if got.TotalJobCardQuantity != tc.allocated {
			t.Errorf("allocated=%d: total %d", tc.allocated, got.TotalJobCardQuantity)
		}
		if got.CompletedQuantity != 1 {
			t.Errorf("allocated=%d: completed %d, want 1", tc.allocated, got.CompletedQuantity)
		}
		if got.NeedsReview != tc.review {
			t.Errorf("allocated=%d: needsReview %v", tc.allocated, got.NeedsReview)
		}
	}
}

func TestClassify_ZeroRequested(t *testing.T) {
	if s := Classify(0, 0); s != NotStarted {
		t.Errorf("Classify(0, 0) = %s", s)
	}
	if s := Classify(0, 5); s != OverAllocated {
		t.Errorf("Classify(0, 5) = %s", s)
	}
}

func TestComputeDashboardMetrics(t *testing.T) {
	plans := []models.ProductionPlan{
		{ID: 1, RequestedQuantity: 100},              // 40 allocated, partial
		{ID: 2, RequestedQuantity: 50},               // full, 0% remaining -> critical
		{ID: 3, RequestedQuantity: 30, Urgent: true}, // not started, urgent -> critical
		{ID: 4, RequestedQuantity: 20},               // 25 allocated, over -> critical
		{ID: 5, RequestedQuantity: 100},              // 85 allocated, 15% remaining -> critical
	}
	allocs := []models.JobCardAllocation{
		{ProductionPlanID: 1, AllocatedQuantity: 40, CompletedQuantity: 10},
		{ProductionPlanID: 2, AllocatedQuantity: 50, CompletedQuantity: 50},
		{ProductionPlanID: 4, AllocatedQuantity: 25, CompletedQuantity: 5},
		{ProductionPlanID: 5, AllocatedQuantity: 85},
	}

	m := ComputeDashboardMetrics(plans, allocs, 0)

	if m.TotalRequested != 300 || m.TotalAllocated != 200 || m.TotalCompleted != 65 {
		t.Errorf("Unexpected totals %+v", m)
	}
	if m.AllocationRate != 67 {
		t.Errorf("AllocationRate = %d, want 67", m.AllocationRate)
	}
	if m.CompletionRate != 22 {
		t.Errorf("CompletionRate = %d, want 22", m.CompletionRate)
	}

	wantCounts := map[State]int{NotStarted: 1, PartiallyAllocated: 2, FullyAllocated: 1, OverAllocated: 1}
	for s, n := range wantCounts {
		if m.Counts[s] != n {
			t.Errorf("Counts[%s] = %d, want %d", s, m.Counts[s], n)
		}
	}
	if m.NeedsReview != 1 {
		t.Errorf("NeedsReview = %d, want 1", m.NeedsReview)
	}

	if m.CriticalCount != 4 {
		t.Fatalf("CriticalCount = %d, want 4", m.CriticalCount)
	}
	// urgent first, then by remaining ratio: plan 4 (-25%), plan 2 (0%), plan 5 (15%)
	order := []int64{3, 4, 2, 5}
	for i, id := range order {
		if m.CriticalPlans[i].ProductionPlanID != id {
			t.Errorf("CriticalPlans[%d] = plan %d, want %d", i, m.CriticalPlans[i].ProductionPlanID, id)
		}
	}

	capped := ComputeDashboardMetrics(plans, allocs, 2)
	if len(capped.CriticalPlans) != 2 || capped.CriticalCount != 4 {
		t.Errorf("Expected 2 of 4 critical plans, got %d of %d", len(capped.CriticalPlans), capped.CriticalCount)
	}
}

func TestComputeDashboardMetrics_NoRequestedQuantity(t *testing.T) {
	plans := []models.ProductionPlan{{ID: 1}, {ID: 2}}
	m := ComputeDashboardMetrics(plans, nil, 5)

	if m.AllocationRate != 0 || m.CompletionRate != 0 {
		t.Errorf("Expected zero rates, got %d/%d", m.AllocationRate, m.CompletionRate)
	}
	if len(m.CriticalPlans) != 0 {
		t.Errorf("Plans with nothing requested are not critical, got %d", len(m.CriticalPlans))
	}

	empty := ComputeDashboardMetrics(nil, nil, 5)
	if empty.TotalPlans != 0 || empty.AllocationRate != 0 || empty.Counts[NotStarted] != 0 {
		t.Errorf("Unexpected metrics for empty fleet %+v", empty)
	}
}
