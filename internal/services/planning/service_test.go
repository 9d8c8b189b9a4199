package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/alloyplan/internal/layout"
	"github.com/xelth-com/alloyplan/internal/models"
	"github.com/xelth-com/alloyplan/internal/planner"
	"github.com/xelth-com/alloyplan/internal/session"
)

var (
	spec17 = models.ProductSpecification{ModelID: 1, SizeID: 17, PcdID: 1, HolesID: 5, WidthID: 75}
	spec18 = models.ProductSpecification{ModelID: 1, SizeID: 18, PcdID: 1, HolesID: 5, WidthID: 80}
	spec19 = models.ProductSpecification{ModelID: 2, SizeID: 19, PcdID: 2, HolesID: 5, WidthID: 85}
)

func wheel(id int64, spec models.ProductSpecification, finishID int64, finish string, stock int) models.StockItem {
	return models.StockItem{
		ProductSpecification: spec,
		ID:                   id,
		FinishID:             finishID,
		FinishName:           finish,
		DisplayName:          "Spider " + finish,
		InHouseStock:         stock,
	}
}

func testCatalog() []models.StockItem {
	return []models.StockItem{
		wheel(1, spec17, 1, "Silver", 4),
		wheel(2, spec17, 2, "Gloss Black", 0),
		wheel(3, spec17, 3, "Machined without paint", 2),
		wheel(4, spec18, 1, "Silver", 3),
		wheel(5, spec18, 4, "Bronze", 0),
		wheel(6, spec19, 1, "Silver", 6),
	}
}

type recorder struct {
	events []string
}

func (r *recorder) Publish(eventType string, payload interface{}) {
	r.events = append(r.events, eventType)
}

func newTestService(t *testing.T, store session.KVStore) (*Service, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(testCatalog(), nil, nil, nil)
	var persister *session.Persister
	if store != nil {
		persister = session.NewPersister(store)
	}
	inv := layout.NewInvalidator(time.Millisecond)
	t.Cleanup(inv.Stop)

	svc := NewService(backend, persister, inv, Options{SupplierID: "77", CriticalPlanLimit: 10})
	if _, err := svc.RefreshCatalog(context.Background()); err != nil {
		t.Fatalf("RefreshCatalog failed: %v", err)
	}
	return svc, backend
}

func TestService_AddPlanErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddPlan(ctx, 99, ""); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
	if _, err := svc.AddPlan(ctx, 6, ""); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Item without alternate finishes: expected ErrNoCandidates, got %v", err)
	}
	if _, err := svc.AddPlan(ctx, 1, "Chrome"); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Unknown finish: expected ErrNoCandidates, got %v", err)
	}

	id, err := svc.AddPlan(ctx, 1, "Gloss Black")
	if err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	// the same finish cannot be chosen twice for one source
	if _, err := svc.AddPlan(ctx, 1, "Gloss Black"); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Duplicate finish: expected ErrNoCandidates, got %v", err)
	}
	cands, err := svc.PlanCandidates(id)
	if err != nil || len(cands) != 2 {
		t.Errorf("PlanCandidates = %v, %v", cands, err)
	}
}

func TestService_PersistAndRestore(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	svc, _ := newTestService(t, store)
	rec := &recorder{}
	svc.SetNotifier(rec)

	id, err := svc.AddPlan(ctx, 1, "")
	if err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	if _, err := svc.UpdatePlan(ctx, id, "quantity", 3); err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	svc.SetFilters(ctx, models.Filters{Search: "spider", OnlyWithStock: true})
	if len(rec.events) != 2 || rec.events[0] != EventPlansChanged {
		t.Errorf("Unexpected events %v", rec.events)
	}

	restored, _ := newTestService(t, store)
	status, err := restored.Restore(ctx)
	if err != nil || status != session.StatusRestored {
		t.Fatalf("Restore = %s, %v", status, err)
	}
	state := restored.Plans()
	if len(state.Plans) != 1 || state.Plans[0].PlanID != id || state.Plans[0].Quantity != 3 {
		t.Errorf("Unexpected restored plans %+v", state.Plans)
	}
	if !state.Filters.OnlyWithStock || state.Filters.Search != "spider" {
		t.Errorf("Filters not restored: %+v", state.Filters)
	}

	// the counter continues after the restored plans
	next, err := restored.AddPlan(ctx, 4, "")
	if err != nil || next.Sequence != 2 {
		t.Errorf("Next plan = %s, %v", next, err)
	}
}

func TestService_RestoreDiscardsInvalidSnapshot(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	black := "Gloss Black"
	source := wheel(1, spec17, 1, "Silver", 4)
	a := models.PlanID{SourceID: 1, Sequence: 1}
	b := models.PlanID{SourceID: 1, Sequence: 2}
	snap := models.SelectionSnapshot{
		SelectedRows: []models.PlanID{a, b},
		ConversionPlans: map[models.PlanID]models.ConversionPlan{
			a: {PlanID: a, SourceItem: source, TargetFinish: &black, Quantity: 1},
			b: {PlanID: b, SourceItem: source, TargetFinish: &black, Quantity: 1},
		},
		PlanCounter: 2,
	}
	if err := session.NewPersister(store).Save(ctx, snap); err != nil {
		t.Fatal(err)
	}

	svc, _ := newTestService(t, store)
	status, err := svc.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if status != session.StatusCorrupt {
		t.Errorf("status = %s, want corrupt", status)
	}
	if store.Has(session.DefaultKey) {
		t.Error("Invalid snapshot must be removed")
	}
	if len(svc.Plans().Plans) != 0 {
		t.Error("Nothing may be restored from an invalid snapshot")
	}
}

func TestService_SubmitPartialAndDiscard(t *testing.T) {
	svc, backend := newTestService(t, nil)
	ctx := context.Background()

	if n := svc.AddAll(ctx); n != 3 {
		t.Fatalf("AddAll = %d, want 3", n)
	}
	backend.SubmitErrors[4] = errors.New("vendor rejected line")

	result, err := svc.Submit(ctx, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Outcome != planner.OutcomePartial || !result.NeedsDecision {
		t.Fatalf("Unexpected result %+v", result)
	}
	if len(result.Failed) != 1 || result.Failed[0].PlanID.SourceID != 4 {
		t.Errorf("Unexpected failures %+v", result.Failed)
	}
	orders := backend.Orders()
	if len(orders) != 2 || orders[0].SupplierID != "77" {
		t.Errorf("Unexpected orders %+v", orders)
	}

	state := svc.Plans()
	if !state.NeedsDecision || len(state.Plans) != 1 {
		t.Errorf("Expected one failed plan awaiting a decision, got %+v", state)
	}

	n, err := svc.DiscardFailed(ctx)
	if err != nil || n != 1 {
		t.Errorf("DiscardFailed = %d, %v", n, err)
	}
	if len(svc.Plans().Plans) != 0 {
		t.Error("Failed plans must be gone after discard")
	}
	if _, err := svc.DiscardFailed(ctx); !errors.Is(err, ErrNothingToDiscard) {
		t.Errorf("Expected ErrNothingToDiscard, got %v", err)
	}
}

func TestService_RemoveFailedPlanClearsDecision(t *testing.T) {
	svc, backend := newTestService(t, nil)
	ctx := context.Background()

	svc.AddAll(ctx)
	backend.SubmitErrors[4] = errors.New("vendor rejected line")
	result, err := svc.Submit(ctx, "")
	if err != nil || len(result.Failed) != 1 {
		t.Fatalf("Submit = %+v, %v", result, err)
	}

	if err := svc.RemovePlan(ctx, result.Failed[0].PlanID); err != nil {
		t.Fatalf("RemovePlan failed: %v", err)
	}
	state := svc.Plans()
	if state.NeedsDecision || len(state.Failed) != 0 {
		t.Errorf("Removed plan still reported as failed: %+v", state)
	}
	if _, err := svc.DiscardFailed(ctx); !errors.Is(err, ErrNothingToDiscard) {
		t.Errorf("Expected ErrNothingToDiscard, got %v", err)
	}
}

func TestService_SubmitNeedsSupplier(t *testing.T) {
	backend := NewMemoryBackend(testCatalog(), nil, nil, nil)
	svc := NewService(backend, nil, nil, Options{})
	defer svc.Invalidator().Stop()

	if _, err := svc.Submit(context.Background(), ""); !errors.Is(err, ErrNoSupplier) {
		t.Errorf("Expected ErrNoSupplier, got %v", err)
	}
}

func TestService_RefreshFailureKeepsCatalog(t *testing.T) {
	svc, backend := newTestService(t, nil)
	backend.CatalogError = errors.New("timeout")

	if _, err := svc.RefreshCatalog(context.Background()); err == nil {
		t.Fatal("Expected refresh error")
	}
	if svc.CatalogSize() != len(testCatalog()) {
		t.Errorf("Catalog lost after failed refresh: %d items", svc.CatalogSize())
	}
}

func TestService_CatalogAndUncoated(t *testing.T) {
	svc, _ := newTestService(t, nil)

	rows := svc.Catalog(models.Filters{OnlyWithStock: true, Size: "17"})
	if len(rows) != 2 || rows[0].ID != 1 || rows[1].ID != 3 {
		t.Fatalf("Unexpected rows %+v", rows)
	}
	if !rows[0].CanAdd || rows[0].CandidateCount != 2 || !rows[1].Uncoated {
		t.Errorf("Unexpected affordances %+v", rows)
	}

	agg, ok, err := svc.Uncoated(1)
	if err != nil || !ok {
		t.Fatalf("Uncoated = %v, %v", ok, err)
	}
	if agg.TotalStock != 2 || len(agg.ItemIDs) != 1 || agg.ItemIDs[0] != 3 {
		t.Errorf("Unexpected aggregate %+v", agg)
	}
}

func TestService_RowHeightsGrowWhenSalesArrive(t *testing.T) {
	backend := NewMemoryBackend(testCatalog(), map[int64]models.SalesHistory{
		1: {ItemID: 1, TotalUnits: 9, MonthlyAverageSales: decimal.NewFromInt(3), MonthlySalesData: []models.MonthlySales{{Month: "2026-09", Units: 9}}},
	}, nil, nil)
	inv := layout.NewInvalidator(time.Millisecond)
	defer inv.Stop()
	svc := NewService(backend, nil, inv, Options{})
	svc.SetCatalog(testCatalog())

	events := make(chan layout.LayoutInvalidation, 8)
	inv.Subscribe(func(e layout.LayoutInvalidation) { events <- e })

	sz := svc.Sizer()
	rows := []RowRequest{{ItemID: 1, Expanded: true}, {ItemID: 4}}
	heights, err := svc.RowHeights(rows)
	if err != nil {
		t.Fatalf("RowHeights failed: %v", err)
	}
	compact := sz.ExpandedBaseHeight + 2*(sz.CompactCardHeight+sz.CardSpacing)
	if heights[0] != compact || heights[1] != sz.CollapsedHeight {
		t.Errorf("heights = %v, want [%d %d]", heights, compact, sz.CollapsedHeight)
	}

	deadline := time.After(time.Second)
	for arrived := false; !arrived; {
		select {
		case e := <-events:
			for _, r := range e.Reasons {
				arrived = arrived || r == layout.ReasonEntries
			}
		case <-deadline:
			t.Fatal("No entries invalidation after prefetch")
		}
	}

	heights, _ = svc.RowHeights(rows)
	rich := sz.ExpandedBaseHeight + 2*(sz.RichCardHeight+sz.CardSpacing)
	if heights[0] != rich {
		t.Errorf("height after arrival = %d, want %d", heights[0], rich)
	}

	if _, err := svc.RowHeights([]RowRequest{{ItemID: 42}}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestService_RowHeightsFailedSalesFetchStaysCompact(t *testing.T) {
	backend := NewMemoryBackend(testCatalog(), nil, nil, nil)
	backend.SalesErrors[1] = errors.New("report unavailable")
	svc := NewService(backend, nil, nil, Options{})
	defer svc.Invalidator().Stop()
	svc.SetCatalog(testCatalog())

	svc.Sales().Get(context.Background(), 1)
	if !svc.Sales().Has(1) {
		t.Fatal("Failed fetch must be cached")
	}

	sz := svc.Sizer()
	heights, err := svc.RowHeights([]RowRequest{{ItemID: 1, Expanded: true}})
	if err != nil {
		t.Fatalf("RowHeights failed: %v", err)
	}
	compact := sz.ExpandedBaseHeight + 2*(sz.CompactCardHeight+sz.CardSpacing)
	if heights[0] != compact {
		t.Errorf("height = %d, want compact %d", heights[0], compact)
	}
}

func TestService_RowHeightsExpansionInvalidates(t *testing.T) {
	inv := layout.NewInvalidator(time.Minute)
	defer inv.Stop()
	svc := NewService(NewMemoryBackend(testCatalog(), nil, nil, nil), nil, inv, Options{})
	svc.SetCatalog(testCatalog())
	inv.Flush()

	if _, err := svc.RowHeights([]RowRequest{{ItemID: 4}}); err != nil {
		t.Fatal(err)
	}
	if p := inv.Pending(); len(p) != 0 {
		t.Errorf("Collapsed rows raised %v", p)
	}

	if _, err := svc.RowHeights([]RowRequest{{ItemID: 4, Expanded: true}}); err != nil {
		t.Fatal(err)
	}
	// the sales prefetch may add an entries reason behind it
	if p := inv.Pending(); len(p) == 0 || p[0] != layout.ReasonExpansion {
		t.Errorf("Pending = %v, want expansion first", p)
	}
	inv.Flush()

	if _, err := svc.RowHeights([]RowRequest{{ItemID: 4, Expanded: true}}); err != nil {
		t.Fatal(err)
	}
	for _, r := range inv.Pending() {
		if r == layout.ReasonExpansion {
			t.Error("Unchanged expansion must not invalidate")
		}
	}
}

func TestService_Dashboard(t *testing.T) {
	backend := DemoBackend()
	svc := NewService(backend, nil, nil, Options{CriticalPlanLimit: 2})
	defer svc.Invalidator().Stop()
	ctx := context.Background()

	m, err := svc.Dashboard(ctx, models.ProductionFilters{}, 0)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if m.TotalPlans != 5 || len(m.CriticalPlans) != 2 {
		t.Errorf("Unexpected metrics %+v", m)
	}
	if m.CriticalPlans[0].ProductionPlanID != 2 {
		t.Errorf("Urgent plan must lead, got %d", m.CriticalPlans[0].ProductionPlanID)
	}

	tr, err := svc.Tracking(ctx, 3)
	if err != nil {
		t.Fatalf("Tracking failed: %v", err)
	}
	if tr.TotalJobCardQuantity != 55 || tr.RemainingQuantity != 5 || tr.CompletedQuantity != 40 {
		t.Errorf("Unexpected tracking %+v", tr)
	}
	if _, err := svc.Tracking(ctx, 99); !errors.Is(err, ErrProductionPlanNotFound) {
		t.Errorf("Expected ErrProductionPlanNotFound, got %v", err)
	}
}
