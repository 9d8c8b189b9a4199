package layout

import (
	"reflect"
	"testing"
	"time"

	"github.com/xelth-com/alloyplan/internal/matching"
	"github.com/xelth-com/alloyplan/internal/models"
)

func TestItemHeight(t *testing.T) {
	s := Sizer{CollapsedHeight: 50, ExpandedBaseHeight: 100, RichCardHeight: 200, CompactCardHeight: 80, CardSpacing: 10}
	item := models.StockItem{ID: 7}
	cands := []matching.Candidate{{FinishName: "Black"}, {FinishName: "Bronze"}, {FinishName: "Chrome"}}

	if h := s.ItemHeight(item, false, cands, EntrySet{7: true}); h != 50 {
		t.Errorf("collapsed height = %d, want 50", h)
	}
	if h := s.ItemHeight(item, true, cands, nil); h != 100+3*90 {
		t.Errorf("compact height = %d, want %d", h, 100+3*90)
	}
	if h := s.ItemHeight(item, true, cands, EntrySet{7: true}); h != 100+3*210 {
		t.Errorf("rich height = %d, want %d", h, 100+3*210)
	}
	// a record for a candidate item does not count, only the source
	if h := s.ItemHeight(item, true, cands, EntrySet{8: true}); h != 100+3*90 {
		t.Errorf("height with foreign entry = %d", h)
	}
	if h := s.ItemHeight(item, true, nil, EntrySet{7: true}); h != 100 {
		t.Errorf("expanded height without candidates = %d, want 100", h)
	}
}

func TestItemHeight_EmptyRecordStaysCompact(t *testing.T) {
	s := DefaultSizer()
	item := models.StockItem{ID: 5}
	cands := []matching.Candidate{{FinishName: "Gloss Black"}, {FinishName: "Bronze"}}

	// item 5 was fetched but the fetch failed, so no series exists
	entries := EntrySet{5: false}
	want := s.ExpandedBaseHeight + 2*(s.CompactCardHeight+s.CardSpacing)
	if h := s.ItemHeight(item, true, cands, entries); h != want {
		t.Errorf("height with empty record = %d, want %d", h, want)
	}
}

func TestRowHeights(t *testing.T) {
	s := DefaultSizer()
	rows := []Row{
		{Item: models.StockItem{ID: 1}},
		{Item: models.StockItem{ID: 2}, Expanded: true, Candidates: []matching.Candidate{{FinishName: "Silver"}}},
	}
	got := s.RowHeights(rows, EntrySet{2: true})
	want := []int{s.CollapsedHeight, s.ExpandedBaseHeight + s.RichCardHeight + s.CardSpacing}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RowHeights = %v, want %v", got, want)
	}
}

func TestInvalidator_Coalesces(t *testing.T) {
	inv := NewInvalidator(20 * time.Millisecond)
	defer inv.Stop()

	events := make(chan LayoutInvalidation, 4)
	inv.Subscribe(func(e LayoutInvalidation) { events <- e })

	inv.InvalidateLayout(ReasonExpansion)
	inv.InvalidateLayout(ReasonEntries)
	inv.InvalidateLayout(ReasonExpansion)

	select {
	case e := <-events:
		want := []string{ReasonExpansion, ReasonEntries}
		if !reflect.DeepEqual(e.Reasons, want) {
			t.Errorf("Reasons = %v, want %v", e.Reasons, want)
		}
	case <-time.After(time.Second):
		t.Fatal("No invalidation delivered")
	}

	select {
	case e := <-events:
		t.Fatalf("Unexpected second event %v", e.Reasons)
	case <-time.After(60 * time.Millisecond):
	}

	inv.InvalidateLayout(ReasonFilter)
	select {
	case e := <-events:
		if len(e.Reasons) != 1 || e.Reasons[0] != ReasonFilter {
			t.Errorf("Reasons = %v, want [filter]", e.Reasons)
		}
	case <-time.After(time.Second):
		t.Fatal("No invalidation delivered after the first flush")
	}
}

func TestInvalidator_DeferredAndUnsubscribe(t *testing.T) {
	inv := NewInvalidator(time.Hour)
	defer inv.Stop()

	var got []LayoutInvalidation
	unsubscribe := inv.Subscribe(func(e LayoutInvalidation) { got = append(got, e) })

	inv.InvalidateLayout(ReasonPlans)
	if len(got) != 0 {
		t.Fatal("Invalidation must not be delivered synchronously")
	}
	if p := inv.Pending(); len(p) != 1 || p[0] != ReasonPlans {
		t.Errorf("Pending = %v", p)
	}

	inv.Flush()
	if len(got) != 1 {
		t.Fatalf("Expected 1 event after Flush, got %d", len(got))
	}

	unsubscribe()
	inv.InvalidateLayout(ReasonCatalog)
	inv.Flush()
	if len(got) != 1 {
		t.Errorf("Unsubscribed callback still called")
	}

	inv.Stop()
	inv.InvalidateLayout(ReasonCatalog)
	if len(inv.Pending()) != 0 {
		t.Error("Stopped invalidator must ignore invalidations")
	}
}
