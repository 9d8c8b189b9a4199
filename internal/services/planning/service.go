package planning

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xelth-com/alloyplan/internal/allocation"
	"github.com/xelth-com/alloyplan/internal/layout"
	"github.com/xelth-com/alloyplan/internal/matching"
	"github.com/xelth-com/alloyplan/internal/models"
	"github.com/xelth-com/alloyplan/internal/planner"
	"github.com/xelth-com/alloyplan/internal/services/sales"
	"github.com/xelth-com/alloyplan/internal/session"
)

var (
	ErrItemNotFound           = errors.New("stock item not found")
	ErrNoCandidates           = errors.New("no alternative finish available")
	ErrNoSupplier             = errors.New("supplier id is required")
	ErrNothingToDiscard       = errors.New("no failed submission to discard")
	ErrProductionPlanNotFound = errors.New("production plan not found")
)

// Event types pushed to the console
const (
	EventPlansChanged      = "plans.changed"
	EventCatalogChanged    = "catalog.changed"
	EventLayoutInvalidated = "layout.invalidated"
)

// Notifier pushes events to connected consoles
type Notifier interface {
	Publish(eventType string, payload interface{})
}

// Options tunes a Service
type Options struct {
	SupplierID        string // default vendor for submissions
	CriticalPlanLimit int
	Sizer             layout.Sizer
}

// Service is the planning console core. Every operation that touches
// planner state runs under one lock, so concurrent HTTP requests see the
// same ordering a single console would produce.
type Service struct {
	mu sync.Mutex

	backend     Backend
	persister   *session.Persister // nil disables persistence
	sales       *sales.Cache
	invalidator *layout.Invalidator
	notifier    Notifier
	opts        Options

	catalog []models.StockItem
	index   *matching.SpecificationIndex
	matcher *matching.FinishMatcher
	store   *planner.Store
	filters models.Filters

	lastSubmission *planner.SubmissionResult
	expanded       map[int64]bool // rows expanded in the last sizing request
}

// NewService creates a planning service with an empty catalog
func NewService(backend Backend, persister *session.Persister, invalidator *layout.Invalidator, opts Options) *Service {
	if invalidator == nil {
		invalidator = layout.NewInvalidator(0)
	}
	if opts.Sizer == (layout.Sizer{}) {
		opts.Sizer = layout.DefaultSizer()
	}

	index := matching.NewSpecificationIndex(nil)
	matcher := matching.NewFinishMatcher(index)
	s := &Service{
		backend:     backend,
		persister:   persister,
		sales:       sales.NewCache(backend),
		invalidator: invalidator,
		opts:        opts,
		index:       index,
		matcher:     matcher,
		store:       planner.NewStore(matcher),
	}
	s.sales.OnArrive(func(int64) {
		s.invalidator.InvalidateLayout(layout.ReasonEntries)
	})
	return s
}

// SetNotifier attaches the push channel
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Invalidator returns the layout invalidator
func (s *Service) Invalidator() *layout.Invalidator {
	return s.invalidator
}

// Sales returns the sales history cache
func (s *Service) Sales() *sales.Cache {
	return s.sales
}

// SetCatalog installs a new catalog snapshot and rebuilds the index.
// Existing plans keep the source items they were created with.
func (s *Service) SetCatalog(items []models.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = append([]models.StockItem(nil), items...)
	s.index = matching.NewSpecificationIndex(s.catalog)
	s.matcher = matching.NewFinishMatcher(s.index)
	s.store.SetMatcher(s.matcher)

	s.publish(EventCatalogChanged, map[string]int{"items": len(s.catalog)})
	s.invalidator.InvalidateLayout(layout.ReasonCatalog)
}

// RefreshCatalog fetches the catalog directly from the backend. On failure
// the previous snapshot stays.
func (s *Service) RefreshCatalog(ctx context.Context) (int, error) {
	items, err := s.backend.FetchCatalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh catalog: %w", err)
	}
	s.SetCatalog(items)
	return len(items), nil
}

// Restore loads the persisted session. A snapshot that cannot be applied
// is discarded as a whole.
func (s *Service) Restore(ctx context.Context) (session.LoadStatus, error) {
	if s.persister == nil {
		return session.StatusMissing, nil
	}

	snap, status, err := s.persister.Load(ctx)
	if err != nil || status != session.StatusRestored {
		return status, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Restore(snap); err != nil {
		return session.StatusCorrupt, s.persister.Discard(ctx, err)
	}
	s.filters = snap.Filters
	log.Printf("✅ Planner: restored %d plans", s.store.Len())
	s.invalidator.InvalidateLayout(layout.ReasonRestore)
	return session.StatusRestored, nil
}

// persist mirrors the planner state; callers hold the lock
func (s *Service) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	snap := s.store.Snapshot(s.filters, time.Now())
	if err := s.persister.Save(ctx, snap); err != nil {
		log.Printf("❌ Planner: failed to save session: %v", err)
	}
}

// changed persists, announces and schedules a remeasure; callers hold the lock
func (s *Service) changed(ctx context.Context, reason string) {
	s.persist(ctx)
	s.publish(EventPlansChanged, s.planState())
	s.invalidator.InvalidateLayout(reason)
}

func (s *Service) publish(eventType string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(eventType, payload)
	}
}

// CatalogRow is one catalog item with its planning affordances
type CatalogRow struct {
	models.StockItem
	Stock          int  `json:"stock"`
	CandidateCount int  `json:"candidateCount"`
	CanAdd         bool `json:"canAdd"`
	Uncoated       bool `json:"uncoated"`
}

// Catalog returns the items matching filters
func (s *Service) Catalog(filters models.Filters) []CatalogRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := FilterCatalog(s.catalog, filters)
	rows := make([]CatalogRow, len(items))
	for i, item := range items {
		rows[i] = CatalogRow{
			StockItem:      item,
			Stock:          item.Stock(),
			CandidateCount: len(s.matcher.FindCandidates(item, nil)),
			CanAdd:         s.store.CanAdd(item),
			Uncoated:       matching.IsUncoated(item.FinishName),
		}
	}
	return rows
}

// CatalogSize returns the number of catalog items
func (s *Service) CatalogSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.catalog)
}

func (s *Service) item(id int64) (models.StockItem, error) {
	item, ok := s.index.Item(id)
	if !ok {
		return models.StockItem{}, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}
	return item, nil
}

// Candidates lists every alternate finish of an item
func (s *Service) Candidates(itemID int64) ([]matching.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.item(itemID)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindCandidates(item, nil), nil
}

// Uncoated sums stock and average sales over the uncoated variants of an
// item's specification, using the sales records cached so far
func (s *Service) Uncoated(itemID int64) (matching.UncoatedAggregate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.item(itemID)
	if err != nil {
		return matching.UncoatedAggregate{}, false, err
	}
	agg, ok := s.index.AggregateUncoated(item.Spec(), s.sales.Snapshot())
	return agg, ok, nil
}

// SalesHistory returns the memoized sales record of an item. It does not
// take the planner lock.
func (s *Service) SalesHistory(ctx context.Context, itemID int64) models.SalesHistory {
	return s.sales.Get(ctx, itemID)
}

// Filters returns the active catalog filters
func (s *Service) Filters() models.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// SetFilters replaces the catalog filters
func (s *Service) SetFilters(ctx context.Context, f models.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.persist(ctx)
	s.invalidator.InvalidateLayout(layout.ReasonFilter)
}

// PlanState is the planner as shown to the console
type PlanState struct {
	Selected      []models.PlanID            `json:"selectedRows"`
	Plans         []models.ConversionPlan    `json:"plans"`
	Counter       int                        `json:"planCounter"`
	Lines         []models.PurchaseOrderLine `json:"purchaseOrderLines"`
	Filters       models.Filters             `json:"filters"`
	NeedsDecision bool                       `json:"needsDecision"`
	Failed        []planner.FailedPlan       `json:"failed,omitempty"`
}

func (s *Service) planState() PlanState {
	st := PlanState{
		Selected: s.store.Selected(),
		Plans:    s.store.Plans(),
		Counter:  s.store.Counter(),
		Lines:    s.store.PurchaseOrderLines(),
		Filters:  s.filters,
	}
	if r := s.lastSubmission; r != nil && r.NeedsDecision {
		st.NeedsDecision = true
		st.Failed = r.Failed
	}
	return st
}

// Plans returns the current planner state
func (s *Service) Plans() PlanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planState()
}

// AddPlan adds a plan for an item. With an empty finish the target is left
// open; otherwise the finish must be an available candidate.
func (s *Service) AddPlan(ctx context.Context, itemID int64, finish string) (models.PlanID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.item(itemID)
	if err != nil {
		return models.PlanID{}, err
	}

	var (
		id models.PlanID
		ok bool
	)
	if finish == "" {
		id, ok = s.store.AddPlan(item)
	} else {
		id, ok = s.store.AddPlanWithFinish(item, finish)
	}
	if !ok {
		return models.PlanID{}, fmt.Errorf("item %d: %w", itemID, ErrNoCandidates)
	}
	s.changed(ctx, layout.ReasonPlans)
	return id, nil
}

// AddAll adds one plan for every eligible catalog item
func (s *Service) AddAll(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.store.AddAll(s.catalog)
	if n > 0 {
		s.changed(ctx, layout.ReasonPlans)
	}
	return n
}

// UpdatePlan changes one field of a plan
func (s *Service) UpdatePlan(ctx context.Context, id models.PlanID, field string, value interface{}) (models.ConversionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpdatePlan(id, field, value); err != nil {
		return models.ConversionPlan{}, err
	}
	s.changed(ctx, layout.ReasonPlans)
	p, _ := s.store.Plan(id)
	return p, nil
}

// RemovePlan deletes one plan
func (s *Service) RemovePlan(ctx context.Context, id models.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.RemovePlan(id) {
		return fmt.Errorf("plan %s: %w", id, planner.ErrPlanNotFound)
	}
	s.forgetFailed(id)
	s.changed(ctx, layout.ReasonPlans)
	return nil
}

// forgetFailed drops a removed plan from the pending submission decision.
// Once no failed plan is left there is nothing to decide.
func (s *Service) forgetFailed(id models.PlanID) {
	r := s.lastSubmission
	if r == nil {
		return
	}
	failed := make([]planner.FailedPlan, 0, len(r.Failed))
	for _, f := range r.Failed {
		if f.PlanID != id {
			failed = append(failed, f)
		}
	}
	if len(failed) == 0 {
		s.lastSubmission = nil
		return
	}
	pruned := *r
	pruned.Failed = failed
	s.lastSubmission = &pruned
}

// ClearPlans removes every plan
func (s *Service) ClearPlans(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Clear()
	s.lastSubmission = nil
	s.changed(ctx, layout.ReasonPlans)
}

// AutoFill assigns the first available finish to every plan without one
func (s *Service) AutoFill(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.store.AutoFillMissingFinishes()
	if n > 0 {
		s.changed(ctx, layout.ReasonPlans)
	}
	return n
}

// PlanCandidates lists the finishes a plan may target
func (s *Service) PlanCandidates(id models.PlanID) ([]matching.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Candidates(id)
}

// Submit places a purchase order per plan. An empty supplierID falls back
// to the configured default.
func (s *Service) Submit(ctx context.Context, supplierID string) (planner.SubmissionResult, error) {
	if supplierID == "" {
		supplierID = s.opts.SupplierID
	}
	if supplierID == "" {
		return planner.SubmissionResult{}, ErrNoSupplier
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.store.Submit(ctx, s.backend, supplierID)
	switch result.Outcome {
	case planner.OutcomeEmpty:
		return result, nil
	case planner.OutcomeSucceeded:
		log.Printf("✅ Planner: submitted %d purchase orders", len(result.Successful))
	default:
		log.Printf("⚠️ Planner: %d of %d purchase orders failed", len(result.Failed), len(result.Failed)+len(result.Successful))
	}
	s.lastSubmission = &result
	s.changed(ctx, layout.ReasonSubmission)
	return result, nil
}

// DiscardFailed drops the plans left over from a partially failed
// submission
func (s *Service) DiscardFailed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSubmission == nil || !s.lastSubmission.NeedsDecision {
		return 0, ErrNothingToDiscard
	}
	n := 0
	for _, id := range s.lastSubmission.FailedIDs() {
		if s.store.RemovePlan(id) {
			n++
		}
	}
	s.lastSubmission = nil
	s.changed(ctx, layout.ReasonSubmission)
	return n, nil
}

// Dashboard computes fleet-wide allocation metrics. A limit of zero uses the
// configured critical plan limit.
func (s *Service) Dashboard(ctx context.Context, filters models.ProductionFilters, limit int) (allocation.DashboardMetrics, error) {
	plans, err := s.backend.FetchProductionPlans(ctx, filters)
	if err != nil {
		return allocation.DashboardMetrics{}, fmt.Errorf("fetch production plans: %w", err)
	}
	allocs, err := s.backend.FetchJobCardAllocations(ctx, filters)
	if err != nil {
		return allocation.DashboardMetrics{}, fmt.Errorf("fetch job card allocations: %w", err)
	}
	if limit == 0 {
		limit = s.opts.CriticalPlanLimit
	}
	return allocation.ComputeDashboardMetrics(plans, allocs, limit), nil
}

// Tracking derives the allocation figures of one production plan
func (s *Service) Tracking(ctx context.Context, planID int64) (allocation.QuantityTracking, error) {
	filters := models.ProductionFilters{PlanIDs: []int64{planID}}
	plans, err := s.backend.FetchProductionPlans(ctx, filters)
	if err != nil {
		return allocation.QuantityTracking{}, fmt.Errorf("fetch production plan: %w", err)
	}
	for _, p := range plans {
		if p.ID != planID {
			continue
		}
		allocs, err := s.backend.FetchJobCardAllocations(ctx, filters)
		if err != nil {
			return allocation.QuantityTracking{}, fmt.Errorf("fetch job card allocations: %w", err)
		}
		return allocation.Track(p, allocs), nil
	}
	return allocation.QuantityTracking{}, fmt.Errorf("production plan %d: %w", planID, ErrProductionPlanNotFound)
}

// RowRequest identifies one list row to size
type RowRequest struct {
	ItemID   int64 `json:"itemId"`
	Expanded bool  `json:"expanded"`
}

// RowHeights sizes list rows from the data cached so far. Expanded rows
// without a sales record get a background fetch; their height grows once
// the record arrives and the layout is invalidated. A change in the set of
// expanded rows invalidates the layout for the other consoles.
func (s *Service) RowHeights(reqs []RowRequest) ([]int, error) {
	s.mu.Lock()
	rows := make([]layout.Row, len(reqs))
	expanded := make(map[int64]bool)
	for i, r := range reqs {
		item, err := s.item(r.ItemID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		rows[i] = layout.Row{Item: item, Expanded: r.Expanded}
		if r.Expanded {
			rows[i].Candidates = s.matcher.FindCandidates(item, nil)
			expanded[item.ID] = true
		}
	}
	if !sameIDs(expanded, s.expanded) {
		s.expanded = expanded
		s.invalidator.InvalidateLayout(layout.ReasonExpansion)
	}
	s.mu.Unlock()

	heights := s.opts.Sizer.RowHeights(rows, s.sales)
	for _, r := range rows {
		if r.Expanded {
			s.sales.Prefetch(r.Item.ID)
		}
	}
	return heights, nil
}

func sameIDs(a, b map[int64]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

// Sizer returns the row metrics in use
func (s *Service) Sizer() layout.Sizer {
	return s.opts.Sizer
}
