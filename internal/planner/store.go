package planner

import (
	"fmt"

	"github.com/xelth-com/alloyplan/internal/matching"
	"github.com/xelth-com/alloyplan/internal/models"
)

// Store holds the in-progress conversion plans of one planning session.
// It owns the plan sequence counter. Not safe for concurrent use; callers
// serialize access.
type Store struct {
	matcher *matching.FinishMatcher
	plans   map[models.PlanID]models.ConversionPlan
	order   []models.PlanID
	counter int
}

// NewStore creates an empty store that offers candidates from matcher
func NewStore(matcher *matching.FinishMatcher) *Store {
	return &Store{
		matcher: matcher,
		plans:   make(map[models.PlanID]models.ConversionPlan),
	}
}

// SetMatcher swaps the matcher after a catalog refresh. Existing plans keep
// the source item they were created with.
func (s *Store) SetMatcher(matcher *matching.FinishMatcher) {
	s.matcher = matcher
}

// Counter returns the last issued plan sequence number
func (s *Store) Counter() int {
	return s.counter
}

// Len is the number of plans
func (s *Store) Len() int {
	return len(s.order)
}

// Selected returns the selected plan ids in selection order
func (s *Store) Selected() []models.PlanID {
	out := make([]models.PlanID, len(s.order))
	copy(out, s.order)
	return out
}

// Plan returns a copy of one plan
func (s *Store) Plan(id models.PlanID) (models.ConversionPlan, bool) {
	p, ok := s.plans[id]
	return p, ok
}

// Plans returns copies of all plans in selection order
func (s *Store) Plans() []models.ConversionPlan {
	out := make([]models.ConversionPlan, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.plans[id])
	}
	return out
}

// excludedFinishes lists the targets already chosen by plans of sourceID,
// leaving out the plan skip (use the zero PlanID to skip nothing).
func (s *Store) excludedFinishes(sourceID int64, skip models.PlanID) []string {
	var out []string
	for _, id := range s.order {
		if id.SourceID != sourceID || id == skip {
			continue
		}
		if p := s.plans[id]; p.HasTarget() {
			out = append(out, p.Target())
		}
	}
	return out
}

// AvailableCandidates returns the finishes that can still be offered for a
// new plan of source.
func (s *Store) AvailableCandidates(source models.StockItem) []matching.Candidate {
	if s.matcher == nil {
		return nil
	}
	return s.matcher.FindCandidates(source, s.excludedFinishes(source.ID, models.PlanID{}))
}

// CanAdd reports whether AddPlan would create a plan for source
func (s *Store) CanAdd(source models.StockItem) bool {
	return source.Stock() > 0 && len(s.AvailableCandidates(source)) > 0
}

// Candidates returns the finishes a given plan may switch to: every
// candidate of its source not taken by a sibling plan.
func (s *Store) Candidates(id models.PlanID) ([]matching.Candidate, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if s.matcher == nil {
		return nil, nil
	}
	return s.matcher.FindCandidates(p.SourceItem, s.excludedFinishes(id.SourceID, id)), nil
}

// AddPlan creates a plan with no target finish and quantity 1. Items without
// stock or without any remaining candidate finish are ignored.
func (s *Store) AddPlan(source models.StockItem) (models.PlanID, bool) {
	if !s.CanAdd(source) {
		return models.PlanID{}, false
	}
	return s.insert(source, nil), true
}

// AddPlanWithFinish creates a plan already targeting finish. The finish
// must be one of the item's available candidates.
func (s *Store) AddPlanWithFinish(source models.StockItem, finish string) (models.PlanID, bool) {
	if source.Stock() <= 0 {
		return models.PlanID{}, false
	}
	if !containsCandidate(s.AvailableCandidates(source), finish) {
		return models.PlanID{}, false
	}
	target := finish
	return s.insert(source, &target), true
}

// AddAll creates one plan for every item with stock that still has a
// candidate finish, targeting its alphabetically-first candidate.
// It returns the number of plans created.
func (s *Store) AddAll(items []models.StockItem) int {
	added := 0
	for _, item := range items {
		if item.Stock() <= 0 {
			continue
		}
		candidates := s.AvailableCandidates(item)
		if len(candidates) == 0 {
			continue
		}
		if _, ok := s.AddPlanWithFinish(item, candidates[0].FinishName); ok {
			added++
		}
	}
	return added
}

func (s *Store) insert(source models.StockItem, target *string) models.PlanID {
	s.counter++
	id := models.PlanID{SourceID: source.ID, Sequence: s.counter}
	s.plans[id] = models.ConversionPlan{
		PlanID:       id,
		SourceItem:   source,
		TargetFinish: target,
		Quantity:     1,
	}
	s.order = append(s.order, id)
	return id
}

// RemovePlan deletes a plan and its selection entry
func (s *Store) RemovePlan(id models.PlanID) bool {
	if _, ok := s.plans[id]; !ok {
		return false
	}
	delete(s.plans, id)
	for i, sel := range s.order {
		if sel == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear drops every plan and the selection. The counter keeps running so
// ids are never reused within a session.
func (s *Store) Clear() {
	s.plans = make(map[models.PlanID]models.ConversionPlan)
	s.order = nil
}

// Narrow keeps only the listed plans, in their existing selection order
func (s *Store) Narrow(keep []models.PlanID) {
	wanted := make(map[models.PlanID]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}
	var order []models.PlanID
	for _, id := range s.order {
		if _, ok := wanted[id]; ok {
			order = append(order, id)
			continue
		}
		delete(s.plans, id)
	}
	s.order = order
}

// AutoFillMissingFinishes assigns the first available candidate to every plan
// without a target finish. Plans with no candidate left are skipped.
// It returns the number of plans filled.
func (s *Store) AutoFillMissingFinishes() int {
	filled := 0
	for _, id := range s.order {
		p := s.plans[id]
		if p.HasTarget() || s.matcher == nil {
			continue
		}
		c, ok := s.matcher.FirstCandidate(p.SourceItem, s.excludedFinishes(id.SourceID, id))
		if !ok {
			continue
		}
		target := c.FinishName
		p.TargetFinish = &target
		s.plans[id] = p
		filled++
	}
	return filled
}

// PurchaseOrderLines produces one line per plan with a target finish and a
// positive quantity, in selection order.
func (s *Store) PurchaseOrderLines() []models.PurchaseOrderLine {
	var lines []models.PurchaseOrderLine
	for _, id := range s.order {
		if line, ok := lineFor(s.plans[id]); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func lineFor(p models.ConversionPlan) (models.PurchaseOrderLine, bool) {
	if !p.HasTarget() || p.Quantity <= 0 {
		return models.PurchaseOrderLine{}, false
	}
	return models.PurchaseOrderLine{
		PlanID:       p.PlanID,
		SourceItemID: p.SourceItem.ID,
		SourceSpec:   p.SourceItem.Spec(),
		TargetFinish: p.Target(),
		Quantity:     p.Quantity,
		Urgent:       p.Urgent,
	}, true
}

func containsCandidate(candidates []matching.Candidate, finish string) bool {
	for _, c := range candidates {
		if c.FinishName == finish {
			return true
		}
	}
	return false
}
