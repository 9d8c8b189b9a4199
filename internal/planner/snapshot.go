package planner

import (
	"fmt"
	"time"

	"github.com/xelth-com/alloyplan/internal/models"
)

// Snapshot captures the store as a serializable selection snapshot
func (s *Store) Snapshot(filters models.Filters, now time.Time) models.SelectionSnapshot {
	plans := make(map[models.PlanID]models.ConversionPlan, len(s.plans))
	for id, p := range s.plans {
		plans[id] = p
	}
	return models.SelectionSnapshot{
		SelectedRows:    s.Selected(),
		ConversionPlans: plans,
		PlanCounter:     s.counter,
		Filters:         filters,
		Timestamp:       now.UnixMilli(),
	}
}

// Restore replaces the store contents with a snapshot. The snapshot is
// checked as a whole first; on any inconsistency the store is left untouched
// and ErrCorruptSnapshot is returned.
func (s *Store) Restore(snap models.SelectionSnapshot) error {
	plans := make(map[models.PlanID]models.ConversionPlan, len(snap.SelectedRows))
	order := make([]models.PlanID, 0, len(snap.SelectedRows))
	targets := make(map[int64]map[string]struct{})
	counter := snap.PlanCounter

	for _, id := range snap.SelectedRows {
		if _, dup := plans[id]; dup {
			return fmt.Errorf("%w: plan %s selected twice", ErrCorruptSnapshot, id)
		}
		p, ok := snap.ConversionPlans[id]
		if !ok {
			return fmt.Errorf("%w: selected plan %s has no data", ErrCorruptSnapshot, id)
		}
		if p.PlanID != id || p.SourceItem.ID != id.SourceID {
			return fmt.Errorf("%w: plan %s does not match its key", ErrCorruptSnapshot, id)
		}
		if p.Quantity < 1 {
			return fmt.Errorf("%w: plan %s has quantity %d", ErrCorruptSnapshot, id, p.Quantity)
		}
		if p.HasTarget() {
			seen := targets[id.SourceID]
			if seen == nil {
				seen = make(map[string]struct{})
				targets[id.SourceID] = seen
			}
			if _, taken := seen[p.Target()]; taken {
				return fmt.Errorf("%w: finish %s targeted twice for item %d", ErrCorruptSnapshot, p.Target(), id.SourceID)
			}
			seen[p.Target()] = struct{}{}
		}
		if id.Sequence > counter {
			counter = id.Sequence
		}
		plans[id] = p
		order = append(order, id)
	}

	s.plans = plans
	s.order = order
	s.counter = counter
	return nil
}
