package planner

import (
	"context"
	"fmt"

	"github.com/xelth-com/alloyplan/internal/models"
)

// OrderSubmitter places purchase orders with a vendor
type OrderSubmitter interface {
	SubmitPurchaseOrder(ctx context.Context, lines []models.PurchaseOrderLine, supplierID string) (string, error)
}

// SubmissionOutcome summarizes a bulk submission
type SubmissionOutcome string

const (
	OutcomeEmpty     SubmissionOutcome = "empty"
	OutcomeSucceeded SubmissionOutcome = "succeeded" // selection reset
	OutcomePartial   SubmissionOutcome = "partial"   // selection narrowed to failed plans
	OutcomeFailed    SubmissionOutcome = "failed"    // selection unchanged
)

// SubmittedPlan is a plan that became a purchase order
type SubmittedPlan struct {
	PlanID  models.PlanID `json:"planId"`
	OrderID string        `json:"orderId"`
}

// FailedPlan is a plan whose purchase order was not placed
type FailedPlan struct {
	PlanID models.PlanID `json:"planId"`
	Error  string        `json:"error"`
}

// SubmissionResult reports a bulk submission, both lists in selection order
type SubmissionResult struct {
	Outcome       SubmissionOutcome `json:"outcome"`
	Successful    []SubmittedPlan   `json:"successful"`
	Failed        []FailedPlan      `json:"failed"`
	NeedsDecision bool              `json:"needsDecision"` // retry or discard the failed plans
}

// FailedIDs returns the ids of the failed plans
func (r SubmissionResult) FailedIDs() []models.PlanID {
	ids := make([]models.PlanID, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.PlanID
	}
	return ids
}

// Submit places one purchase order per selected plan, one after another so
// the report order is deterministic. When everything succeeds the selection
// is cleared; on partial success it is narrowed to exactly the failed plans;
// when everything fails it is left as it was.
func (s *Store) Submit(ctx context.Context, submitter OrderSubmitter, supplierID string) SubmissionResult {
	result := SubmissionResult{
		Successful: []SubmittedPlan{},
		Failed:     []FailedPlan{},
	}
	if len(s.order) == 0 {
		result.Outcome = OutcomeEmpty
		return result
	}

	for _, id := range s.Selected() {
		line, ok := lineFor(s.plans[id])
		if !ok {
			result.Failed = append(result.Failed, FailedPlan{PlanID: id, Error: ErrNoTargetFinish.Error()})
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, FailedPlan{PlanID: id, Error: err.Error()})
			continue
		}
		orderID, err := submitter.SubmitPurchaseOrder(ctx, []models.PurchaseOrderLine{line}, supplierID)
		if err != nil {
			result.Failed = append(result.Failed, FailedPlan{PlanID: id, Error: fmt.Sprintf("submit plan %s: %v", id, err)})
			continue
		}
		result.Successful = append(result.Successful, SubmittedPlan{PlanID: id, OrderID: orderID})
	}

	switch {
	case len(result.Failed) == 0:
		result.Outcome = OutcomeSucceeded
		s.Clear()
	case len(result.Successful) == 0:
		result.Outcome = OutcomeFailed
	default:
		result.Outcome = OutcomePartial
		result.NeedsDecision = true
		s.Narrow(result.FailedIDs())
	}
	return result
}
