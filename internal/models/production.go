package models

// ProductionPlan is a request to manufacture a quantity of a product.
// It is owned by the production service and only read here.
type ProductionPlan struct {
	ID                int64  `json:"id"`
	RequestedQuantity int    `json:"requestedQuantity"`
	Urgent            bool   `json:"urgent"`
	Status            string `json:"status"`
	Reference         string `json:"reference,omitempty"`
}

// JobCardAllocation is the share of a production plan committed to one job card
type JobCardAllocation struct {
	ID                int64  `json:"id"`
	ProductionPlanID  int64  `json:"productionPlanId"`
	AllocatedQuantity int    `json:"allocatedQuantity"`
	CompletedQuantity int    `json:"completedQuantity"`
	Status            string `json:"status"`
}

// ProductionFilters narrows production plan and job card queries
type ProductionFilters struct {
	Status     string  `json:"status,omitempty"`
	UrgentOnly bool    `json:"urgentOnly,omitempty"`
	PlanIDs    []int64 `json:"planIds,omitempty"`
}

// UnmarshalJSON accepts the field spellings of the production API and the ERP
func (p *ProductionPlan) UnmarshalJSON(data []byte) error {
	pl, err := decodePayload(data)
	if err != nil {
		return err
	}

	var plan ProductionPlan
	if plan.ID, err = pl.Int("id", "production_plan_id"); err != nil {
		return err
	}
	qty, err := pl.Int("requested_quantity", "quantity", "product_qty")
	if err != nil {
		return err
	}
	plan.RequestedQuantity = int(qty)
	plan.Urgent = pl.Bool("urgent", "is_urgent")
	if !plan.Urgent && pl.String("priority") == "1" {
		plan.Urgent = true
	}
	plan.Status = pl.String("status", "state")
	plan.Reference = pl.String("reference", "name")

	*p = plan
	return nil
}

// UnmarshalJSON accepts the field spellings of the production API and the ERP
func (a *JobCardAllocation) UnmarshalJSON(data []byte) error {
	pl, err := decodePayload(data)
	if err != nil {
		return err
	}

	var alloc JobCardAllocation
	if alloc.ID, err = pl.Int("id", "job_card_id"); err != nil {
		return err
	}
	if alloc.ProductionPlanID, err = pl.Int("production_plan_id", "production_id"); err != nil {
		return err
	}
	allocated, err := pl.Int("allocated_quantity", "quantity", "qty_production")
	if err != nil {
		return err
	}
	completed, err := pl.Int("completed_quantity", "qty_produced")
	if err != nil {
		return err
	}
	alloc.AllocatedQuantity = int(allocated)
	alloc.CompletedQuantity = int(completed)
	alloc.Status = pl.String("status", "state")

	*a = alloc
	return nil
}
