package planner

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xelth-com/alloyplan/internal/models"
)

// Plan fields accepted by UpdatePlan
const (
	FieldQuantity     = "quantity"
	FieldTargetFinish = "targetFinish"
	FieldUrgent       = "urgent"
)

// UpdatePlan changes one field of a plan in place. value comes straight from
// a decoded request body, so numbers may be float64 or json.Number and a
// target finish may be a string or nil.
func (s *Store) UpdatePlan(id models.PlanID, field string, value interface{}) error {
	switch strings.ToLower(strings.ReplaceAll(field, "_", "")) {
	case "quantity":
		qty, err := toQuantity(value)
		if err != nil {
			return err
		}
		return s.SetQuantity(id, qty)
	case "targetfinish":
		finish, err := toFinish(value)
		if err != nil {
			return err
		}
		return s.SetTargetFinish(id, finish)
	case "urgent":
		urgent, err := toBool(value)
		if err != nil {
			return err
		}
		return s.SetUrgent(id, urgent)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// SetQuantity sets the quantity to convert; it must be at least 1
func (s *Store) SetQuantity(id models.PlanID, qty int) error {
	p, ok := s.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidValue, qty)
	}
	p.Quantity = qty
	s.plans[id] = p
	return nil
}

// SetTargetFinish chooses the finish a plan converts to. nil clears it.
// A finish already targeted by a sibling plan is rejected.
func (s *Store) SetTargetFinish(id models.PlanID, finish *string) error {
	p, ok := s.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if finish == nil || *finish == "" {
		p.TargetFinish = nil
		s.plans[id] = p
		return nil
	}

	for _, taken := range s.excludedFinishes(id.SourceID, id) {
		if taken == *finish {
			return fmt.Errorf("%w: %s", ErrDuplicateFinish, *finish)
		}
	}
	if s.matcher != nil && !s.matcher.HasCandidate(p.SourceItem, nil, *finish) {
		return fmt.Errorf("%w: %s", ErrFinishUnavailable, *finish)
	}

	target := *finish
	p.TargetFinish = &target
	s.plans[id] = p
	return nil
}

// SetUrgent flags a plan as urgent
func (s *Store) SetUrgent(id models.PlanID, urgent bool) error {
	p, ok := s.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	p.Urgent = urgent
	s.plans[id] = p
	return nil
}

func toQuantity(value interface{}) (int, error) {
	var f float64
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		f = n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: quantity %q", ErrInvalidValue, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: quantity of type %T", ErrInvalidValue, value)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: quantity must be a whole number, got %v", ErrInvalidValue, f)
	}
	return int(f), nil
}

func toFinish(value interface{}) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case *string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: target finish of type %T", ErrInvalidValue, value)
	}
}

func toBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: urgent %q", ErrInvalidValue, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: urgent of type %T", ErrInvalidValue, value)
	}
}
