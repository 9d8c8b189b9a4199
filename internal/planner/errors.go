package planner

import "errors"

var (
	// ErrPlanNotFound is returned when a plan id is not in the store
	ErrPlanNotFound = errors.New("conversion plan not found")
	// ErrUnknownField is returned by UpdatePlan for unsupported field names
	ErrUnknownField = errors.New("unknown plan field")
	// ErrInvalidValue is returned when a field value has the wrong type or range
	ErrInvalidValue = errors.New("invalid plan field value")
	// ErrDuplicateFinish is returned when another plan of the same source already targets the finish
	ErrDuplicateFinish = errors.New("finish already targeted by another plan of this item")
	// ErrFinishUnavailable is returned when a finish is not a candidate for the source item
	ErrFinishUnavailable = errors.New("finish is not available for this item")
	// ErrCorruptSnapshot is returned when a snapshot cannot be restored consistently
	ErrCorruptSnapshot = errors.New("corrupt selection snapshot")
	// ErrNoTargetFinish marks plans submitted before a target finish was chosen
	ErrNoTargetFinish = errors.New("no target finish selected")
)
