package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus is the lifecycle state of a production schedule entry.
type ScheduleStatus string

const (
	SchedulePlanned      ScheduleStatus = "PLANNED"
	ScheduleInProduction ScheduleStatus = "IN_PRODUCTION"
	ScheduleCompleted    ScheduleStatus = "COMPLETED"
	ScheduleCancelled    ScheduleStatus = "CANCELLED"
)

// ProductionSchedule is one committed production run on a calendar day.
// Cancelled entries do not count toward the day's load.
type ProductionSchedule struct {
	ID            uuid.UUID      `json:"id"`
	ProductID     uuid.UUID      `json:"product_id"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	PlannedQty    int64          `json:"planned_qty"`
	Status        ScheduleStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// OverloadResult is the admission decision for adding quantity to a day.
//
// Suggestion is present only when overloaded: the maximum additional
// quantity that would still fit. Absence (nil) means no constraint applies,
// which is distinct from a suggestion of zero.
type OverloadResult struct {
	IsOverloaded bool   `json:"is_overloaded"`
	CurrentLoad  int64  `json:"current_load"`
	Capacity     int64  `json:"capacity"`
	Suggestion   *int64 `json:"suggestion,omitempty"`
}
