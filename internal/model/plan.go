package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkType is the production process category of an order plan.
type WorkType string

const (
	WorkOven      WorkType = "OVEN"
	WorkMixing    WorkType = "MIXING"
	WorkPackaging WorkType = "PACKAGING"
	WorkSorting   WorkType = "SORTING"
)

// PlanStatus is the lifecycle state of an order plan.
type PlanStatus string

const (
	PlanPlanned             PlanStatus = "PLANNED"
	PlanInProduction        PlanStatus = "IN_PRODUCTION"
	PlanProductionCompleted PlanStatus = "PRODUCTION_COMPLETED"
	PlanInspection          PlanStatus = "INSPECTION"
	PlanShipping            PlanStatus = "SHIPPING"
	PlanDeliveryCompleted   PlanStatus = "DELIVERY_COMPLETED"
)

// OrderPlan is a customer order scheduled for production. Mutations to an
// order plan are what the change tracker audits.
type OrderPlan struct {
	ID             uuid.UUID  `json:"id"`
	CompanyName    string     `json:"company_name"`
	ProductName    string     `json:"product_name"`
	WorkType       WorkType   `json:"work_type"`
	Status         PlanStatus `json:"status"`
	Weight         *float64   `json:"weight,omitempty"` // kg; nil until weighed
	RepeatProgress int        `json:"repeat_progress"`
	RepeatCount    int        `json:"repeat_count"`
	DesiredDate    *time.Time `json:"desired_date,omitempty"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	OrderQuantity  int64      `json:"order_quantity"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Fields returns the plan's tracked fields as a generic map, the shape the
// change tracker diffs. Nil pointers become untyped nils so the tracker's
// emptiness rules apply.
func (p OrderPlan) Fields() map[string]any {
	m := map[string]any{
		"workType":       string(p.WorkType),
		"status":         string(p.Status),
		"repeatProgress": p.RepeatProgress,
		"repeatCount":    p.RepeatCount,
		"orderQuantity":  p.OrderQuantity,
		"companyName":    p.CompanyName,
		"productName":    p.ProductName,
	}
	if p.Weight != nil {
		m["weight"] = *p.Weight
	} else {
		m["weight"] = nil
	}
	if p.DesiredDate != nil {
		m["desiredDate"] = *p.DesiredDate
	} else {
		m["desiredDate"] = nil
	}
	if p.DeliveryDate != nil {
		m["deliveryDate"] = *p.DeliveryDate
	} else {
		m["deliveryDate"] = nil
	}
	return m
}

// EntityName is the display name used on change records for this plan.
func (p OrderPlan) EntityName() string {
	return p.CompanyName + " - " + p.ProductName
}
