package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// ListResponse is the standard envelope for list endpoints.
type ListResponse struct {
	Data  any          `json:"data"`
	Total int          `json:"total"`
	Limit int          `json:"limit"`
	Meta  ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeOverloaded    = "OVERLOADED"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
)

// AuthTokenRequest is the request body for POST /auth/token.
type AuthTokenRequest struct {
	OperatorID string `json:"operator_id"`
	APIKey     string `json:"api_key"`
}

// AuthTokenResponse is the response for POST /auth/token.
type AuthTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateShiftModelRequest is the request body for POST /v1/shift-models.
// Zero-value overhead and defect fields receive the plant defaults
// (cleanup 60 min, changeover 30 min, defect rate 0.05).
type CreateShiftModelRequest struct {
	Name              string           `json:"name"`
	ShiftsPerDay      int              `json:"shifts_per_day"`
	MinutesPerShift   int              `json:"minutes_per_shift"`
	CleanupMinutes    *int             `json:"cleanup_minutes,omitempty"`
	ChangeoverMinutes *int             `json:"changeover_minutes,omitempty"`
	SpeedPerMinute    decimal.Decimal  `json:"speed_per_minute"`
	DefectRate        *decimal.Decimal `json:"defect_rate,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

// OverloadCheckRequest is the request body for POST /v1/overload-check.
type OverloadCheckRequest struct {
	Date          string `json:"date"` // YYYY-MM-DD
	AdditionalQty int64  `json:"additional_qty"`
}

// CreateScheduleRequest is the request body for POST /v1/schedules.
type CreateScheduleRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	PlannedQty int64     `json:"planned_qty"`
}

// CreateOrderPlanRequest is the request body for POST /v1/order-plans.
type CreateOrderPlanRequest struct {
	CompanyName   string     `json:"company_name"`
	ProductName   string     `json:"product_name"`
	WorkType      WorkType   `json:"work_type"`
	Status        PlanStatus `json:"status,omitempty"`
	Weight        *float64   `json:"weight,omitempty"`
	RepeatCount   int        `json:"repeat_count"`
	DesiredDate   *time.Time `json:"desired_date,omitempty"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
	OrderQuantity int64      `json:"order_quantity"`
}

// UpdateOrderPlanRequest is the request body for PATCH /v1/order-plans/{plan_id}.
// Nil fields are left unchanged.
type UpdateOrderPlanRequest struct {
	CompanyName    *string     `json:"company_name,omitempty"`
	ProductName    *string     `json:"product_name,omitempty"`
	WorkType       *WorkType   `json:"work_type,omitempty"`
	Status         *PlanStatus `json:"status,omitempty"`
	Weight         *float64    `json:"weight,omitempty"`
	RepeatProgress *int        `json:"repeat_progress,omitempty"`
	RepeatCount    *int        `json:"repeat_count,omitempty"`
	DesiredDate    *time.Time  `json:"desired_date,omitempty"`
	DeliveryDate   *time.Time  `json:"delivery_date,omitempty"`
	OrderQuantity  *int64      `json:"order_quantity,omitempty"`
}

// ConsumeMaterialsRequest is the request body for POST /v1/products/{product_id}/consume.
type ConsumeMaterialsRequest struct {
	Quantity int64 `json:"quantity"`
}

// CreateProductRequest is the request body for POST /v1/products.
type CreateProductRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// CreateMaterialRequest is the request body for POST /v1/materials.
type CreateMaterialRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// UpsertInventoryRequest is the request body for PUT /v1/inventory/{material_id}.
type UpsertInventoryRequest struct {
	OnHand decimal.Decimal `json:"on_hand"`
}

// CreateBOMLineRequest is the request body for POST /v1/products/{product_id}/bom.
type CreateBOMLineRequest struct {
	MaterialID      uuid.UUID       `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// UpdateScheduleStatusRequest is the request body for PATCH /v1/schedules/{schedule_id}/status.
type UpdateScheduleStatusRequest struct {
	Status ScheduleStatus `json:"status"`
}

// CapacityResponse is the response for GET /v1/capacity.
type CapacityResponse struct {
	ShiftModelID uuid.UUID `json:"shift_model_id"`
	Date         string    `json:"date"`
	Capacity     int64     `json:"capacity"`
}

// DailyCapacityResponse is the response for GET /v1/capacity/daily.
type DailyCapacityResponse struct {
	ShiftModelID uuid.UUID        `json:"shift_model_id"`
	Capacities   map[string]int64 `json:"capacities"` // keyed by YYYY-MM-DD
}

// AvailabilityResponse is the response for GET /v1/products/{product_id}/availability.
type AvailabilityResponse struct {
	ProductID    uuid.UUID `json:"product_id"`
	RequestedQty int64     `json:"requested_qty"`
	AvailableQty int64     `json:"available_qty"`
}

// UnreadCountResponse is the response for GET /v1/changes/unread-count.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Postgres    string `json:"postgres"`
	FeedDepth   int    `json:"feed_depth"`
	FeedUnread  int    `json:"feed_unread"`
	UptimeSecs  int64  `json:"uptime_seconds"`
}
