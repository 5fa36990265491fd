package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShiftModel is a named shift configuration from which daily production
// capacity is derived. Owned by configuration; the engine only reads it.
type ShiftModel struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	ShiftsPerDay      int             `json:"shifts_per_day"`
	MinutesPerShift   int             `json:"minutes_per_shift"`
	CleanupMinutes    int             `json:"cleanup_minutes"`
	ChangeoverMinutes int             `json:"changeover_minutes"`
	SpeedPerMinute    decimal.Decimal `json:"speed_per_minute"`
	DefectRate        decimal.Decimal `json:"defect_rate"` // fraction in [0,1)
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
