package capacity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/storage"
)

// ShiftModelSource provides shift configurations. Implementations return an
// error matching storage.ErrNotFound when no row exists.
type ShiftModelSource interface {
	GetShiftModel(ctx context.Context, id uuid.UUID) (model.ShiftModel, error)
	GetActiveShiftModel(ctx context.Context) (model.ShiftModel, error)
}

// ScheduleSource provides the committed load for a calendar day: the sum of
// planned quantities over non-cancelled schedules on that day.
type ScheduleSource interface {
	ScheduledLoad(ctx context.Context, day time.Time) (int64, error)
}

// Checker combines shift capacity with already-scheduled load to produce
// admission decisions for new production quantities.
type Checker struct {
	shifts    ShiftModelSource
	schedules ScheduleSource
	logger    *slog.Logger
}

// NewChecker creates a Checker.
func NewChecker(shifts ShiftModelSource, schedules ScheduleSource, logger *slog.Logger) *Checker {
	return &Checker{shifts: shifts, schedules: schedules, logger: logger}
}

// EffectiveCapacityByID resolves a shift model and returns its effective
// capacity. A missing shift model is propagated as storage.ErrNotFound.
func (c *Checker) EffectiveCapacityByID(ctx context.Context, shiftModelID uuid.UUID) (int64, error) {
	shift, err := c.shifts.GetShiftModel(ctx, shiftModelID)
	if err != nil {
		return 0, fmt.Errorf("capacity: shift model %s: %w", shiftModelID, err)
	}
	return EffectiveCapacity(shift), nil
}

// CheckOverload decides whether adding additionalQty on the given day would
// exceed the active shift model's effective capacity.
//
// When no active shift model is configured the check fails open: capacity is
// reported as zero and IsOverloaded is false. Callers must treat that as
// "capacity unknown", not "capacity exceeded". CurrentLoad carries the real
// scheduled load in this branch, on purpose: zeroing it would hide how much
// is already booked on the day. Don't "normalize" it to match Capacity.
func (c *Checker) CheckOverload(ctx context.Context, day time.Time, additionalQty int64) (model.OverloadResult, error) {
	currentLoad, err := c.schedules.ScheduledLoad(ctx, day)
	if err != nil {
		return model.OverloadResult{}, fmt.Errorf("capacity: scheduled load for %s: %w", day.Format("2006-01-02"), err)
	}

	shift, err := c.shifts.GetActiveShiftModel(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("overload check with no active shift model; admitting unchecked",
				"date", day.Format("2006-01-02"), "additional_qty", additionalQty)
			return model.OverloadResult{
				IsOverloaded: false,
				CurrentLoad:  currentLoad,
				Capacity:     0,
			}, nil
		}
		return model.OverloadResult{}, fmt.Errorf("capacity: active shift model: %w", err)
	}

	dayCap := EffectiveCapacity(shift)
	result := model.OverloadResult{
		CurrentLoad: currentLoad,
		Capacity:    dayCap,
	}
	if currentLoad+additionalQty > dayCap {
		result.IsOverloaded = true
		suggestion := dayCap - currentLoad
		if suggestion < 0 {
			suggestion = 0
		}
		result.Suggestion = &suggestion
	}
	return result, nil
}

// DailyCapacities returns the active shift model's effective capacity for
// every day in [start, end], keyed by YYYY-MM-DD. With no active shift model
// the map is empty.
func (c *Checker) DailyCapacities(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	capacities := make(map[string]int64)

	shift, err := c.shifts.GetActiveShiftModel(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return capacities, nil
		}
		return nil, fmt.Errorf("capacity: active shift model: %w", err)
	}

	dayCap := EffectiveCapacity(shift)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		capacities[day.Format("2006-01-02")] = dayCap
	}
	return capacities, nil
}

// ActiveShiftModel exposes the active shift configuration, if any.
func (c *Checker) ActiveShiftModel(ctx context.Context) (model.ShiftModel, error) {
	return c.shifts.GetActiveShiftModel(ctx)
}
