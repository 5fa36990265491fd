package capacity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/storage"
)

type fakeShifts struct {
	byID   map[uuid.UUID]model.ShiftModel
	active *model.ShiftModel
}

func (f *fakeShifts) GetShiftModel(_ context.Context, id uuid.UUID) (model.ShiftModel, error) {
	shift, ok := f.byID[id]
	if !ok {
		return model.ShiftModel{}, storage.ErrNotFound
	}
	return shift, nil
}

func (f *fakeShifts) GetActiveShiftModel(context.Context) (model.ShiftModel, error) {
	if f.active == nil {
		return model.ShiftModel{}, storage.ErrNotFound
	}
	return *f.active, nil
}

type fakeSchedules struct {
	load int64
	err  error
}

func (f *fakeSchedules) ScheduledLoad(context.Context, time.Time) (int64, error) {
	return f.load, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func referenceShift() model.ShiftModel {
	// Effective capacity 123975.
	return shiftConfig(2, 480, 60, 30, "150", "0.05")
}

func TestCheckOverloadWithinCapacity(t *testing.T) {
	shift := referenceShift()
	checker := NewChecker(&fakeShifts{active: &shift}, &fakeSchedules{load: 100000}, testLogger())

	result, err := checker.CheckOverload(context.Background(), time.Now(), 15000)
	require.NoError(t, err)

	assert.False(t, result.IsOverloaded)
	assert.Equal(t, int64(100000), result.CurrentLoad)
	assert.Equal(t, int64(123975), result.Capacity)
	assert.Nil(t, result.Suggestion, "suggestion must be absent when not overloaded")
}

func TestCheckOverloadExactlyAtCapacityAdmits(t *testing.T) {
	shift := referenceShift()
	checker := NewChecker(&fakeShifts{active: &shift}, &fakeSchedules{load: 123000}, testLogger())

	result, err := checker.CheckOverload(context.Background(), time.Now(), 975)
	require.NoError(t, err)
	assert.False(t, result.IsOverloaded, "load equal to capacity is not an overload")
}

func TestCheckOverloadSuggestsRemainingHeadroom(t *testing.T) {
	shift := referenceShift()
	checker := NewChecker(&fakeShifts{active: &shift}, &fakeSchedules{load: 100000}, testLogger())

	result, err := checker.CheckOverload(context.Background(), time.Now(), 20000)
	require.NoError(t, err)

	assert.True(t, result.IsOverloaded)
	require.NotNil(t, result.Suggestion)
	assert.Equal(t, int64(23975), *result.Suggestion)
}

func TestCheckOverloadSuggestionClampedAtZero(t *testing.T) {
	shift := referenceShift()
	checker := NewChecker(&fakeShifts{active: &shift}, &fakeSchedules{load: 200000}, testLogger())

	result, err := checker.CheckOverload(context.Background(), time.Now(), 1)
	require.NoError(t, err)

	assert.True(t, result.IsOverloaded)
	require.NotNil(t, result.Suggestion)
	assert.Equal(t, int64(0), *result.Suggestion, "a day already over capacity has no headroom")
}

// With no active shift model the check fails open: capacity is unknown, so
// nothing is blocked. The current load is still reported.
func TestCheckOverloadNoActiveShiftFailsOpen(t *testing.T) {
	checker := NewChecker(&fakeShifts{}, &fakeSchedules{load: 5000}, testLogger())

	result, err := checker.CheckOverload(context.Background(), time.Now(), 1000000)
	require.NoError(t, err)

	assert.False(t, result.IsOverloaded)
	assert.Equal(t, int64(0), result.Capacity)
	assert.Equal(t, int64(5000), result.CurrentLoad)
	assert.Nil(t, result.Suggestion)
}

func TestCheckOverloadScheduleErrorPropagates(t *testing.T) {
	shift := referenceShift()
	wantErr := errors.New("connection reset")
	checker := NewChecker(&fakeShifts{active: &shift}, &fakeSchedules{err: wantErr}, testLogger())

	_, err := checker.CheckOverload(context.Background(), time.Now(), 1)
	require.ErrorIs(t, err, wantErr)
}

func TestEffectiveCapacityByIDNotFound(t *testing.T) {
	checker := NewChecker(&fakeShifts{byID: map[uuid.UUID]model.ShiftModel{}}, &fakeSchedules{}, testLogger())

	_, err := checker.EffectiveCapacityByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEffectiveCapacityByIDResolves(t *testing.T) {
	id := uuid.New()
	checker := NewChecker(&fakeShifts{byID: map[uuid.UUID]model.ShiftModel{id: referenceShift()}}, &fakeSchedules{}, testLogger())

	got, err := checker.EffectiveCapacityByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(123975), got)
}

func TestDailyCapacitiesCoversRangeInclusive(t *testing.T) {
	shift := referenceShift()
	checker := NewChecker(&fakeShifts{active: &shift}, &fakeSchedules{}, testLogger())

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	capacities, err := checker.DailyCapacities(context.Background(), start, end)
	require.NoError(t, err)

	assert.Len(t, capacities, 7)
	assert.Equal(t, int64(123975), capacities["2025-03-01"])
	assert.Equal(t, int64(123975), capacities["2025-03-07"])
}

func TestDailyCapacitiesNoActiveShiftEmpty(t *testing.T) {
	checker := NewChecker(&fakeShifts{}, &fakeSchedules{}, testLogger())

	capacities, err := checker.DailyCapacities(context.Background(),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, capacities)
}
