package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/storage"
	"github.com/planline-io/planline/internal/testutil"
	"github.com/planline-io/planline/migrations"
)

// testDB holds a shared test database connection for all tests in this package.
var testDB *storage.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	tc := testutil.MustStartPostgres()

	var err error
	testDB, err = tc.NewTestDB(ctx, testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create test DB: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	tc.Terminate()
	os.Exit(code)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()

	// TestMain already migrated this database. A second pass must skip
	// every applied file and succeed without touching the schema.
	require.NoError(t, testDB.RunMigrations(ctx, migrations.FS))
	require.NoError(t, testDB.RunMigrations(ctx, migrations.FS))
}

func TestShiftModelCRUDAndActivation(t *testing.T) {
	ctx := context.Background()

	day, err := testDB.CreateShiftModel(ctx, model.ShiftModel{
		Name:              "day-" + uuid.New().String()[:8],
		ShiftsPerDay:      2,
		MinutesPerShift:   480,
		CleanupMinutes:    60,
		ChangeoverMinutes: 30,
		SpeedPerMinute:    decimal.RequireFromString("150"),
		DefectRate:        decimal.RequireFromString("0.05"),
	})
	require.NoError(t, err)

	got, err := testDB.GetShiftModel(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, day.Name, got.Name)
	assert.True(t, got.SpeedPerMinute.Equal(decimal.RequireFromString("150")))
	assert.False(t, got.IsActive)

	night, err := testDB.CreateShiftModel(ctx, model.ShiftModel{
		Name:            "night-" + uuid.New().String()[:8],
		ShiftsPerDay:    1,
		MinutesPerShift: 480,
		SpeedPerMinute:  decimal.RequireFromString("100"),
		DefectRate:      decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)

	// Activating one model deactivates the rest.
	activated, err := testDB.ActivateShiftModel(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	_, err = testDB.ActivateShiftModel(ctx, night.ID)
	require.NoError(t, err)

	active, err := testDB.GetActiveShiftModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, night.ID, active.ID)

	dayAfter, err := testDB.GetShiftModel(ctx, day.ID)
	require.NoError(t, err)
	assert.False(t, dayAfter.IsActive)
}

func TestGetShiftModelNotFound(t *testing.T) {
	_, err := testDB.GetShiftModel(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScheduledLoadExcludesCancelled(t *testing.T) {
	ctx := context.Background()

	product, err := testDB.CreateProduct(ctx, model.Product{
		Code: "P-" + uuid.New().String()[:8], Name: "Rye Loaf", Unit: "pcs",
	})
	require.NoError(t, err)

	day := time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err = testDB.CreateSchedule(ctx, model.ProductionSchedule{
		ProductID: product.ID, ScheduledDate: day, PlannedQty: 3000,
	})
	require.NoError(t, err)

	cancelled, err := testDB.CreateSchedule(ctx, model.ProductionSchedule{
		ProductID: product.ID, ScheduledDate: day, PlannedQty: 5000,
	})
	require.NoError(t, err)
	_, err = testDB.UpdateScheduleStatus(ctx, cancelled.ID, model.ScheduleCancelled)
	require.NoError(t, err)

	load, err := testDB.ScheduledLoad(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), load)

	// A different day sums to zero.
	load, err = testDB.ScheduledLoad(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), load)
}

func TestBOMComponentsJoinInventory(t *testing.T) {
	ctx := context.Background()

	product, err := testDB.CreateProduct(ctx, model.Product{
		Code: "P-" + uuid.New().String()[:8], Name: "Sourdough", Unit: "pcs",
	})
	require.NoError(t, err)

	flour, err := testDB.CreateMaterial(ctx, model.Material{
		Code: "M-A-" + uuid.New().String()[:8], Name: "Flour", Unit: "kg",
	})
	require.NoError(t, err)
	salt, err := testDB.CreateMaterial(ctx, model.Material{
		Code: "M-B-" + uuid.New().String()[:8], Name: "Salt", Unit: "kg",
	})
	require.NoError(t, err)

	require.NoError(t, testDB.CreateBOMLine(ctx, model.BOMLine{
		ProductID: product.ID, MaterialID: flour.ID,
		QuantityPerUnit: decimal.RequireFromString("0.5"),
	}))
	require.NoError(t, testDB.CreateBOMLine(ctx, model.BOMLine{
		ProductID: product.ID, MaterialID: salt.ID,
		QuantityPerUnit: decimal.RequireFromString("0.01"),
	}))

	// Only flour has an inventory row; salt must come back fail-closed.
	require.NoError(t, testDB.UpsertInventory(ctx, flour.ID, decimal.RequireFromString("400")))

	components, err := testDB.GetBOMComponents(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, components, 2)

	byID := make(map[uuid.UUID]model.BOMComponent, 2)
	for _, c := range components {
		byID[c.MaterialID] = c
	}
	assert.True(t, byID[flour.ID].HasInventory)
	assert.True(t, byID[flour.ID].OnHand.Equal(decimal.RequireFromString("400")))
	assert.False(t, byID[salt.ID].HasInventory)
	assert.True(t, byID[salt.ID].OnHand.IsZero())
}

func TestConsumeMaterialsFloorsAtZero(t *testing.T) {
	ctx := context.Background()

	sugar, err := testDB.CreateMaterial(ctx, model.Material{
		Code: "M-" + uuid.New().String()[:8], Name: "Sugar", Unit: "kg",
	})
	require.NoError(t, err)
	require.NoError(t, testDB.UpsertInventory(ctx, sugar.ID, decimal.RequireFromString("100")))

	err = testDB.ConsumeMaterials(ctx, []storage.MaterialDelta{
		{MaterialID: sugar.ID, Quantity: decimal.RequireFromString("30")},
	})
	require.NoError(t, err)

	inv, err := testDB.GetInventory(ctx, sugar.ID)
	require.NoError(t, err)
	assert.True(t, inv.OnHand.Equal(decimal.RequireFromString("70")))

	// Over-consumption clamps to zero instead of going negative.
	err = testDB.ConsumeMaterials(ctx, []storage.MaterialDelta{
		{MaterialID: sugar.ID, Quantity: decimal.RequireFromString("500")},
	})
	require.NoError(t, err)

	inv, err = testDB.GetInventory(ctx, sugar.ID)
	require.NoError(t, err)
	assert.True(t, inv.OnHand.IsZero())
}

func TestConsumeMaterialsUnknownMaterialRollsBack(t *testing.T) {
	ctx := context.Background()

	butter, err := testDB.CreateMaterial(ctx, model.Material{
		Code: "M-" + uuid.New().String()[:8], Name: "Butter", Unit: "kg",
	})
	require.NoError(t, err)
	require.NoError(t, testDB.UpsertInventory(ctx, butter.ID, decimal.RequireFromString("50")))

	err = testDB.ConsumeMaterials(ctx, []storage.MaterialDelta{
		{MaterialID: butter.ID, Quantity: decimal.RequireFromString("10")},
		{MaterialID: uuid.New(), Quantity: decimal.RequireFromString("1")},
	})
	require.ErrorIs(t, err, storage.ErrNotFound)

	// The first delta must not have been applied.
	inv, err := testDB.GetInventory(ctx, butter.ID)
	require.NoError(t, err)
	assert.True(t, inv.OnHand.Equal(decimal.RequireFromString("50")))
}

func TestOrderPlanCRUD(t *testing.T) {
	ctx := context.Background()

	plan, err := testDB.CreateOrderPlan(ctx, model.OrderPlan{
		CompanyName:   "Sunrise Bakery",
		ProductName:   "Rye Loaf",
		WorkType:      model.WorkOven,
		RepeatCount:   3,
		OrderQuantity: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PlanPlanned, plan.Status)

	got, err := testDB.GetOrderPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Bakery", got.CompanyName)
	assert.Nil(t, got.Weight)

	weight := 500.0
	got.Status = model.PlanInProduction
	got.Weight = &weight
	updated, err := testDB.UpdateOrderPlan(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, model.PlanInProduction, updated.Status)
	require.NotNil(t, updated.Weight)
	assert.Equal(t, 500.0, *updated.Weight)

	require.NoError(t, testDB.DeleteOrderPlan(ctx, plan.ID))

	_, err = testDB.GetOrderPlan(ctx, plan.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = testDB.DeleteOrderPlan(ctx, plan.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOperatorCRUD(t *testing.T) {
	ctx := context.Background()

	hash := "argon2id$test"
	op, err := testDB.CreateOperator(ctx, model.Operator{
		OperatorID: "planner-" + uuid.New().String()[:8],
		Name:       "Test Planner",
		Role:       model.RolePlanner,
		APIKeyHash: &hash,
	})
	require.NoError(t, err)

	got, err := testDB.GetOperatorByID(ctx, op.OperatorID)
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, model.RolePlanner, got.Role)
	require.NotNil(t, got.APIKeyHash)

	count, err := testDB.CountOperators(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)

	_, err = testDB.GetOperatorByID(ctx, "no-such-operator")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
