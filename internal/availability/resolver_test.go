package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline-io/planline/internal/model"
)

type fakeBOM struct {
	components map[uuid.UUID][]model.BOMComponent
	err        error
}

func (f *fakeBOM) GetBOMComponents(_ context.Context, productID uuid.UUID) ([]model.BOMComponent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.components[productID], nil
}

func component(name, qtyPer, onHand string, hasInventory bool) model.BOMComponent {
	return model.BOMComponent{
		MaterialID:      uuid.New(),
		MaterialCode:    "M-" + name,
		MaterialName:    name,
		Unit:            "kg",
		QuantityPerUnit: decimal.RequireFromString(qtyPer),
		OnHand:          decimal.RequireFromString(onHand),
		HasInventory:    hasInventory,
	}
}

func TestAvailableQuantityBottleneck(t *testing.T) {
	// Material A supports floor(500/0.5)=1000, B supports floor(800/0.3)=2666.
	// The tightest material caps a request for 2000 at 1000.
	productID := uuid.New()
	resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{
		productID: {
			component("flour", "0.5", "500", true),
			component("sugar", "0.3", "800", true),
		},
	}})

	got, err := resolver.AvailableQuantity(context.Background(), productID, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)
}

func TestAvailableQuantityCappedAtRequested(t *testing.T) {
	productID := uuid.New()
	resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{
		productID: {component("flour", "0.5", "500000", true)},
	}})

	got, err := resolver.AvailableQuantity(context.Background(), productID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got, "result never exceeds the requested quantity")
}

func TestAvailableQuantityNoBOMFailsClosed(t *testing.T) {
	resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{}})

	got, err := resolver.AvailableQuantity(context.Background(), uuid.New(), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "an unconfigured BOM confirms nothing producible")
}

func TestAvailableQuantityMissingInventoryFailsClosed(t *testing.T) {
	// One material with no inventory record zeroes the result no matter how
	// abundant the others are.
	productID := uuid.New()
	resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{
		productID: {
			component("flour", "0.5", "9999999", true),
			component("salt", "0.01", "0", false),
		},
	}})

	got, err := resolver.AvailableQuantity(context.Background(), productID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestAvailableQuantityMonotonicInOnHand(t *testing.T) {
	productID := uuid.New()
	prev := int64(-1)
	for _, onHand := range []string{"0", "10", "100", "250", "1000"} {
		resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{
			productID: {component("flour", "0.5", onHand, true)},
		}})
		got, err := resolver.AvailableQuantity(context.Background(), productID, 2000)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got, prev, "availability must not shrink as stock grows")
		prev = got
	}
}

func TestAvailableQuantitySourceErrorPropagates(t *testing.T) {
	wantErr := errors.New("connection reset")
	resolver := NewResolver(&fakeBOM{err: wantErr})

	_, err := resolver.AvailableQuantity(context.Background(), uuid.New(), 10)
	require.ErrorIs(t, err, wantErr)
}

func TestMaterialRequirementsShortage(t *testing.T) {
	productID := uuid.New()
	flour := component("flour", "0.5", "400", true)
	sugar := component("sugar", "0.3", "800", true)
	resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{
		productID: {flour, sugar},
	}})

	reqs, err := resolver.MaterialRequirements(context.Background(), productID, 1000)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	// 1000 units need 500 flour against 400 on hand: shortage 100.
	assert.Equal(t, flour.MaterialID, reqs[0].MaterialID)
	assert.True(t, reqs[0].Required.Equal(decimal.RequireFromString("500")), "required = %s", reqs[0].Required)
	assert.True(t, reqs[0].Available.Equal(decimal.RequireFromString("400")))
	assert.True(t, reqs[0].Shortage.Equal(decimal.RequireFromString("100")))

	// Sugar is abundant: shortage clamps to zero, never negative.
	assert.True(t, reqs[1].Required.Equal(decimal.RequireFromString("300")))
	assert.True(t, reqs[1].Shortage.IsZero())
}

func TestMaterialRequirementsMissingInventoryReportsZeroAvailable(t *testing.T) {
	productID := uuid.New()
	resolver := NewResolver(&fakeBOM{components: map[uuid.UUID][]model.BOMComponent{
		productID: {component("salt", "0.01", "0", false)},
	}})

	reqs, err := resolver.MaterialRequirements(context.Background(), productID, 100)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].Available.IsZero())
	assert.True(t, reqs[0].Shortage.Equal(decimal.RequireFromString("1")))
}
