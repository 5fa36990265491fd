// Package availability computes how much of a requested production quantity
// the current raw-material inventory can support, by propagating the
// product's bill of materials against on-hand stock.
package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/planline-io/planline/internal/model"
)

// BOMSource loads a product's bill of materials joined with inventory.
type BOMSource interface {
	GetBOMComponents(ctx context.Context, productID uuid.UUID) ([]model.BOMComponent, error)
}

// Resolver answers availability questions for production requests.
type Resolver struct {
	bom BOMSource
}

// NewResolver creates a Resolver.
func NewResolver(bom BOMSource) *Resolver {
	return &Resolver{bom: bom}
}

// AvailableQuantity returns the maximum number of units of the product that
// current inventory can support, capped at requestedQty.
//
// The computation is a min-across-constraints reduction: each material
// supports floor(onHand / quantityPerUnit) units, and the tightest material
// caps the result. The policy is fail-closed: a product with no configured
// BOM, or any required material with no inventory record at all, yields
// zero — missing configuration never overpromises.
func (r *Resolver) AvailableQuantity(ctx context.Context, productID uuid.UUID, requestedQty int64) (int64, error) {
	components, err := r.bom.GetBOMComponents(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("availability: bom for product %s: %w", productID, err)
	}
	if len(components) == 0 {
		return 0, nil
	}

	maxProducible := requestedQty
	for _, comp := range components {
		if !comp.HasInventory {
			return 0, nil
		}
		if comp.QuantityPerUnit.Sign() <= 0 {
			// Degenerate BOM line; it constrains nothing.
			continue
		}
		possible := comp.OnHand.Div(comp.QuantityPerUnit).Floor().IntPart()
		if possible < maxProducible {
			maxProducible = possible
		}
	}

	if maxProducible < 0 {
		return 0, nil
	}
	return maxProducible, nil
}

// MaterialRequirements reports, per BOM material, the quantity required to
// produce qty units against what is on hand. It gates nothing and mutates
// nothing; shortage rows let the caller explain why a request cannot be
// fully satisfied.
func (r *Resolver) MaterialRequirements(ctx context.Context, productID uuid.UUID, qty int64) ([]model.MaterialRequirement, error) {
	components, err := r.bom.GetBOMComponents(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("availability: bom for product %s: %w", productID, err)
	}

	requirements := make([]model.MaterialRequirement, 0, len(components))
	for _, comp := range components {
		required := comp.QuantityPerUnit.Mul(decimal.NewFromInt(qty))
		available := decimal.Zero
		if comp.HasInventory {
			available = comp.OnHand
		}
		shortage := required.Sub(available)
		if shortage.IsNegative() {
			shortage = decimal.Zero
		}
		requirements = append(requirements, model.MaterialRequirement{
			MaterialID:   comp.MaterialID,
			MaterialName: comp.MaterialName,
			MaterialCode: comp.MaterialCode,
			Required:     required,
			Available:    available,
			Shortage:     shortage,
			Unit:         comp.Unit,
		})
	}
	return requirements, nil
}
