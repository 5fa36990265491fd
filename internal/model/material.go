package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a finished good that can be scheduled for production.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// Material is a raw material consumed by production.
type Material struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// Inventory is the current on-hand stock for one material.
// Mutated by the consumption path only; the availability engine reads it.
type Inventory struct {
	MaterialID uuid.UUID       `json:"material_id"`
	OnHand     decimal.Decimal `json:"on_hand"`
	Unit       string          `json:"unit"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BOMLine is one line of a product's bill of materials: the quantity of a
// material needed to produce one unit of the product.
type BOMLine struct {
	ProductID       uuid.UUID       `json:"product_id"`
	MaterialID      uuid.UUID       `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// BOMComponent is a BOM line joined with its material and inventory,
// as loaded for availability computation. HasInventory distinguishes
// "no inventory row exists" (fail closed) from "on hand is zero".
type BOMComponent struct {
	MaterialID      uuid.UUID       `json:"material_id"`
	MaterialCode    string          `json:"material_code"`
	MaterialName    string          `json:"material_name"`
	Unit            string          `json:"unit"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	OnHand          decimal.Decimal `json:"on_hand"`
	HasInventory    bool            `json:"has_inventory"`
}

// MaterialRequirement reports, for one material, how much a production
// request needs versus what is on hand. Shortage is never negative.
type MaterialRequirement struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	MaterialCode string          `json:"material_code"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Shortage     decimal.Decimal `json:"shortage"`
	Unit         string          `json:"unit"`
}
