package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/planline-io/planline/internal/model"
)

// GetBOMComponents loads a product's bill of materials joined with current
// inventory. Materials with no inventory row come back with HasInventory
// false and zero on hand, so callers can fail closed on unconfigured stock.
func (db *DB) GetBOMComponents(ctx context.Context, productID uuid.UUID) ([]model.BOMComponent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT m.id, m.code, m.name, m.unit, b.quantity_per_unit,
		        COALESCE(i.on_hand, 0), (i.material_id IS NOT NULL)
		 FROM bom_lines b
		 JOIN materials m ON m.id = b.material_id
		 LEFT JOIN inventory i ON i.material_id = b.material_id
		 WHERE b.product_id = $1
		 ORDER BY m.code ASC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get bom components: %w", err)
	}
	defer rows.Close()

	var components []model.BOMComponent
	for rows.Next() {
		var c model.BOMComponent
		if err := rows.Scan(
			&c.MaterialID, &c.MaterialCode, &c.MaterialName, &c.Unit,
			&c.QuantityPerUnit, &c.OnHand, &c.HasInventory,
		); err != nil {
			return nil, fmt.Errorf("storage: scan bom component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// CreateBOMLine inserts or replaces one line of a product's bill of materials.
func (db *DB) CreateBOMLine(ctx context.Context, line model.BOMLine) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO bom_lines (product_id, material_id, quantity_per_unit)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (product_id, material_id) DO UPDATE SET quantity_per_unit = EXCLUDED.quantity_per_unit`,
		line.ProductID, line.MaterialID, line.QuantityPerUnit,
	)
	if err != nil {
		return fmt.Errorf("storage: create bom line: %w", err)
	}
	return nil
}
