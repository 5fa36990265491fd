package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/planline-io/planline/internal/model"
)

// MaterialDelta is one material consumption to apply against inventory.
type MaterialDelta struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// GetInventory retrieves the on-hand stock record for one material.
func (db *DB) GetInventory(ctx context.Context, materialID uuid.UUID) (model.Inventory, error) {
	var inv model.Inventory
	err := db.pool.QueryRow(ctx,
		`SELECT i.material_id, i.on_hand, m.unit, i.updated_at
		 FROM inventory i JOIN materials m ON m.id = i.material_id
		 WHERE i.material_id = $1`, materialID,
	).Scan(&inv.MaterialID, &inv.OnHand, &inv.Unit, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Inventory{}, fmt.Errorf("storage: inventory %s: %w", materialID, ErrNotFound)
		}
		return model.Inventory{}, fmt.Errorf("storage: get inventory: %w", err)
	}
	return inv, nil
}

// UpsertInventory sets the on-hand stock for a material, creating the record
// if it does not exist.
func (db *DB) UpsertInventory(ctx context.Context, materialID uuid.UUID, onHand decimal.Decimal) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO inventory (material_id, on_hand, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (material_id) DO UPDATE SET on_hand = EXCLUDED.on_hand, updated_at = now()`,
		materialID, onHand,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert inventory: %w", err)
	}
	return nil
}

// ConsumeMaterials deducts the given quantities from inventory atomically
// within a single transaction. On-hand stock floors at zero rather than going
// negative; a delta against a material with no inventory row is an error.
func (db *DB) ConsumeMaterials(ctx context.Context, deltas []MaterialDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin consume tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range deltas {
		tag, err := tx.Exec(ctx,
			`UPDATE inventory SET on_hand = GREATEST(on_hand - $1, 0), updated_at = now()
			 WHERE material_id = $2`,
			d.Quantity, d.MaterialID,
		)
		if err != nil {
			return fmt.Errorf("storage: consume material %s: %w", d.MaterialID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("storage: inventory %s: %w", d.MaterialID, ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: commit consume tx: %w", err)
	}
	return nil
}
