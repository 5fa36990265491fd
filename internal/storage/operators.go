package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/planline-io/planline/internal/model"
)

// CreateOperator inserts a new operator.
func (db *DB) CreateOperator(ctx context.Context, op model.Operator) (model.Operator, error) {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO operators (id, operator_id, name, role, api_key_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		op.ID, op.OperatorID, op.Name, string(op.Role), op.APIKeyHash, op.CreatedAt,
	)
	if err != nil {
		return model.Operator{}, fmt.Errorf("storage: create operator: %w", err)
	}
	return op, nil
}

// GetOperatorByID retrieves an operator by its external operator_id.
func (db *DB) GetOperatorByID(ctx context.Context, operatorID string) (model.Operator, error) {
	var op model.Operator
	err := db.pool.QueryRow(ctx,
		`SELECT id, operator_id, name, role, api_key_hash, created_at
		 FROM operators WHERE operator_id = $1`, operatorID,
	).Scan(&op.ID, &op.OperatorID, &op.Name, &op.Role, &op.APIKeyHash, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Operator{}, fmt.Errorf("storage: operator %s: %w", operatorID, ErrNotFound)
		}
		return model.Operator{}, fmt.Errorf("storage: get operator: %w", err)
	}
	return op, nil
}

// CountOperators returns the number of registered operators. Used at startup
// to decide whether to seed the bootstrap admin.
func (db *DB) CountOperators(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count operators: %w", err)
	}
	return count, nil
}
