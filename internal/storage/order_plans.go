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

// CreateOrderPlan inserts a new order plan.
func (db *DB) CreateOrderPlan(ctx context.Context, plan model.OrderPlan) (model.OrderPlan, error) {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Status == "" {
		plan.Status = model.PlanPlanned
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO order_plans (id, company_name, product_name, work_type, status, weight,
		                          repeat_progress, repeat_count, desired_date, delivery_date,
		                          order_quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		plan.ID, plan.CompanyName, plan.ProductName, string(plan.WorkType), string(plan.Status),
		plan.Weight, plan.RepeatProgress, plan.RepeatCount, plan.DesiredDate, plan.DeliveryDate,
		plan.OrderQuantity, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return model.OrderPlan{}, fmt.Errorf("storage: create order plan: %w", err)
	}
	return plan, nil
}

// GetOrderPlan retrieves an order plan by ID.
func (db *DB) GetOrderPlan(ctx context.Context, id uuid.UUID) (model.OrderPlan, error) {
	var p model.OrderPlan
	err := db.pool.QueryRow(ctx,
		`SELECT id, company_name, product_name, work_type, status, weight,
		        repeat_progress, repeat_count, desired_date, delivery_date,
		        order_quantity, created_at, updated_at
		 FROM order_plans WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.CompanyName, &p.ProductName, &p.WorkType, &p.Status, &p.Weight,
		&p.RepeatProgress, &p.RepeatCount, &p.DesiredDate, &p.DeliveryDate,
		&p.OrderQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OrderPlan{}, fmt.Errorf("storage: order plan %s: %w", id, ErrNotFound)
		}
		return model.OrderPlan{}, fmt.Errorf("storage: get order plan: %w", err)
	}
	return p, nil
}

// ListOrderPlans returns order plans, newest first, with pagination.
// limit is clamped to [1, 500] with a default of 100; offset must be non-negative.
func (db *DB) ListOrderPlans(ctx context.Context, limit, offset int) ([]model.OrderPlan, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, company_name, product_name, work_type, status, weight,
		        repeat_progress, repeat_count, desired_date, delivery_date,
		        order_quantity, created_at, updated_at
		 FROM order_plans ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list order plans: %w", err)
	}
	defer rows.Close()

	var plans []model.OrderPlan
	for rows.Next() {
		var p model.OrderPlan
		if err := rows.Scan(
			&p.ID, &p.CompanyName, &p.ProductName, &p.WorkType, &p.Status, &p.Weight,
			&p.RepeatProgress, &p.RepeatCount, &p.DesiredDate, &p.DeliveryDate,
			&p.OrderQuantity, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan order plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// UpdateOrderPlan writes the full row for a plan. The caller loads the
// current plan, applies its patch, and saves the merged result; the change
// tracker diffs the before and after images.
func (db *DB) UpdateOrderPlan(ctx context.Context, plan model.OrderPlan) (model.OrderPlan, error) {
	plan.UpdatedAt = time.Now().UTC()

	var p model.OrderPlan
	err := db.pool.QueryRow(ctx,
		`UPDATE order_plans
		 SET company_name = $1, product_name = $2, work_type = $3, status = $4, weight = $5,
		     repeat_progress = $6, repeat_count = $7, desired_date = $8, delivery_date = $9,
		     order_quantity = $10, updated_at = $11
		 WHERE id = $12
		 RETURNING id, company_name, product_name, work_type, status, weight,
		           repeat_progress, repeat_count, desired_date, delivery_date,
		           order_quantity, created_at, updated_at`,
		plan.CompanyName, plan.ProductName, string(plan.WorkType), string(plan.Status), plan.Weight,
		plan.RepeatProgress, plan.RepeatCount, plan.DesiredDate, plan.DeliveryDate,
		plan.OrderQuantity, plan.UpdatedAt, plan.ID,
	).Scan(
		&p.ID, &p.CompanyName, &p.ProductName, &p.WorkType, &p.Status, &p.Weight,
		&p.RepeatProgress, &p.RepeatCount, &p.DesiredDate, &p.DeliveryDate,
		&p.OrderQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OrderPlan{}, fmt.Errorf("storage: order plan %s: %w", plan.ID, ErrNotFound)
		}
		return model.OrderPlan{}, fmt.Errorf("storage: update order plan: %w", err)
	}
	return p, nil
}

// DeleteOrderPlan removes an order plan.
func (db *DB) DeleteOrderPlan(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM order_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete order plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: order plan %s: %w", id, ErrNotFound)
	}
	return nil
}
