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

// CreateSchedule inserts a new production schedule entry.
func (db *DB) CreateSchedule(ctx context.Context, sched model.ProductionSchedule) (model.ProductionSchedule, error) {
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
	}
	if sched.Status == "" {
		sched.Status = model.SchedulePlanned
	}
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO production_schedules (id, product_id, scheduled_date, planned_qty, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sched.ID, sched.ProductID, sched.ScheduledDate, sched.PlannedQty, string(sched.Status), sched.CreatedAt,
	)
	if err != nil {
		return model.ProductionSchedule{}, fmt.Errorf("storage: create schedule: %w", err)
	}
	return sched, nil
}

// GetSchedule retrieves a schedule entry by ID.
func (db *DB) GetSchedule(ctx context.Context, id uuid.UUID) (model.ProductionSchedule, error) {
	var s model.ProductionSchedule
	err := db.pool.QueryRow(ctx,
		`SELECT id, product_id, scheduled_date, planned_qty, status, created_at
		 FROM production_schedules WHERE id = $1`, id,
	).Scan(&s.ID, &s.ProductID, &s.ScheduledDate, &s.PlannedQty, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProductionSchedule{}, fmt.Errorf("storage: schedule %s: %w", id, ErrNotFound)
		}
		return model.ProductionSchedule{}, fmt.Errorf("storage: get schedule: %w", err)
	}
	return s, nil
}

// ScheduledLoad returns the total planned quantity committed to a calendar
// day. Cancelled entries are excluded; a day with no entries sums to zero.
func (db *DB) ScheduledLoad(ctx context.Context, day time.Time) (int64, error) {
	var load int64
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(planned_qty), 0)
		 FROM production_schedules
		 WHERE scheduled_date = $1::date AND status <> $2`,
		day, string(model.ScheduleCancelled),
	).Scan(&load)
	if err != nil {
		return 0, fmt.Errorf("storage: scheduled load: %w", err)
	}
	return load, nil
}

// ListSchedulesByDate returns the schedule entries for one calendar day,
// cancelled entries included, in insertion order.
func (db *DB) ListSchedulesByDate(ctx context.Context, day time.Time) ([]model.ProductionSchedule, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, product_id, scheduled_date, planned_qty, status, created_at
		 FROM production_schedules WHERE scheduled_date = $1::date ORDER BY created_at ASC`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list schedules: %w", err)
	}
	defer rows.Close()

	var scheds []model.ProductionSchedule
	for rows.Next() {
		var s model.ProductionSchedule
		if err := rows.Scan(&s.ID, &s.ProductID, &s.ScheduledDate, &s.PlannedQty, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan schedule: %w", err)
		}
		scheds = append(scheds, s)
	}
	return scheds, rows.Err()
}

// UpdateScheduleStatus moves a schedule entry to a new lifecycle state.
func (db *DB) UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) (model.ProductionSchedule, error) {
	var s model.ProductionSchedule
	err := db.pool.QueryRow(ctx,
		`UPDATE production_schedules SET status = $1 WHERE id = $2
		 RETURNING id, product_id, scheduled_date, planned_qty, status, created_at`,
		string(status), id,
	).Scan(&s.ID, &s.ProductID, &s.ScheduledDate, &s.PlannedQty, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProductionSchedule{}, fmt.Errorf("storage: schedule %s: %w", id, ErrNotFound)
		}
		return model.ProductionSchedule{}, fmt.Errorf("storage: update schedule status: %w", err)
	}
	return s, nil
}
