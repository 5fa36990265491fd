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

// CreateShiftModel inserts a new shift model.
func (db *DB) CreateShiftModel(ctx context.Context, shift model.ShiftModel) (model.ShiftModel, error) {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now().UTC()
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = now
	}
	shift.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO shift_models (id, name, shifts_per_day, minutes_per_shift, cleanup_minutes,
		                           changeover_minutes, speed_per_minute, defect_rate, is_active,
		                           created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		shift.ID, shift.Name, shift.ShiftsPerDay, shift.MinutesPerShift, shift.CleanupMinutes,
		shift.ChangeoverMinutes, shift.SpeedPerMinute, shift.DefectRate, shift.IsActive,
		shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return model.ShiftModel{}, fmt.Errorf("storage: create shift model: %w", err)
	}
	return shift, nil
}

// GetShiftModel retrieves a shift model by ID.
func (db *DB) GetShiftModel(ctx context.Context, id uuid.UUID) (model.ShiftModel, error) {
	var s model.ShiftModel
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, shifts_per_day, minutes_per_shift, cleanup_minutes,
		        changeover_minutes, speed_per_minute, defect_rate, is_active, created_at, updated_at
		 FROM shift_models WHERE id = $1`, id,
	).Scan(
		&s.ID, &s.Name, &s.ShiftsPerDay, &s.MinutesPerShift, &s.CleanupMinutes,
		&s.ChangeoverMinutes, &s.SpeedPerMinute, &s.DefectRate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShiftModel{}, fmt.Errorf("storage: shift model %s: %w", id, ErrNotFound)
		}
		return model.ShiftModel{}, fmt.Errorf("storage: get shift model: %w", err)
	}
	return s, nil
}

// GetActiveShiftModel retrieves the current active shift model. At most one
// model is active at a time; if several are flagged (a transient state during
// activation) the most recently updated wins.
func (db *DB) GetActiveShiftModel(ctx context.Context) (model.ShiftModel, error) {
	var s model.ShiftModel
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, shifts_per_day, minutes_per_shift, cleanup_minutes,
		        changeover_minutes, speed_per_minute, defect_rate, is_active, created_at, updated_at
		 FROM shift_models WHERE is_active ORDER BY updated_at DESC LIMIT 1`,
	).Scan(
		&s.ID, &s.Name, &s.ShiftsPerDay, &s.MinutesPerShift, &s.CleanupMinutes,
		&s.ChangeoverMinutes, &s.SpeedPerMinute, &s.DefectRate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShiftModel{}, fmt.Errorf("storage: active shift model: %w", ErrNotFound)
		}
		return model.ShiftModel{}, fmt.Errorf("storage: get active shift model: %w", err)
	}
	return s, nil
}

// ListShiftModels returns all shift models, newest first.
func (db *DB) ListShiftModels(ctx context.Context) ([]model.ShiftModel, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, shifts_per_day, minutes_per_shift, cleanup_minutes,
		        changeover_minutes, speed_per_minute, defect_rate, is_active, created_at, updated_at
		 FROM shift_models ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list shift models: %w", err)
	}
	defer rows.Close()

	var shifts []model.ShiftModel
	for rows.Next() {
		var s model.ShiftModel
		if err := rows.Scan(
			&s.ID, &s.Name, &s.ShiftsPerDay, &s.MinutesPerShift, &s.CleanupMinutes,
			&s.ChangeoverMinutes, &s.SpeedPerMinute, &s.DefectRate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan shift model: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// ActivateShiftModel marks one shift model active and deactivates the rest,
// atomically within a single transaction. Returns the activated model.
func (db *DB) ActivateShiftModel(ctx context.Context, id uuid.UUID) (model.ShiftModel, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.ShiftModel{}, fmt.Errorf("storage: begin activate shift tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE shift_models SET is_active = false, updated_at = now() WHERE is_active AND id <> $1`, id,
	); err != nil {
		return model.ShiftModel{}, fmt.Errorf("storage: deactivate shift models: %w", err)
	}

	var s model.ShiftModel
	err = tx.QueryRow(ctx,
		`UPDATE shift_models SET is_active = true, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, shifts_per_day, minutes_per_shift, cleanup_minutes,
		           changeover_minutes, speed_per_minute, defect_rate, is_active, created_at, updated_at`,
		id,
	).Scan(
		&s.ID, &s.Name, &s.ShiftsPerDay, &s.MinutesPerShift, &s.CleanupMinutes,
		&s.ChangeoverMinutes, &s.SpeedPerMinute, &s.DefectRate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShiftModel{}, fmt.Errorf("storage: shift model %s: %w", id, ErrNotFound)
		}
		return model.ShiftModel{}, fmt.Errorf("storage: activate shift model: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.ShiftModel{}, fmt.Errorf("storage: commit activate shift tx: %w", err)
	}
	return s, nil
}
