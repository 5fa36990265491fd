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

// CreateProduct inserts a new product.
func (db *DB) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO products (id, code, name, unit, created_at) VALUES ($1, $2, $3, $4, $5)`,
		product.ID, product.Code, product.Name, product.Unit, product.CreatedAt,
	)
	if err != nil {
		return model.Product{}, fmt.Errorf("storage: create product: %w", err)
	}
	return product, nil
}

// GetProduct retrieves a product by ID.
func (db *DB) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var p model.Product
	err := db.pool.QueryRow(ctx,
		`SELECT id, code, name, unit, created_at FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("storage: product %s: %w", id, ErrNotFound)
		}
		return model.Product{}, fmt.Errorf("storage: get product: %w", err)
	}
	return p, nil
}

// ListProducts returns all products ordered by code.
func (db *DB) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, code, name, unit, created_at FROM products ORDER BY code ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateMaterial inserts a new raw material.
func (db *DB) CreateMaterial(ctx context.Context, material model.Material) (model.Material, error) {
	if material.ID == uuid.Nil {
		material.ID = uuid.New()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO materials (id, code, name, unit, created_at) VALUES ($1, $2, $3, $4, $5)`,
		material.ID, material.Code, material.Name, material.Unit, material.CreatedAt,
	)
	if err != nil {
		return model.Material{}, fmt.Errorf("storage: create material: %w", err)
	}
	return material, nil
}
