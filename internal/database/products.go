package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lavka/internal/models"
)

func (db *DB) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `INSERT INTO products (name, description, price, image_file_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageFileID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT id, name, description, price, image_file_id, created_at, updated_at
              FROM products WHERE id = ?`
	return db.queryProduct(ctx, query, id)
}

func (db *DB) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	query := `SELECT id, name, description, price, image_file_id, created_at, updated_at
              FROM products WHERE name = ?`
	return db.queryProduct(ctx, query, name)
}

func (db *DB) queryProduct(ctx context.Context, query string, args ...interface{}) (*models.Product, error) {
	var p models.Product
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageFileID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// GetAllProducts возвращает каталог в порядке добавления.
func (db *DB) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	query := `SELECT id, name, description, price, image_file_id, created_at, updated_at
              FROM products ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageFileID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// UpdateProduct применяет только заполненные поля. Пустое обновление
// не выполняет запрос вовсе, updated_at остаётся прежним.
func (db *DB) UpdateProduct(ctx context.Context, id int64, upd models.ProductUpdate) error {
	var sets []string
	var args []interface{}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *upd.Price)
	}
	if upd.ImageFileID != nil {
		sets = append(sets, "image_file_id = ?")
		args = append(args, *upd.ImageFileID)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id)

	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct удаляет товар. Позиции корзин, ссылающиеся на него,
// уходят каскадом; снимки в order_lines остаются.
func (db *DB) DeleteProduct(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedProducts добавляет стартовые товары, пропуская уже существующие имена.
func (db *DB) SeedProducts(ctx context.Context, products []models.Product) (int, error) {
	created := 0
	for i := range products {
		p := products[i]
		_, err := db.GetProductByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		if err := db.CreateProduct(ctx, &p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
