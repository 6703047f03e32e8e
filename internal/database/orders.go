package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lavka/internal/models"
)

// CreateOrder сохраняет заказ и его строки одной транзакцией. Название и
// цена товара копируются в строку на момент создания.
func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, total_price, total_count, delivery_address, order_note, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.UserID,
		order.TotalPrice,
		order.TotalCount,
		order.DeliveryAddress,
		order.OrderNote,
		order.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = id
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, product_name, unit_price, quantity)
             VALUES (?, ?, ?, ?, ?)`,
			line.OrderID, line.ProductID, line.ProductName, line.UnitPrice, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	order.ID = id
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, total_price, total_count, delivery_address, order_note, status, created_at, updated_at
         FROM orders WHERE id = ?`, id,
	).Scan(
		&order.ID, &order.UserID, &order.TotalPrice, &order.TotalCount,
		&order.DeliveryAddress, &order.OrderNote, &order.Status,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	lines, err := db.getOrderLines(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (db *DB) getOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT order_id, product_id, product_name, unit_price, quantity
         FROM order_lines WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.OrderID, &line.ProductID, &line.ProductName, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// UpdateOrderStatus записывает новый статус без проверки переходов.
func (db *DB) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
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

// ListOrdersByStatus возвращает страницу заказов в порядке создания.
func (db *DB) ListOrdersByStatus(ctx context.Context, status string, offset, limit int) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, total_price, total_count, delivery_address, order_note, status, created_at, updated_at
         FROM orders WHERE status = ? ORDER BY id LIMIT ? OFFSET ?`,
		status, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (db *DB) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// GetAllOrders возвращает все заказы в порядке создания. Используется
// экспортом в Excel.
func (db *DB) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, total_price, total_count, delivery_address, order_note, status, created_at, updated_at
         FROM orders ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// GetUserOrders возвращает заказы пользователя, новые сверху.
func (db *DB) GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, total_price, total_count, delivery_address, order_note, status, created_at, updated_at
         FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.UserID, &order.TotalPrice, &order.TotalCount,
			&order.DeliveryAddress, &order.OrderNote, &order.Status,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
