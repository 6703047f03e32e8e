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

// GetOrCreateCart возвращает корзину пользователя, создавая её при первом
// обращении. Проигравший гонку вставки перечитывает строку победителя.
func (db *DB) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := db.getCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
		userID, now, now,
	)
	if err != nil {
		if isConstraintErr(err) {
			return db.getCartByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.Cart{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

func (db *DB) getCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?`,
		userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

// AddCartItem добавляет товар в корзину. Повторное добавление наращивает
// количество той же строки; сумма ограничена models.MaxCartItemQuantity.
func (db *DB) AddCartItem(ctx context.Context, cartID, productID, quantity int64) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity, created_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(cart_id, product_id) DO UPDATE SET
                quantity = MIN(quantity + excluded.quantity, ?)`
	_, err := db.ExecContext(ctx, query, cartID, productID, quantity, time.Now(), int64(models.MaxCartItemQuantity))
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// UpdateCartItem частично обновляет позицию по её id: nil-поле не трогает
// колонку. Количество ограничено models.MaxCartItemQuantity, ноль и меньше
// удаляет строку.
func (db *DB) UpdateCartItem(ctx context.Context, itemID int64, upd models.CartItemUpdate) error {
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		result, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
		if err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
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

	var sets []string
	var args []interface{}

	if upd.Quantity != nil {
		quantity := *upd.Quantity
		if quantity > models.MaxCartItemQuantity {
			quantity = models.MaxCartItemQuantity
		}
		sets = append(sets, "quantity = ?")
		args = append(args, quantity)
	}
	if upd.ProductID != nil {
		sets = append(sets, "product_id = ?")
		args = append(args, *upd.ProductID)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, itemID)

	query := `UPDATE cart_items SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
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

// RemoveCartItem убирает товар из корзины и сообщает, была ли строка.
func (db *DB) RemoveCartItem(ctx context.Context, cartID, productID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCart удаляет все позиции корзины. Возвращает false, если удалять
// было нечего.
func (db *DB) ClearCart(ctx context.Context, cartID int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	if err != nil {
		return false, fmt.Errorf("failed to clear cart: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to clear cart: %w", err)
	}
	return affected > 0, nil
}

// GetCartContents возвращает позиции корзины с данными товара в порядке
// добавления строк.
func (db *DB) GetCartContents(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	query := `SELECT ci.id, ci.product_id, p.name, p.price, ci.quantity
              FROM cart_items ci
              JOIN products p ON p.id = ci.product_id
              WHERE ci.cart_id = ?
              ORDER BY ci.id`
	rows, err := db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart contents: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ItemID, &line.ProductID, &line.Name, &line.Price, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		line.Total = line.Price * float64(line.Quantity)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (db *DB) GetCartItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := db.QueryRowContext(ctx,
		`SELECT id, cart_id, product_id, quantity, created_at
         FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, productID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &item, nil
}
