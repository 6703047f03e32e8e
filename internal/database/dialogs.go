package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lavka/internal/models"
)

// FindDialogBetween ищет диалог между двумя пользователями в любом порядке
// участников.
func (db *DB) FindDialogBetween(ctx context.Context, userA, userB int64) (*models.Dialog, error) {
	var d models.Dialog
	err := db.QueryRowContext(ctx,
		`SELECT id, user1_id, user2_id, is_read, created_at, updated_at
         FROM dialogs
         WHERE (user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)`,
		userA, userB, userB, userA,
	).Scan(&d.ID, &d.User1ID, &d.User2ID, &d.IsRead, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dialog: %w", err)
	}
	return &d, nil
}

// CreateDialog создаёт диалог клиент-админ. Повторный вызов для той же пары
// возвращает существующий диалог.
func (db *DB) CreateDialog(ctx context.Context, userID, adminID int64) (*models.Dialog, error) {
	if d, err := db.FindDialogBetween(ctx, userID, adminID); err == nil {
		return d, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO dialogs (user1_id, user2_id, is_read, created_at, updated_at)
         VALUES (?, ?, 1, ?, ?)`,
		userID, adminID, now, now,
	)
	if err != nil {
		if isConstraintErr(err) {
			return db.FindDialogBetween(ctx, userID, adminID)
		}
		return nil, fmt.Errorf("failed to create dialog: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.Dialog{ID: id, User1ID: userID, User2ID: adminID, IsRead: true, CreatedAt: now, UpdatedAt: now}, nil
}

// AddDialogMessage записывает сообщение и помечает диалог непрочитанным,
// если писал клиент, и прочитанным, если ответил админ.
func (db *DB) AddDialogMessage(ctx context.Context, dialogID, senderID int64, content string) (*models.Message, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var d models.Dialog
	err = tx.QueryRowContext(ctx,
		`SELECT id, user1_id, user2_id, is_read FROM dialogs WHERE id = ?`, dialogID,
	).Scan(&d.ID, &d.User1ID, &d.User2ID, &d.IsRead)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dialog: %w", err)
	}

	if senderID != d.User1ID && senderID != d.User2ID {
		return nil, fmt.Errorf("sender %d is not a dialog participant", senderID)
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO messages (dialog_id, sender_id, content, created_at) VALUES (?, ?, ?, ?)`,
		dialogID, senderID, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}

	// user1 — клиент, user2 — админ
	isRead := senderID == d.User2ID
	_, err = tx.ExecContext(ctx,
		`UPDATE dialogs SET is_read = ?, updated_at = ? WHERE id = ?`,
		isRead, now, dialogID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update dialog: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.Message{ID: id, DialogID: dialogID, SenderID: senderID, Content: content, CreatedAt: now}, nil
}

// CountDialogsForAdmin считает нагрузку админа: диалоги, где он ждёт ответа
// клиенту. Прочитанные диалоги нагрузкой не считаются.
func (db *DB) CountDialogsForAdmin(ctx context.Context, adminID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dialogs WHERE user2_id = ? AND is_read = 0`, adminID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dialogs: %w", err)
	}
	return count, nil
}

// GetUnreadDialogs возвращает страницу непрочитанных диалогов админа,
// свежие сверху.
func (db *DB) GetUnreadDialogs(ctx context.Context, adminID int64, limit, offset int) ([]models.Dialog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user1_id, user2_id, is_read, created_at, updated_at
         FROM dialogs WHERE user2_id = ? AND is_read = 0
         ORDER BY updated_at DESC
         LIMIT ? OFFSET ?`,
		adminID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get unread dialogs: %w", err)
	}
	defer rows.Close()

	var dialogs []models.Dialog
	for rows.Next() {
		var d models.Dialog
		if err := rows.Scan(&d.ID, &d.User1ID, &d.User2ID, &d.IsRead, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dialog: %w", err)
		}
		dialogs = append(dialogs, d)
	}
	return dialogs, rows.Err()
}

func (db *DB) GetDialog(ctx context.Context, id int64) (*models.Dialog, error) {
	var d models.Dialog
	err := db.QueryRowContext(ctx,
		`SELECT id, user1_id, user2_id, is_read, created_at, updated_at
         FROM dialogs WHERE id = ?`, id,
	).Scan(&d.ID, &d.User1ID, &d.User2ID, &d.IsRead, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dialog: %w", err)
	}
	return &d, nil
}

// GetDialogMessages возвращает переписку в хронологическом порядке.
func (db *DB) GetDialogMessages(ctx context.Context, dialogID int64) ([]models.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, dialog_id, sender_id, content, created_at
         FROM messages WHERE dialog_id = ? ORDER BY id`,
		dialogID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.DialogID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
