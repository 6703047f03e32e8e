package database

import (
	"context"
	"testing"

	"lavka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := &models.User{TelegramID: 100, Username: "ivan", FullName: "Иван Петров"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err := db.GetUserByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ivan", got.Username)
	assert.Equal(t, "Иван Петров", got.FullName)

	// повторный /start обновляет профиль
	user.Username = "ivan_new"
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))
	got, err = db.GetUserByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ivan_new", got.Username)
}

func TestGetUserByTelegramID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetUserByTelegramID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{TelegramID: 100, Username: "a"}))
	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{TelegramID: 200, Username: "b"}))

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
