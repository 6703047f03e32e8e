package database

import (
	"context"
	"testing"

	"lavka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	p := &models.Product{Name: "Чай", Description: "Чёрный листовой", Price: 3.5}
	require.NoError(t, db.CreateProduct(ctx, p))
	assert.NotZero(t, p.ID)

	got, err := db.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Чай", got.Name)
	assert.Equal(t, 3.5, got.Price)

	byName, err := db.GetProductByName(ctx, "Чай")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	newPrice := 4.0
	newDesc := "Зелёный"
	err = db.UpdateProduct(ctx, p.ID, models.ProductUpdate{Price: &newPrice, Description: &newDesc})
	require.NoError(t, err)

	got, err = db.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Price)
	assert.Equal(t, "Зелёный", got.Description)
	assert.Equal(t, "Чай", got.Name) // незаполненное поле не тронуто

	require.NoError(t, db.DeleteProduct(ctx, p.ID))
	_, err = db.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	p := &models.Product{Name: "Кофе", Price: 5}
	require.NoError(t, db.CreateProduct(ctx, p))

	// пустое обновление не ошибка
	assert.NoError(t, db.UpdateProduct(ctx, p.ID, models.ProductUpdate{}))
}

func TestUpdateProduct_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	price := 1.0
	err := db.UpdateProduct(context.Background(), 9999, models.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedProducts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seed := []models.Product{
		{Name: "Чай", Price: 3},
		{Name: "Кофе", Price: 5},
	}

	created, err := db.SeedProducts(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// повторный засев ничего не добавляет
	created, err = db.SeedProducts(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	count, err := db.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
