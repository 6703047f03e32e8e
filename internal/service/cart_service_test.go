package service

import (
	"context"
	"testing"

	"lavka/internal/database"
	"lavka/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) (*CartService, *database.DB) {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	return NewCartService(db, &logger), db
}

func TestCartService_AddProductMerges(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Чай", 3.5)

	require.NoError(t, svc.AddProduct(ctx, 100, p.ID))
	require.NoError(t, svc.AddProduct(ctx, 100, p.ID))

	total, err := svc.GetTotal(ctx, 100)
	require.NoError(t, err)
	require.Len(t, total.Items, 1)
	assert.Equal(t, int64(2), total.Items[0].Quantity)
}

func TestCartService_AddUnknownProduct(t *testing.T) {
	svc, _ := newCartService(t)

	err := svc.AddProduct(context.Background(), 100, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCartService_Totals(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	a := seedProduct(t, db, "Чай", 5)
	b := seedProduct(t, db, "Кофе", 10)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AddProduct(ctx, 100, a.ID))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.AddProduct(ctx, 100, b.ID))
	}

	total, err := svc.GetTotal(ctx, 100)
	require.NoError(t, err)
	// две строки, не пять штук
	assert.Equal(t, int64(2), total.ItemsCount)
	assert.Equal(t, float64(35), total.TotalPrice)
}

func TestCartService_UpdateItem(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	tea := seedProduct(t, db, "Чай", 3)
	coffee := seedProduct(t, db, "Кофе", 5)

	require.NoError(t, svc.AddProduct(ctx, 100, tea.ID))
	total, err := svc.GetTotal(ctx, 100)
	require.NoError(t, err)
	require.Len(t, total.Items, 1)
	itemID := total.Items[0].ItemID

	// замена товара без указания количества оставляет количество прежним
	qty := int64(4)
	require.NoError(t, svc.UpdateItem(ctx, itemID, models.CartItemUpdate{Quantity: &qty}))
	require.NoError(t, svc.UpdateItem(ctx, itemID, models.CartItemUpdate{ProductID: &coffee.ID}))

	total, err = svc.GetTotal(ctx, 100)
	require.NoError(t, err)
	require.Len(t, total.Items, 1)
	assert.Equal(t, coffee.ID, total.Items[0].ProductID)
	assert.Equal(t, int64(4), total.Items[0].Quantity)
	assert.Equal(t, float64(20), total.Items[0].Total)

	// несуществующий товар в обновлении отклоняется
	badProduct := int64(9999)
	err = svc.UpdateItem(ctx, itemID, models.CartItemUpdate{ProductID: &badProduct})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCartService_RemoveThenClear(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Чай", 3)

	require.NoError(t, svc.AddProduct(ctx, 100, p.ID))

	removed, err := svc.RemoveProduct(ctx, 100, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveProduct(ctx, 100, p.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, svc.AddProduct(ctx, 100, p.ID))

	cleared, err := svc.Clear(ctx, 100)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = svc.Clear(ctx, 100)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestCartService_ChangeQuantity(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Чай", 3)

	require.NoError(t, svc.AddProduct(ctx, 100, p.ID))

	line, err := svc.ChangeQuantity(ctx, 100, p.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, int64(3), line.Quantity)
	assert.Equal(t, float64(9), line.Total)

	// падение до нуля удаляет строку
	line, err = svc.ChangeQuantity(ctx, 100, p.ID, -3)
	require.NoError(t, err)
	assert.Nil(t, line)

	total, err := svc.GetTotal(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, total.Items)
}

func TestCartService_ChangeQuantityMissing(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "Чай", 3)

	_, err := svc.ChangeQuantity(context.Background(), 100, p.ID, 1)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCartService_RenderCaption(t *testing.T) {
	svc, _ := newCartService(t)

	total := &models.CartTotal{
		ItemsCount: 2,
		TotalPrice: 17,
		Items: []models.CartLine{
			{Name: "Чай", Price: 3.5, Quantity: 2, Total: 7},
			{Name: "Кофе", Price: 10, Quantity: 1, Total: 10},
		},
	}

	want := "🛒 Ваша корзина:\n" +
		"Чай - 2 × 3.5 $ = 7 $\n" +
		"Кофе - 1 × 10 $ = 10 $\n" +
		"\n💳 Итого: 17 $"
	assert.Equal(t, want, svc.RenderCaption(total))
}

func TestCartService_RenderCaptionEmpty(t *testing.T) {
	svc, _ := newCartService(t)
	assert.Equal(t, "🛒 Ваша корзина пуста", svc.RenderCaption(&models.CartTotal{}))
	assert.Equal(t, "🛒 Ваша корзина пуста", svc.RenderCaption(nil))
}
