package service

import (
	"context"
	"testing"
	"time"

	"lavka/internal/database"
	"lavka/internal/events"
	"lavka/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderService(t *testing.T) (*OrderService, *database.DB, *mockEventBus, *mockSyncWorker) {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	bus := &mockEventBus{}
	worker := &mockSyncWorker{}
	return NewOrderService(db, bus, worker, &logger), db, bus, worker
}

func fillCart(t *testing.T, db *database.DB, userID int64, items map[int64]int64) {
	t.Helper()
	ctx := context.Background()
	cart, err := db.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	for productID, qty := range items {
		require.NoError(t, db.AddCartItem(ctx, cart.ID, productID, qty))
	}
}

func TestCheckout(t *testing.T) {
	svc, db, bus, worker := newOrderService(t)
	ctx := context.Background()

	a := seedProduct(t, db, "Чай", 5)
	b := seedProduct(t, db, "Кофе", 10)
	fillCart(t, db, 100, map[int64]int64{a.ID: 3, b.ID: 2})

	bus.On("PublishJSON", events.EventOrderCreated, mock.Anything).Return(nil)
	worker.On("EnqueueTask", mock.Anything, "order_created", mock.Anything, mock.Anything, "").Return(nil)

	order, err := svc.Checkout(ctx, 100, "ул. Ленина, 1", "не звонить")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, float64(35), order.TotalPrice)
	// кол-во позиций, а не штук: 3 чая + 2 кофе = 2 позиции
	assert.Equal(t, int64(2), order.TotalCount)
	require.Len(t, order.Lines, 2)

	// корзина очищена после оформления
	cart, err := db.GetOrCreateCart(ctx, 100)
	require.NoError(t, err)
	lines, err := db.GetCartContents(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	bus.AssertExpectations(t)
	worker.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, _, _, _ := newOrderService(t)

	_, err := svc.Checkout(context.Background(), 100, "адрес", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_SnapshotIndependent(t *testing.T) {
	svc, db, bus, worker := newOrderService(t)
	ctx := context.Background()

	p := seedProduct(t, db, "Чай", 5)
	fillCart(t, db, 100, map[int64]int64{p.ID: 1})

	bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	worker.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := svc.Checkout(ctx, 100, "", "")
	require.NoError(t, err)

	newPrice := 50.0
	require.NoError(t, db.UpdateProduct(ctx, p.ID, models.ProductUpdate{Price: &newPrice}))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(5), got.TotalPrice)
	assert.Equal(t, float64(5), got.Lines[0].UnitPrice)
}

func TestSetStatus(t *testing.T) {
	svc, db, bus, worker := newOrderService(t)
	ctx := context.Background()

	p := seedProduct(t, db, "Чай", 5)
	fillCart(t, db, 100, map[int64]int64{p.ID: 1})
	bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	worker.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := svc.Checkout(ctx, 100, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, order.ID, models.StatusDelivered))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)

	bus.AssertCalled(t, "PublishJSON", events.EventOrderStatusChanged, mock.Anything)
	worker.AssertCalled(t, "EnqueueTask", mock.Anything, "order_status", order.ID, mock.Anything, models.StatusDelivered)
}

func TestOrdersPage(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		order := &models.Order{UserID: 100, Status: models.StatusPending}
		require.NoError(t, db.CreateOrder(ctx, order))
	}

	orders, total, err := svc.OrdersPage(ctx, models.StatusPending, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, orders, 1)
}

func TestRenderOrderShort(t *testing.T) {
	svc, _, _, _ := newOrderService(t)

	order := &models.Order{
		ID:         7,
		Status:     models.StatusPending,
		TotalPrice: 35,
	}
	want := "✅ Заказ #7 успешно оформлен!\n\n" +
		"Статус: Ожидается\n" +
		"Сумма: 35 $\n" +
		"Адрес: не указан\n\n" +
		"Мы свяжемся с вами для уточнения деталей."
	assert.Equal(t, want, svc.RenderOrderShort(order))
}

func TestRenderOrder(t *testing.T) {
	svc, _, _, _ := newOrderService(t)

	order := &models.Order{
		ID:              3,
		Status:          models.StatusPending,
		TotalPrice:      15,
		TotalCount:      3,
		DeliveryAddress: "ул. Ленина, 1",
		Lines: []models.OrderLine{
			{ProductName: "Чай", UnitPrice: 5, Quantity: 3},
		},
	}
	got := svc.RenderOrder(order, "ivan")
	assert.Contains(t, got, "✅ Заказ #3 !")
	assert.Contains(t, got, "Пользователь @ivan")
	assert.Contains(t, got, "Чай - 5 × 3 = 15$")
	assert.Contains(t, got, "Общее кол-во: 3")
	assert.Contains(t, got, "📝 Комментарий: не оставлен")
}

func TestRenderUserOrders(t *testing.T) {
	svc, _, _, _ := newOrderService(t)

	assert.Equal(t, "📦 У вас пока нет заказов", svc.RenderUserOrders(nil))

	orders := []models.Order{
		{ID: 1, Status: models.StatusDelivered, TotalPrice: 10, CreatedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
	}
	got := svc.RenderUserOrders(orders)
	assert.Contains(t, got, "📦 Ваши заказы:")
	assert.Contains(t, got, "🆔 #1 - Доставлен")
	assert.Contains(t, got, "💳 10 $ - 14.03.2025")
	assert.Contains(t, got, "🏠 Адрес не указан")
}
