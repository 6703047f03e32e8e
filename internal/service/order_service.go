package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"lavka/internal/domain"
	"lavka/internal/events"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

var ErrEmptyCart = errors.New("cart is empty")

type OrderService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
}

func NewOrderService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *OrderService {
	return &OrderService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

// Checkout превращает корзину в заказ. Строки заказа фиксируют текущие
// название и цену товара; корзина очищается только после успешной записи.
func (s *OrderService) Checkout(ctx context.Context, userID int64, address, note string) (*models.Order, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetCartContents(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		UserID:          userID,
		DeliveryAddress: address,
		OrderNote:       note,
		Status:          models.StatusPending,
	}
	for _, line := range lines {
		order.TotalPrice += line.Total
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.Price,
			Quantity:    line.Quantity,
		})
	}
	// Кол-во в заказе считаем позициями, как и в корзине, а не суммой штук.
	order.TotalCount = int64(len(order.Lines))

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	if _, err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("cart clear after checkout failed")
	}

	s.publishEvent(events.EventOrderCreated, order, "user", userID)
	s.enqueueSync(ctx, "order_created", order, "")

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// SetStatus перезаписывает статус заказа. Переходы не ограничены.
func (s *OrderService) SetStatus(ctx context.Context, orderID int64, status string) error {
	if err := s.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err == nil {
		s.publishEvent(events.EventOrderStatusChanged, order, "admin", 0)
		s.enqueueSync(ctx, "order_status", order, status)
	}
	return nil
}

func (s *OrderService) UserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.repo.GetUserOrders(ctx, userID)
}

func (s *OrderService) AllOrders(ctx context.Context) ([]models.Order, error) {
	return s.repo.GetAllOrders(ctx)
}

// OrdersPage возвращает страницу заказов статуса status и общее их число.
func (s *OrderService) OrdersPage(ctx context.Context, status string, offset, limit int) ([]models.Order, int64, error) {
	total, err := s.repo.CountOrdersByStatus(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	orders, err := s.repo.ListOrdersByStatus(ctx, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// RenderOrder — полная карточка заказа для админа.
func (s *OrderService) RenderOrder(order *models.Order, username string) string {
	address := order.DeliveryAddress
	if address == "" {
		address = "не указан"
	}
	note := order.OrderNote
	if note == "" {
		note = "не оставлен"
	}

	var items strings.Builder
	for _, line := range order.Lines {
		items.WriteString("\n")
		items.WriteString(line.ProductName)
		items.WriteString(" - ")
		items.WriteString(formatPrice(line.UnitPrice))
		items.WriteString(" × ")
		items.WriteString(strconv.FormatInt(line.Quantity, 10))
		items.WriteString(" = ")
		items.WriteString(formatPrice(line.UnitPrice * float64(line.Quantity)))
		items.WriteString("$")
	}

	var b strings.Builder
	b.WriteString("✅ Заказ #")
	b.WriteString(strconv.FormatInt(order.ID, 10))
	b.WriteString(" !\n\n")
	b.WriteString("Пользователь @")
	b.WriteString(username)
	b.WriteString("\n📦 Статус: ")
	b.WriteString(order.Status)
	b.WriteString("\n💳 Сумма: ")
	b.WriteString(formatPrice(order.TotalPrice))
	b.WriteString(" $\n🏠 Адрес: ")
	b.WriteString(address)
	b.WriteString("\n📝 Комментарий: ")
	b.WriteString(note)
	b.WriteString("\n\n🛒 Предметы: \n")
	b.WriteString(items.String())
	b.WriteString("\nОбщее кол-во: ")
	b.WriteString(strconv.FormatInt(order.TotalCount, 10))
	return b.String()
}

// RenderOrderShort — подтверждение оформления для покупателя.
func (s *OrderService) RenderOrderShort(order *models.Order) string {
	address := order.DeliveryAddress
	if address == "" {
		address = "не указан"
	}

	var b strings.Builder
	b.WriteString("✅ Заказ #")
	b.WriteString(strconv.FormatInt(order.ID, 10))
	b.WriteString(" успешно оформлен!\n\n")
	b.WriteString("Статус: ")
	b.WriteString(order.Status)
	b.WriteString("\nСумма: ")
	b.WriteString(formatPrice(order.TotalPrice))
	b.WriteString(" $\nАдрес: ")
	b.WriteString(address)
	b.WriteString("\n\nМы свяжемся с вами для уточнения деталей.")
	return b.String()
}

// RenderUserOrders — список заказов покупателя, новые сверху.
func (s *OrderService) RenderUserOrders(orders []models.Order) string {
	if len(orders) == 0 {
		return "📦 У вас пока нет заказов"
	}

	var b strings.Builder
	b.WriteString("📦 Ваши заказы:")
	for _, order := range orders {
		address := order.DeliveryAddress
		if address == "" {
			address = "Адрес не указан"
		}
		b.WriteString("\n\n🆔 #")
		b.WriteString(strconv.FormatInt(order.ID, 10))
		b.WriteString(" - ")
		b.WriteString(order.Status)
		b.WriteString("\n💳 ")
		b.WriteString(formatPrice(order.TotalPrice))
		b.WriteString(" $ - ")
		b.WriteString(order.CreatedAt.Format("02.01.2006"))
		b.WriteString("\n🏠 ")
		b.WriteString(address)
		b.WriteString("\n📊 - ")
		b.WriteString(order.Status)
	}
	return b.String()
}

func (s *OrderService) publishEvent(eventType string, order *models.Order, changedBy string, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.OrderEventPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalPrice:  order.TotalPrice,
		TotalCount:  order.TotalCount,
		Status:      order.Status,
		Address:     order.DeliveryAddress,
		Note:        order.OrderNote,
		ChangedBy:   changedBy,
		ChangedByID: changedByID,
		CreatedAt:   order.CreatedAt,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("order_id", order.ID).Msg("publish event error")
	}
}

func (s *OrderService) enqueueSync(ctx context.Context, taskType string, order *models.Order, status string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueTask(ctx, taskType, order.ID, order, status); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
