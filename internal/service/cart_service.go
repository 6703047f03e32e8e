package service

import (
	"context"
	"strconv"
	"strings"

	"lavka/internal/domain"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

type CartService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewCartService(repo domain.Repository, logger *zerolog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		logger: logger,
	}
}

// formatPrice печатает цену без хвостовых нулей: 3.5, 10, 0.25.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AddProduct кладёт товар в корзину пользователя. Повторное добавление того
// же товара наращивает количество существующей строки.
func (s *CartService) AddProduct(ctx context.Context, userID, productID int64) error {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return err
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.AddCartItem(ctx, cart.ID, productID, 1); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Int64("product_id", productID).Msg("cart add error")
		return err
	}
	return nil
}

func (s *CartService) RemoveProduct(ctx context.Context, userID, productID int64) (bool, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.repo.RemoveCartItem(ctx, cart.ID, productID)
}

// UpdateItem частично обновляет позицию по её id: количество и/или замена
// товара. Незаполненные поля не трогаются.
func (s *CartService) UpdateItem(ctx context.Context, itemID int64, upd models.CartItemUpdate) error {
	if upd.ProductID != nil {
		if _, err := s.repo.GetProduct(ctx, *upd.ProductID); err != nil {
			return err
		}
	}
	return s.repo.UpdateCartItem(ctx, itemID, upd)
}

// ChangeQuantity сдвигает количество на delta. Падение до нуля удаляет
// строку и возвращает nil.
func (s *CartService) ChangeQuantity(ctx context.Context, userID, productID, delta int64) (*models.CartLine, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetCartItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}

	newQty := item.Quantity + delta
	if err := s.repo.UpdateCartItem(ctx, item.ID, models.CartItemUpdate{Quantity: &newQty}); err != nil {
		return nil, err
	}
	if newQty <= 0 {
		return nil, nil
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if newQty > models.MaxCartItemQuantity {
		newQty = models.MaxCartItemQuantity
	}
	return &models.CartLine{
		ItemID:    item.ID,
		ProductID: productID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  newQty,
		Total:     product.Price * float64(newQty),
	}, nil
}

// Clear опустошает корзину. Возвращает false, если корзина и так была пуста.
func (s *CartService) Clear(ctx context.Context, userID int64) (bool, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.repo.ClearCart(ctx, cart.ID)
}

// GetTotal возвращает содержимое корзины и итог. ItemsCount — количество
// строк, не сумма количеств.
func (s *CartService) GetTotal(ctx context.Context, userID int64) (*models.CartTotal, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetCartContents(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	total := &models.CartTotal{
		ItemsCount: int64(len(lines)),
		Items:      lines,
	}
	for _, line := range lines {
		total.TotalPrice += line.Total
	}
	return total, nil
}

// RenderCaption собирает текст корзины для показа пользователю.
func (s *CartService) RenderCaption(total *models.CartTotal) string {
	if total == nil || len(total.Items) == 0 {
		return "🛒 Ваша корзина пуста"
	}

	var b strings.Builder
	b.WriteString("🛒 Ваша корзина:")
	for _, item := range total.Items {
		b.WriteString("\n")
		b.WriteString(item.Name)
		b.WriteString(" - ")
		b.WriteString(strconv.FormatInt(item.Quantity, 10))
		b.WriteString(" × ")
		b.WriteString(formatPrice(item.Price))
		b.WriteString(" $ = ")
		b.WriteString(formatPrice(item.Total))
		b.WriteString(" $")
	}
	b.WriteString("\n\n💳 Итого: ")
	b.WriteString(formatPrice(total.TotalPrice))
	b.WriteString(" $")
	return b.String()
}
