package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lavka/internal/callback"
	"lavka/internal/metrics"
	"lavka/internal/models"
	"lavka/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Код статуса в токене страницы: токены несут только числа.
const (
	statusCodePending   = 0
	statusCodeDelivered = 1
)

func statusFromCode(code int64) string {
	if code == statusCodeDelivered {
		return models.StatusDelivered
	}
	return models.StatusPending
}

func statusToCode(status string) int64 {
	if status == models.StatusDelivered {
		return statusCodeDelivered
	}
	return statusCodePending
}

func statusTitle(status string) string {
	if status == models.StatusDelivered {
		return "Доставленные заказы:"
	}
	return "Поступившие заказы на обработку:"
}

// handleOrderConfirm — кнопка «Подтвердить заказ» в корзине: запускает
// оформление с вопроса о комментарии.
func (b *Bot) handleOrderConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	total, err := b.carts.GetTotal(ctx, cb.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to get cart")
		answer("❌ Не удалось прочитать корзину")
		return
	}
	if total.ItemsCount == 0 {
		answer("🛒 Ваша корзина пуста")
		return
	}

	b.startFlow(ctx, cb.Message.Chat.ID, cb.From.ID, flowCheckout, nil)
	b.sendMessage(cb.Message.Chat.ID, fmt.Sprintf(
		"💳 Оформление заказа на сумму: %s $\n\n📝 Введите комментарий к заказу (например, пожелания по доставке):\nИли нажмите /skip чтобы пропустить",
		formatPrice(total.TotalPrice)))
}

// handleFinalConfirm создаёт заказ из корзины по адресу и комментарию,
// собранным на шагах оформления.
func (b *Bot) handleFinalConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	userID := cb.From.ID

	state, err := b.state.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
	}
	if state == nil || state.CurrentStep != StateCheckoutConfirm {
		answer("❌ Заказ не найден. Начните оформление заново.")
		return
	}

	address := models.DataString(state.TempData, "address")
	note := models.DataString(state.TempData, "note")

	order, err := b.orders.Checkout(ctx, userID, address, note)
	if err != nil {
		b.clearState(ctx, userID)
		if errors.Is(err, service.ErrEmptyCart) {
			answer("🛒 Ваша корзина пуста")
			return
		}
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Checkout failed")
		b.editMessage(cb.Message.Chat.ID, cb.Message.MessageID, "❌ Не удалось оформить заказ. Попробуйте ещё раз.")
		return
	}

	metrics.IncOrderCreated()
	b.clearState(ctx, userID)
	b.editMessage(cb.Message.Chat.ID, cb.Message.MessageID, b.orders.RenderOrderShort(order))
}

// showOrdersPage рисует страницу заказов. messageID != 0 — редактирование
// существующего сообщения при листании.
func (b *Bot) showOrdersPage(ctx context.Context, chatID int64, messageID int, status string, page, pageSize int) bool {
	offset := page * pageSize

	orders, total, err := b.orders.OrdersPage(ctx, status, offset, pageSize)
	if err != nil {
		b.logger.Error().Err(err).Str("status", status).Msg("Failed to get orders page")
		b.sendMessage(chatID, "❌ Не удалось получить список заказов.")
		return false
	}
	if len(orders) == 0 {
		if messageID == 0 {
			b.sendMessage(chatID, "Заказов больше нет!")
		}
		return false
	}

	text := fmt.Sprintf("%s\nСтраница: %d\nОбщее кол-во: %d", statusTitle(status), page+1, total)

	var itemButtons []tgbotapi.InlineKeyboardButton
	for _, order := range orders {
		itemButtons = append(itemButtons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("#%d", order.ID), callback.Join(callback.OrderReceived, order.ID)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, itemButtons)

	// Сдвиг страницы всегда page*pageSize, вперёд и назад симметрично.
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Предыдущая",
			callback.Join(callback.OrderReceivedPrev, statusToCode(status), int64(pageSize), int64(page-1))))
	}
	if int64(offset+len(orders)) < total {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Следующая ➡️",
			callback.Join(callback.OrderReceivedNext, statusToCode(status), int64(pageSize), int64(page+1))))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	if messageID != 0 {
		if _, err := b.tg.EditMessage(chatID, messageID, text, &keyboard); err != nil {
			b.logger.Error().Err(err).Msg("Failed to edit orders page")
		}
		return true
	}
	if _, err := b.tg.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send orders page")
	}
	return true
}

func (b *Bot) handleOrdersPageNav(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	prefix := callback.OrderReceivedNext
	if !strings.HasPrefix(cb.Data, prefix) {
		prefix = callback.OrderReceivedPrev
	}

	nums, ok := callback.TrailingInts(cb.Data, prefix)
	if !ok || len(nums) != 3 {
		answer("❌ Неверный формат данных")
		return
	}
	status := statusFromCode(nums[0])
	pageSize := int(nums[1])
	page := int(nums[2])

	if !b.showOrdersPage(ctx, cb.Message.Chat.ID, cb.Message.MessageID, status, page, pageSize) {
		answer("Заказов больше нет!")
	}
}

func (b *Bot) handleOrderDetails(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	orderID, ok := callback.LastInt(cb.Data, callback.OrderReceived)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	order, err := b.orders.GetOrder(ctx, orderID)
	if err != nil {
		b.logger.Error().Err(err).Int64("order_id", orderID).Msg("Failed to get order")
		answer("❌ Заказ не найден")
		return
	}

	username := ""
	if user, err := b.users.GetUser(ctx, order.UserID); err == nil {
		username = user.Username
	}

	keyboard := orderStatusKeyboard(order.ID)
	if _, err := b.tg.SendWithInlineKeyboard(cb.Message.Chat.ID, b.orders.RenderOrder(order, username), keyboard); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send order details")
	}
}

func (b *Bot) handleOrderStatus(ctx context.Context, cb *tgbotapi.CallbackQuery, prefix, status string, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	orderID, ok := callback.LastInt(cb.Data, prefix)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	if err := b.orders.SetStatus(ctx, orderID, status); err != nil {
		b.logger.Error().Err(err).Int64("order_id", orderID).Msg("Failed to update order status")
		answer("❌ Заказ не найден")
		return
	}
	answer("Статус заказа изменён")
}
