package bot

import (
	"context"
	"strings"

	"lavka/internal/callback"
	"lavka/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleCallbackQuery разбирает токен кнопки. Более длинные префиксы
// проверяются раньше коротких, иначе received_orders_next_ утонет в
// received_orders_.
func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	cb := update.CallbackQuery
	data := cb.Data
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	// Убираем "часики" сразу; содержательный ответ кнопки шлём отдельно.
	answered := false
	answer := func(text string) {
		answered = true
		if err := b.tg.AnswerCallback(cb.ID, text); err != nil {
			b.logger.Error().Err(err).Msg("Failed to answer callback")
		}
	}
	defer func() {
		if !answered {
			answer("")
		}
	}()

	switch {
	case data == callback.OrderConfirm:
		b.handleOrderConfirm(ctx, cb, answer)

	case data == callback.OrderFinalConfirm:
		b.handleFinalConfirm(ctx, cb, answer)

	case data == callback.OrderCancel:
		b.clearState(ctx, userID)
		b.editMessage(chatID, messageID, "❌ Оформление заказа отменено\nВаша корзина сохранена для будущих покупок.")

	case strings.HasPrefix(data, callback.ShopCardAdd):
		b.handleAddToCart(ctx, cb, answer)

	case strings.HasPrefix(data, callback.ShopCardDelete):
		b.handleRemoveFromCart(ctx, cb, answer)

	case strings.HasPrefix(data, callback.ShopCardItemInc),
		strings.HasPrefix(data, callback.ShopCardItemDec),
		strings.HasPrefix(data, callback.ShopCardItemPrev),
		strings.HasPrefix(data, callback.ShopCardItemNext):
		b.handleCartAction(ctx, cb, answer)

	case strings.HasPrefix(data, callback.CatalogPrev), strings.HasPrefix(data, callback.CatalogNext):
		b.handleCatalogNav(ctx, cb, answer)

	case strings.HasPrefix(data, callback.CatalogDelete):
		b.handleCatalogDelete(ctx, cb, answer)

	case strings.HasPrefix(data, callback.CatalogEdit):
		b.handleCatalogEdit(ctx, cb, answer)

	case strings.HasPrefix(data, callback.ProductDelete):
		b.handleProductDelete(ctx, cb, answer)

	case strings.HasPrefix(data, callback.ProductCancelDelete):
		b.handleProductCancelDelete(ctx, cb, answer)

	case strings.HasPrefix(data, callback.OrderReceivedNext), strings.HasPrefix(data, callback.OrderReceivedPrev):
		b.handleOrdersPageNav(ctx, cb, answer)

	case strings.HasPrefix(data, callback.OrderStatusConfirm):
		b.handleOrderStatus(ctx, cb, callback.OrderStatusConfirm, models.StatusDelivered, answer)

	case strings.HasPrefix(data, callback.OrderStatusCancel):
		b.handleOrderStatus(ctx, cb, callback.OrderStatusCancel, models.StatusCancelled, answer)

	case strings.HasPrefix(data, callback.OrderReceived):
		b.handleOrderDetails(ctx, cb, answer)

	case strings.HasPrefix(data, callback.DialogAppeals):
		b.handleShowAppeal(ctx, cb, answer)

	case strings.HasPrefix(data, callback.AnswerAppeals):
		b.handleAnswerAppeal(ctx, cb, answer)

	default:
		b.logger.Debug().Str("data", data).Msg("Unknown callback data")
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	if _, err := b.tg.EditMessage(chatID, messageID, text, nil); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}
