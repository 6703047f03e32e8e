package bot

import (
	"context"
	"fmt"

	"lavka/internal/callback"
	"lavka/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showCart показывает карточку первого товара корзины и общий итог.
func (b *Bot) showCart(ctx context.Context, chatID, userID int64) {
	total, err := b.carts.GetTotal(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get cart")
		b.sendMessage(chatID, "❌ Не удалось прочитать корзину.")
		return
	}
	if total.ItemsCount == 0 {
		b.sendMessage(chatID, "🛒 Ваша корзина пуста")
		return
	}
	b.sendCartCard(ctx, chatID, total, 0)
}

func (b *Bot) sendCartCard(ctx context.Context, chatID int64, total *models.CartTotal, index int) {
	if index < 0 || index >= len(total.Items) {
		index = 0
	}
	line := total.Items[index]

	caption := fmt.Sprintf("Текущий товар: %s\n\n%s", line.Name, b.carts.RenderCaption(total))
	keyboard := cartKeyboard(index, line.ProductID, len(total.Items))

	product, err := b.catalog.Product(ctx, line.ProductID)
	if err == nil && product.ImageFileID != "" {
		if _, err := b.tg.SendPhoto(chatID, product.ImageFileID, caption, &keyboard); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send cart photo")
		}
		return
	}
	if _, err := b.tg.SendWithInlineKeyboard(chatID, caption, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send cart")
	}
}

// redrawCart заменяет карточку корзины: старое сообщение удаляется, свежая
// карточка отправляется заново. Так навигация одинаково работает и для
// текстовых карточек, и для карточек с фото.
func (b *Bot) redrawCart(ctx context.Context, cb *tgbotapi.CallbackQuery, total *models.CartTotal, index int) {
	if err := b.tg.DeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to delete cart message")
	}
	b.sendCartCard(ctx, cb.Message.Chat.ID, total, index)
}

func (b *Bot) handleAddToCart(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	productID, ok := callback.LastInt(cb.Data, callback.ShopCardAdd)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	if err := b.carts.AddProduct(ctx, cb.From.ID, productID); err != nil {
		b.logger.Error().Err(err).Int64("product_id", productID).Msg("Failed to add to cart")
		answer("❌ Товар не найден")
		return
	}
	answer("✅ Товар добавлен в корзину.")
}

func (b *Bot) handleRemoveFromCart(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	productID, ok := callback.LastInt(cb.Data, callback.ShopCardDelete)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	removed, err := b.carts.RemoveProduct(ctx, cb.From.ID, productID)
	if err != nil {
		b.logger.Error().Err(err).Int64("product_id", productID).Msg("Failed to remove from cart")
		answer("❌ Товар не найден в корзине")
		return
	}
	if !removed {
		answer("❌ Товар не найден в корзине")
		return
	}

	total, err := b.carts.GetTotal(ctx, cb.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to get cart")
		return
	}
	if total.ItemsCount == 0 {
		answer("✅ Корзина теперь пуста")
		if err := b.tg.DeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
			b.logger.Debug().Err(err).Msg("Failed to delete cart message")
		}
		return
	}

	b.redrawCart(ctx, cb, total, 0)
	answer("✅ Товар удален из корзины.")
}

func (b *Bot) handleCartAction(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	act, ok := callback.ParseCartAction(cb.Data)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	switch act.Verb {
	case callback.CartInc:
		if _, err := b.carts.ChangeQuantity(ctx, cb.From.ID, act.ProductID, 1); err != nil {
			b.logger.Error().Err(err).Msg("Failed to increment cart item")
			answer("❌ Товар не найден в корзине")
			return
		}
		b.refreshCartAt(ctx, cb, int(act.CurrentIndex))
		answer("✅ Кол-во увеличено")

	case callback.CartDec:
		line, err := b.carts.ChangeQuantity(ctx, cb.From.ID, act.ProductID, -1)
		if err != nil {
			b.logger.Error().Err(err).Msg("Failed to decrement cart item")
			answer("❌ Товар не найден в корзине")
			return
		}
		if line == nil {
			// позиция ушла в ноль и удалена
			total, err := b.carts.GetTotal(ctx, cb.From.ID)
			if err != nil {
				b.logger.Error().Err(err).Msg("Failed to get cart")
				return
			}
			if total.ItemsCount == 0 {
				answer("✅ Корзина теперь пуста")
				if err := b.tg.DeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
					b.logger.Debug().Err(err).Msg("Failed to delete cart message")
				}
				return
			}
			b.redrawCart(ctx, cb, total, 0)
			answer("✅ Товар удален")
			return
		}
		b.refreshCartAt(ctx, cb, int(act.CurrentIndex))
		answer("✅ Кол-во уменьшено")

	case callback.CartPrev, callback.CartNext:
		total, err := b.carts.GetTotal(ctx, cb.From.ID)
		if err != nil {
			b.logger.Error().Err(err).Msg("Failed to get cart")
			return
		}
		if total.ItemsCount == 0 {
			answer("🛒 Корзина пуста")
			if err := b.tg.DeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
				b.logger.Debug().Err(err).Msg("Failed to delete cart message")
			}
			return
		}

		pos := 0
		for i, line := range total.Items {
			if line.ProductID == act.ProductID {
				pos = i
				break
			}
		}
		n := len(total.Items)
		if act.Verb == callback.CartPrev {
			pos = (pos - 1 + n) % n
		} else {
			pos = (pos + 1) % n
		}
		b.redrawCart(ctx, cb, total, pos)
	}
}

func (b *Bot) refreshCartAt(ctx context.Context, cb *tgbotapi.CallbackQuery, index int) {
	total, err := b.carts.GetTotal(ctx, cb.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to get cart")
		return
	}
	if total.ItemsCount == 0 {
		if err := b.tg.DeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
			b.logger.Debug().Err(err).Msg("Failed to delete cart message")
		}
		return
	}
	b.redrawCart(ctx, cb, total, index)
}
