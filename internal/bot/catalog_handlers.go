package bot

import (
	"context"
	"fmt"

	"lavka/internal/callback"
	"lavka/internal/models"
	"lavka/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showCatalogCard показывает одну карточку каталога с листалкой.
func (b *Bot) showCatalogCard(ctx context.Context, chatID int64, index int, isAdmin bool) {
	products, err := b.catalog.Products(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to get products")
		b.sendMessage(chatID, "❌ Не удалось получить каталог.")
		return
	}
	if len(products) == 0 {
		b.sendMessage(chatID, "Нет предметов для продажи")
		return
	}

	if index < 0 {
		index = 0
	}
	if index >= len(products) {
		index = len(products) - 1
	}

	product := products[index]
	caption := b.catalog.RenderCaption(&product, service.CaptionProduct)
	keyboard := b.catalogKeyboard(index, len(products), product.ID, isAdmin)

	b.sendCard(chatID, &product, caption, keyboard)
}

// Подписи каталога размечены HTML, поэтому parse mode ставится явно.
func (b *Bot) sendCard(chatID int64, product *models.Product, caption string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if product.ImageFileID != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(product.ImageFileID))
		photo.Caption = caption
		photo.ParseMode = models.ParseModeHTML
		photo.ReplyMarkup = keyboard
		if _, err := b.tg.Send(photo); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send product photo")
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, caption)
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send product card")
	}
}

// replaceCard убирает старую карточку и рисует новую — единый путь для
// текстовых карточек и карточек с фото.
func (b *Bot) replaceCard(cb *tgbotapi.CallbackQuery, draw func(chatID int64)) {
	if err := b.tg.DeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to delete catalog message")
	}
	draw(cb.Message.Chat.ID)
}

func (b *Bot) handleCatalogNav(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	var index int64
	var ok bool
	delta := 0

	if idx, match := callback.LastInt(cb.Data, callback.CatalogPrev); match {
		index, ok, delta = idx, true, -1
	} else if idx, match := callback.LastInt(cb.Data, callback.CatalogNext); match {
		index, ok, delta = idx, true, 1
	}
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	b.replaceCard(cb, func(chatID int64) {
		b.showCatalogCard(ctx, chatID, int(index)+delta, b.isAdmin(cb.From.ID))
	})
}

func (b *Bot) handleCatalogDelete(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	index, ok := callback.LastInt(cb.Data, callback.CatalogDelete)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	products, err := b.catalog.Products(ctx)
	if err != nil || index < 0 || int(index) >= len(products) {
		answer("Нет предметов для продажи")
		return
	}

	product := products[index]
	caption := b.catalog.RenderCaption(&product, service.CaptionDelete)
	keyboard := deleteConfirmKeyboard(product.ID)

	b.replaceCard(cb, func(chatID int64) {
		msg := tgbotapi.NewMessage(chatID, caption)
		msg.ParseMode = models.ParseModeHTML
		msg.ReplyMarkup = keyboard
		if _, err := b.tg.Send(msg); err != nil {
			b.logger.Error().Err(err).Msg("Failed to send delete confirmation")
		}
	})
}

func (b *Bot) handleProductDelete(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	productID, ok := callback.LastInt(cb.Data, callback.ProductDelete)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	if err := b.catalog.DeleteProduct(ctx, productID); err != nil {
		b.logger.Error().Err(err).Int64("product_id", productID).Msg("Failed to delete product")
		answer("❌ Не удалось удалить предмет")
		return
	}

	b.editMessage(cb.Message.Chat.ID, cb.Message.MessageID, "Предмет был удален из каталога")
}

func (b *Bot) handleProductCancelDelete(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	productID, ok := callback.LastInt(cb.Data, callback.ProductCancelDelete)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	products, err := b.catalog.Products(ctx)
	if err != nil {
		answer("Нет предметов для продажи")
		return
	}

	index := -1
	for i, p := range products {
		if p.ID == productID {
			index = i
			break
		}
	}
	if index < 0 {
		answer("Нет предметов для продажи")
		return
	}

	b.replaceCard(cb, func(chatID int64) {
		b.showCatalogCard(ctx, chatID, index, b.isAdmin(cb.From.ID))
	})
	answer("Удаление отменено!")
}

func (b *Bot) handleCatalogEdit(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	index, ok := callback.LastInt(cb.Data, callback.CatalogEdit)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	products, err := b.catalog.Products(ctx)
	if err != nil || index < 0 || int(index) >= len(products) {
		answer("Нет предметов для продажи")
		return
	}

	product := products[index]
	caption := b.catalog.RenderCaption(&product, service.CaptionEdit)

	msg := tgbotapi.NewMessage(cb.Message.Chat.ID, fmt.Sprintf("%s\n", caption))
	msg.ParseMode = models.ParseModeHTML
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send edit header")
	}

	b.startFlow(ctx, cb.Message.Chat.ID, cb.From.ID, flowEditProduct, map[string]interface{}{
		"product_id": product.ID,
	})
}
