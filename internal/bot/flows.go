package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lavka/internal/flow"
	"lavka/internal/models"
)

const (
	flowAddProduct   = "add_product"
	flowEditProduct  = "edit_product"
	flowCheckout     = "checkout"
	flowAnswerAppeal = "answer_appeal"
)

func (b *Bot) registerFlows() {
	b.flows.Register(&flow.Flow{
		Name: flowAddProduct,
		Steps: []flow.Step{
			{Name: "name", Kind: flow.KindText, Key: "name", Prompt: "Пожалуйста, введите название предмета."},
			{Name: "description", Kind: flow.KindText, Skippable: true, Key: "description", Prompt: "Пожалуйста, введите описание предмета (или 'skip' для пропуска)."},
			{Name: "price", Kind: flow.KindPrice, Key: "price", Prompt: "Пожалуйста, введите стоимость предмета (например, 19.99)."},
			{Name: "image", Kind: flow.KindImage, Skippable: true, Key: "image", Prompt: "Пожалуйста, отправьте изображение предмета (или 'skip' для пропуска)."},
		},
		Commit: b.commitAddProduct,
	})

	b.flows.Register(&flow.Flow{
		Name: flowEditProduct,
		Steps: []flow.Step{
			{Name: "name", Kind: flow.KindText, Skippable: true, Key: "name", Prompt: "Пожалуйста, введите новое название предмета (или 'skip' для сохранения текущего)."},
			{Name: "description", Kind: flow.KindText, Skippable: true, Key: "description", Prompt: "Пожалуйста, введите новое описание предмета (или 'skip' для сохранения текущего)."},
			{Name: "price", Kind: flow.KindPrice, Skippable: true, Key: "price", Prompt: "Пожалуйста, введите новую стоимость предмета (или 'skip' для сохранения текущей)."},
			{Name: "image", Kind: flow.KindImage, Skippable: true, Key: "image", Prompt: "Пожалуйста, отправьте новое изображение предмета (или 'skip' для сохранения текущего)."},
		},
		Commit: b.commitEditProduct,
	})

	b.flows.Register(&flow.Flow{
		Name: flowCheckout,
		Steps: []flow.Step{
			{Name: "note", Kind: flow.KindText, Skippable: true, Key: "note"},
			{Name: "address", Kind: flow.KindText, Key: "address", Prompt: "🏠 Теперь введите адрес доставки:\n(Укажите город, улицу, дом и квартиру)"},
		},
		Commit: b.commitCheckout,
	})

	b.flows.Register(&flow.Flow{
		Name: flowAnswerAppeal,
		Steps: []flow.Step{
			{Name: "answer", Kind: flow.KindText, Key: "answer"},
		},
		Commit: b.commitAnswerAppeal,
	})
}

func (b *Bot) commitAddProduct(ctx context.Context, userID int64, data map[string]interface{}) error {
	product := &models.Product{
		Name:        models.DataString(data, "name"),
		Description: models.DataString(data, "description"),
		Price:       models.DataFloat64(data, "price"),
		ImageFileID: models.DataString(data, "image"),
	}

	if err := b.catalog.CreateProduct(ctx, product); err != nil {
		b.sendMessage(userID, fmt.Sprintf("Ошибка при добавлении предмета: %s", err))
		return err
	}

	b.sendMessage(userID, fmt.Sprintf("Предмет добавлен в каталог: %s (ID: %d, Price: %s$)",
		product.Name, product.ID, formatPrice(product.Price)))
	return nil
}

func (b *Bot) commitEditProduct(ctx context.Context, userID int64, data map[string]interface{}) error {
	productID := models.DataInt64(data, "product_id")

	var upd models.ProductUpdate
	if name := models.DataString(data, "name"); name != "" {
		upd.Name = &name
	}
	if desc := models.DataString(data, "description"); desc != "" {
		upd.Description = &desc
	}
	if _, ok := data["price"]; ok {
		price := models.DataFloat64(data, "price")
		upd.Price = &price
	}
	if image := models.DataString(data, "image"); image != "" {
		upd.ImageFileID = &image
	}

	if err := b.catalog.UpdateProduct(ctx, productID, upd); err != nil {
		b.sendMessage(userID, fmt.Sprintf("Ошибка при обновлении предмета: %s", err))
		return err
	}

	product, err := b.catalog.Product(ctx, productID)
	if err != nil {
		return err
	}

	b.sendMessage(userID, fmt.Sprintf("Предмет '%s' успешно обновлён (ID: %d, Price: %s$)",
		product.Name, product.ID, formatPrice(product.Price)))
	return nil
}

// commitCheckout не создаёт заказ: он показывает итоговую сводку и ждёт
// нажатия инлайн-кнопки подтверждения.
func (b *Bot) commitCheckout(ctx context.Context, userID int64, data map[string]interface{}) error {
	total, err := b.carts.GetTotal(ctx, userID)
	if err != nil {
		b.sendMessage(userID, "❌ Не удалось прочитать корзину. Попробуйте ещё раз.")
		return err
	}
	if total.ItemsCount == 0 {
		b.sendMessage(userID, "🛒 Ваша корзина пуста")
		return nil
	}

	address := models.DataString(data, "address")
	note := models.DataString(data, "note")

	if err := b.state.SetUserState(ctx, userID, StateCheckoutConfirm, map[string]interface{}{
		"address": address,
		"note":    note,
	}); err != nil {
		return err
	}

	b.sendCheckoutPreview(userID, total, address, note)
	return nil
}

func (b *Bot) sendCheckoutPreview(chatID int64, total *models.CartTotal, address, note string) {
	var items strings.Builder
	for _, line := range total.Items {
		items.WriteString(fmt.Sprintf("%s - %d × %s $\n", line.Name, line.Quantity, formatPrice(line.Price)))
	}
	if note == "" {
		note = "Не указан"
	}

	text := fmt.Sprintf("📦 Подтвердите заказ:\n\n🛒 Состав заказа:\n%s\n💳 Итого: %s $\n\n🏠 Адрес доставки: %s\n📝 Комментарий: %s",
		items.String(), formatPrice(total.TotalPrice), address, note)

	if _, err := b.tg.SendWithInlineKeyboard(chatID, text, checkoutConfirmKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send checkout preview")
	}
}

func (b *Bot) commitAnswerAppeal(ctx context.Context, userID int64, data map[string]interface{}) error {
	dialogID := models.DataInt64(data, "dialog_id")
	answer := models.DataString(data, "answer")

	if _, err := b.dialogs.RecordMessage(ctx, dialogID, userID, answer); err != nil {
		b.sendMessage(userID, "❌ Не удалось отправить ответ.")
		return err
	}

	dialog, err := b.dialogs.Dialog(ctx, dialogID)
	if err != nil {
		return err
	}

	b.sendMessage(userID, "Ответ отправлен пользователю.")
	b.sendMessage(dialog.User1ID, fmt.Sprintf("💬 Ответ оператора:\n\n%s", answer))
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
