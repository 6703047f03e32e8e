package bot

import (
	"strconv"

	"lavka/internal/callback"
	"lavka/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnFinishDialog = "📝 Завершить диалог"
	btnShowHistory  = "📋 Показать историю"
)

// catalogKeyboard листает карточки товаров по одной; админам добавляется
// ряд управления карточкой.
func (b *Bot) catalogKeyboard(index int, total int, productID int64, isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if index > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Предыдущий", callback.Join(callback.CatalogPrev, int64(index))))
	}
	if index < total-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Следующий ➡️", callback.Join(callback.CatalogNext, int64(index))))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🛒 Добавить в корзину", callback.Join(callback.ShopCardAdd, productID)),
	})
	if isAdmin {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать", callback.Join(callback.CatalogEdit, int64(index))),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", callback.Join(callback.CatalogDelete, int64(index))),
		})
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cartKeyboard(index int, productID int64, total int) tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if index > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Предыдущий", callback.CartActionData(callback.CartPrev, int64(index), productID)))
	}
	if index < total-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Следующий ➡️", callback.CartActionData(callback.CartNext, int64(index), productID)))
	}

	count := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Уменьшить кол-во", callback.CartActionData(callback.CartDec, int64(index), productID)),
		tgbotapi.NewInlineKeyboardButtonData("Увеличить кол-во ➡️", callback.CartActionData(callback.CartInc, int64(index), productID)),
	}

	actions := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Удалить из корзины ❌", callback.Join(callback.ShopCardDelete, productID)),
		tgbotapi.NewInlineKeyboardButtonData("Подтвердить заказ ✏️", callback.OrderConfirm),
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, count, actions)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func checkoutConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", callback.OrderFinalConfirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", callback.OrderCancel),
		),
	)
}

func deleteConfirmKeyboard(productID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, удалить", callback.Join(callback.ProductDelete, productID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", callback.Join(callback.ProductCancelDelete, productID)),
		),
	)
}

func orderStatusKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Доставлен", callback.Join(callback.OrderStatusConfirm, orderID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", callback.Join(callback.OrderStatusCancel, orderID)),
		),
	)
}

func dialogKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnFinishDialog)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnShowHistory)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func appealsKeyboard(dialogs []models.Dialog) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range dialogs {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Обращение #"+strconv.FormatInt(d.ID, 10), callback.Join(callback.DialogAppeals, d.ID)),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func answerAppealKeyboard(dialogID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Ответить", callback.Join(callback.AnswerAppeals, dialogID)),
		),
	)
}
