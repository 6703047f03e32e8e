package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lavka/internal/callback"
	"lavka/internal/models"
	"lavka/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleStartDialog подключает пользователя к наименее загруженному
// администратору и открывает диалог поддержки.
func (b *Bot) handleStartDialog(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	adminID, err := b.dialogs.LeastLoadedAdmin(ctx, b.admins.List())
	if err != nil {
		if errors.Is(err, service.ErrNoAdmins) {
			b.sendMessage(msg.Chat.ID, "❌ Сейчас нет доступных операторов. Попробуйте позже.")
			return
		}
		b.logger.Error().Err(err).Msg("Failed to pick admin for dialog")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось открыть диалог. Попробуйте позже.")
		return
	}

	dialog, err := b.dialogs.StartDialog(ctx, userID, adminID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to start dialog")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось открыть диалог. Попробуйте позже.")
		return
	}

	if err := b.state.SetUserState(ctx, userID, StateDialogActive, map[string]interface{}{
		"dialog_id": dialog.ID,
	}); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set dialog state")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось открыть диалог. Попробуйте позже.")
		return
	}

	if _, err := b.tg.SendWithKeyboard(msg.Chat.ID,
		"Вы подключены к оператору. Напишите ваше сообщение.", dialogKeyboard()); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send dialog greeting")
	}
}

// handleDialogMessage обрабатывает сообщения внутри открытого диалога:
// служебные кнопки и собственно текст обращения.
func (b *Bot) handleDialogMessage(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) {
	userID := msg.From.ID
	dialogID := models.DataInt64(state.TempData, "dialog_id")

	switch msg.Text {
	case btnFinishDialog:
		b.clearState(ctx, userID)
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Диалог завершён.")
		reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		if _, err := b.tg.Send(reply); err != nil {
			b.logger.Error().Err(err).Msg("Failed to send dialog farewell")
		}
		return

	case btnShowHistory:
		b.showDialogHistory(ctx, msg.Chat.ID, userID, dialogID)
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		b.sendMessage(msg.Chat.ID, "Отправьте текстовое сообщение.")
		return
	}

	if _, err := b.dialogs.RecordMessage(ctx, dialogID, userID, msg.Text); err != nil {
		b.logger.Error().Err(err).Int64("dialog_id", dialogID).Msg("Failed to record dialog message")
		b.clearState(ctx, userID)
		b.sendMessage(msg.Chat.ID, "❌ Не удалось отправить сообщение. Диалог закрыт, откройте его заново: /startdialog")
		return
	}

	b.sendMessage(msg.Chat.ID, "✉️ Сообщение отправлено оператору.")
	b.notifyAdminAboutAppeal(ctx, dialogID, msg)
}

func (b *Bot) notifyAdminAboutAppeal(ctx context.Context, dialogID int64, msg *tgbotapi.Message) {
	dialog, err := b.dialogs.Dialog(ctx, dialogID)
	if err != nil {
		b.logger.Error().Err(err).Int64("dialog_id", dialogID).Msg("Failed to get dialog for notify")
		return
	}

	from := msg.From.UserName
	if from == "" {
		from = fullName(msg.From)
	}

	text := fmt.Sprintf("📨 Обращение #%d от @%s:\n\n%s", dialog.ID, from, msg.Text)
	if _, err := b.tg.SendWithInlineKeyboard(dialog.User2ID, text, answerAppealKeyboard(dialog.ID)); err != nil {
		b.logger.Error().Err(err).Int64("admin_id", dialog.User2ID).Msg("Failed to notify admin")
	}
}

func (b *Bot) showDialogHistory(ctx context.Context, chatID, userID, dialogID int64) {
	messages, err := b.dialogs.History(ctx, dialogID)
	if err != nil {
		b.logger.Error().Err(err).Int64("dialog_id", dialogID).Msg("Failed to get dialog history")
		b.sendMessage(chatID, "❌ Не удалось получить историю диалога.")
		return
	}
	if len(messages) == 0 {
		b.sendMessage(chatID, "В диалоге пока нет сообщений.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 История диалога:\n")
	for _, m := range messages {
		who := "Оператор"
		if m.SenderID == userID {
			who = "Вы"
		}
		sb.WriteString(fmt.Sprintf("\n[%s] %s: %s", m.CreatedAt.Format("02.01 15:04"), who, m.Content))
	}
	b.sendMessage(chatID, sb.String())
}

// showAppeals — инбокс администратора: первая страница непрочитанных
// диалогов, свежие сверху.
func (b *Bot) showAppeals(ctx context.Context, msg *tgbotapi.Message) {
	dialogs, err := b.dialogs.UnreadDialogs(ctx, msg.From.ID, models.DefaultAppealsPageSize, 0)
	if err != nil {
		b.logger.Error().Err(err).Int64("admin_id", msg.From.ID).Msg("Failed to get unread dialogs")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось получить обращения.")
		return
	}
	if len(dialogs) == 0 {
		b.sendMessage(msg.Chat.ID, "Непрочитанных обращений нет.")
		return
	}

	if _, err := b.tg.SendWithInlineKeyboard(msg.Chat.ID, "Непрочитанные обращения:", appealsKeyboard(dialogs)); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send appeals list")
	}
}

func (b *Bot) handleShowAppeal(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	dialogID, ok := callback.LastInt(cb.Data, callback.DialogAppeals)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	dialog, err := b.dialogs.Dialog(ctx, dialogID)
	if err != nil {
		answer("❌ Обращение не найдено")
		return
	}

	messages, err := b.dialogs.History(ctx, dialogID)
	if err != nil {
		b.logger.Error().Err(err).Int64("dialog_id", dialogID).Msg("Failed to get dialog history")
		answer("❌ Обращение не найдено")
		return
	}

	username := ""
	if user, err := b.users.GetUser(ctx, dialog.User1ID); err == nil {
		username = user.Username
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📨 Обращение #%d от @%s:\n", dialog.ID, username))
	for _, m := range messages {
		who := "Оператор"
		if m.SenderID == dialog.User1ID {
			who = "Пользователь"
		}
		sb.WriteString(fmt.Sprintf("\n[%s] %s: %s", m.CreatedAt.Format("02.01 15:04"), who, m.Content))
	}

	if _, err := b.tg.SendWithInlineKeyboard(cb.Message.Chat.ID, sb.String(), answerAppealKeyboard(dialog.ID)); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send appeal")
	}
}

func (b *Bot) handleAnswerAppeal(ctx context.Context, cb *tgbotapi.CallbackQuery, answer func(string)) {
	if !b.isAdmin(cb.From.ID) {
		answer("Доступно только администраторам")
		return
	}

	dialogID, ok := callback.LastInt(cb.Data, callback.AnswerAppeals)
	if !ok {
		answer("❌ Неверный формат данных")
		return
	}

	b.startFlow(ctx, cb.Message.Chat.ID, cb.From.ID, flowAnswerAppeal, map[string]interface{}{
		"dialog_id": dialogID,
	})
	b.sendMessage(cb.Message.Chat.ID, "Ожидается ответ пользователю")
}
