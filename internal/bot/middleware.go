package bot

import (
	"context"
	"time"

	"lavka/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// trackUser сохраняет профиль отправителя в фоне, чтобы не тормозить
// основной цикл.
func (b *Bot) trackUser(update tgbotapi.Update) {
	var from *tgbotapi.User
	switch {
	case update.Message != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
	default:
		return
	}

	user := &models.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FullName:   fullName(from),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.users.SaveUser(ctx, user); err != nil {
			b.logger.Error().Err(err).Int64("user_id", user.TelegramID).Msg("Failed to save user")
		}
	}()
}

func fullName(from *tgbotapi.User) string {
	if from.LastName == "" {
		return from.FirstName
	}
	return from.FirstName + " " + from.LastName
}
