// Package bot связывает Telegram-обновления с сервисами магазина: каталог,
// корзина, оформление заказов, очереди заказов у администраторов и диалоги
// поддержки.
package bot

import (
	"context"
	"os"
	"strings"
	"time"

	"lavka/internal/config"
	"lavka/internal/domain"
	"lavka/internal/flow"
	"lavka/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tg       domain.TelegramService
	config   *config.Config
	state    domain.StateManager
	admins   domain.AdminChecker
	carts    domain.CartService
	orders   domain.OrderService
	catalog  domain.CatalogService
	dialogs  domain.DialogService
	users    domain.UserService
	flows    *flow.Engine
	logger   *zerolog.Logger
}

func NewBot(
	tg domain.TelegramService,
	cfg *config.Config,
	state domain.StateManager,
	admins domain.AdminChecker,
	carts domain.CartService,
	orders domain.OrderService,
	catalog domain.CatalogService,
	dialogs domain.DialogService,
	users domain.UserService,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	b := &Bot{
		tg:      tg,
		config:  cfg,
		state:   state,
		admins:  admins,
		carts:   carts,
		orders:  orders,
		catalog: catalog,
		dialogs: dialogs,
		users:   users,
		flows:   flow.NewEngine(state, logger),
		logger:  logger,
	}
	b.registerFlows()
	return b, nil
}

// Шаги вне flow-движка: диалог с поддержкой не линейный, а ожидание
// финального подтверждения заказа приходит callback-кнопкой.
const (
	StateDialogActive    = "dialog_active"
	StateCheckoutConfirm = "checkout_confirm"
)

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tg.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpdateDuration(time.Since(start).Seconds())
	}()

	// Контекст на обработку одного обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		b.trackUser(update)

		if !b.isAdmin(userID) {
			allowed, err := b.state.CheckRateLimit(updateCtx, userID, b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				if update.Message != nil {
					b.sendMessage(update.Message.Chat.ID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
				}
				return
			}
		}

		if update.CallbackQuery != nil {
			metrics.IncUpdate("callback")
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		if strings.HasPrefix(update.Message.Text, "/") {
			metrics.IncUpdate("command")
		} else {
			metrics.IncUpdate("message")
		}

		b.handleMessage(updateCtx, update)
	})
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.admins != nil && b.admins.IsAdmin(userID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tg.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
