package bot

import (
	"context"
	"fmt"
	"strings"

	"lavka/internal/flow"
	"lavka/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID
	l := zerolog.Ctx(ctx)

	l.Debug().
		Int64("user_id", userID).
		Str("username", msg.From.UserName).
		Str("text", msg.Text).
		Msg("Handling message")

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	state, err := b.state.GetUserState(ctx, userID)
	if err != nil {
		l.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
	}

	if state != nil && state.CurrentStep == StateDialogActive {
		b.handleDialogMessage(ctx, msg, state)
		return
	}

	if curFlow, _, _, _ := b.flows.Current(ctx, userID); curFlow != nil {
		b.advanceFlow(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, "Неизвестная команда. Наберите /help, чтобы посмотреть список команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.clearState(ctx, userID)
		b.handleStart(ctx, msg)
	case "help":
		b.sendMessage(msg.Chat.ID, b.helpText(userID))
	case "catalog":
		b.showCatalogCard(ctx, msg.Chat.ID, 0, b.isAdmin(userID))
	case "shopcard":
		b.showCart(ctx, msg.Chat.ID, userID)
	case "clearcart":
		b.handleClearCart(ctx, msg)
	case "myorders":
		b.showUserOrders(ctx, msg)
	case "startdialog":
		b.handleStartDialog(ctx, msg)
	case "skip":
		// /skip внутри потока — обычный ввод шага
		if curFlow, _, _, _ := b.flows.Current(ctx, userID); curFlow != nil {
			b.advanceFlow(ctx, msg)
			return
		}
		b.sendMessage(msg.Chat.ID, "Сейчас нечего пропускать.")
	case "addproduct":
		if !b.requireAdmin(msg) {
			return
		}
		b.startFlow(ctx, msg.Chat.ID, userID, flowAddProduct, nil)
	case "receivedorders":
		if !b.requireAdmin(msg) {
			return
		}
		b.showOrdersPage(ctx, msg.Chat.ID, 0, models.StatusPending, 0, b.config.Bot.PaginationSize)
	case "deliveredorders":
		if !b.requireAdmin(msg) {
			return
		}
		b.showOrdersPage(ctx, msg.Chat.ID, 0, models.StatusDelivered, 0, b.config.Bot.PaginationSize)
	case "showappeals":
		if !b.requireAdmin(msg) {
			return
		}
		b.showAppeals(ctx, msg)
	case "exportorders":
		if !b.requireAdmin(msg) {
			return
		}
		b.handleExportOrders(ctx, msg)
	case "reloadadmins":
		if !b.requireAdmin(msg) {
			return
		}
		b.handleReloadAdmins(msg)
	default:
		b.sendMessage(msg.Chat.ID, "Неизвестная команда. Наберите /help, чтобы посмотреть список команд.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"Добро пожаловать, %s! 🛍\n\nЭто магазин в Telegram: каталог, корзина и оформление заказа прямо в чате.\nНаберите /help, чтобы посмотреть список команд.",
		fullName(msg.From)))
}

func (b *Bot) helpText(userID int64) string {
	var sb strings.Builder
	sb.WriteString("Доступные команды:\n")
	sb.WriteString("/start - Запустить бота\n")
	sb.WriteString("/help - Список команд\n")
	sb.WriteString("/catalog - Каталог товаров\n")
	sb.WriteString("/shopcard - Корзина\n")
	sb.WriteString("/clearcart - Очистить корзину\n")
	sb.WriteString("/myorders - Мои заказы\n")
	sb.WriteString("/startdialog - Связаться с поддержкой")

	if b.isAdmin(userID) {
		sb.WriteString("\n\nКоманды администратора:\n")
		sb.WriteString("/addproduct - Добавить товар\n")
		sb.WriteString("/receivedorders - Поступившие заказы\n")
		sb.WriteString("/deliveredorders - Доставленные заказы\n")
		sb.WriteString("/showappeals - Обращения пользователей\n")
		sb.WriteString("/exportorders - Выгрузка заказов в Excel\n")
		sb.WriteString("/reloadadmins - Перечитать список администраторов")
	}
	return sb.String()
}

func (b *Bot) handleClearCart(ctx context.Context, msg *tgbotapi.Message) {
	cleared, err := b.carts.Clear(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to clear cart")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось очистить корзину.")
		return
	}
	if !cleared {
		b.sendMessage(msg.Chat.ID, "🛒 Корзина уже пуста")
		return
	}
	b.sendMessage(msg.Chat.ID, "🛒 Корзина очищена")
}

func (b *Bot) showUserOrders(ctx context.Context, msg *tgbotapi.Message) {
	orders, err := b.orders.UserOrders(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to get user orders")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось получить список заказов.")
		return
	}
	b.sendMessage(msg.Chat.ID, b.orders.RenderUserOrders(orders))
}

func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if b.isAdmin(msg.From.ID) {
		return true
	}
	b.sendMessage(msg.Chat.ID, "Команда доступна только администраторам.")
	return false
}

func (b *Bot) handleReloadAdmins(msg *tgbotapi.Message) {
	if err := b.admins.Reload(); err != nil {
		b.logger.Error().Err(err).Msg("Failed to reload admins")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось обновить список администраторов, действует прежний.")
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("Список администраторов обновлён: %d.", len(b.admins.List())))
}

// startFlow запускает поток и показывает приглашение первого шага.
func (b *Bot) startFlow(ctx context.Context, chatID, userID int64, flowName string, seed map[string]interface{}) {
	first, err := b.flows.Start(ctx, userID, flowName, seed)
	if err != nil {
		b.logger.Error().Err(err).Str("flow", flowName).Int64("user_id", userID).Msg("Failed to start flow")
		b.sendMessage(chatID, "❌ Что-то пошло не так. Попробуйте ещё раз.")
		return
	}
	if first.Prompt != "" {
		b.sendMessage(chatID, first.Prompt)
	}
}

func (b *Bot) advanceFlow(ctx context.Context, msg *tgbotapi.Message) {
	input := flow.Input{Text: msg.Text}
	if len(msg.Photo) > 0 {
		input.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
		if msg.Caption != "" {
			input.Text = msg.Caption
		}
	}

	res, err := b.flows.Advance(ctx, msg.From.ID, input)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("Flow advance failed")
		return
	}

	switch {
	case res.Invalid != "":
		b.sendMessage(msg.Chat.ID, res.Invalid)
	case res.Next != nil && res.Next.Prompt != "":
		b.sendMessage(msg.Chat.ID, res.Next.Prompt)
	}
}

func (b *Bot) clearState(ctx context.Context, userID int64) {
	if err := b.state.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}
