package domain

import (
	"context"
	"time"

	"lavka/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	UpdateProduct(ctx context.Context, id int64, upd models.ProductUpdate) error
	DeleteProduct(ctx context.Context, id int64) error
	SeedProducts(ctx context.Context, products []models.Product) (int, error)

	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	AddCartItem(ctx context.Context, cartID, productID, quantity int64) error
	UpdateCartItem(ctx context.Context, itemID int64, upd models.CartItemUpdate) error
	RemoveCartItem(ctx context.Context, cartID, productID int64) (bool, error)
	ClearCart(ctx context.Context, cartID int64) (bool, error)
	GetCartContents(ctx context.Context, cartID int64) ([]models.CartLine, error)
	GetCartItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	ListOrdersByStatus(ctx context.Context, status string, offset, limit int) ([]models.Order, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)
	GetAllOrders(ctx context.Context) ([]models.Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error)

	FindDialogBetween(ctx context.Context, userA, userB int64) (*models.Dialog, error)
	CreateDialog(ctx context.Context, userID, adminID int64) (*models.Dialog, error)
	AddDialogMessage(ctx context.Context, dialogID, senderID int64, content string) (*models.Message, error)
	CountDialogsForAdmin(ctx context.Context, adminID int64) (int64, error)
	GetUnreadDialogs(ctx context.Context, adminID int64, limit, offset int) ([]models.Dialog, error)
	GetDialog(ctx context.Context, id int64) (*models.Dialog, error)
	GetDialogMessages(ctx context.Context, dialogID int64) ([]models.Message, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string) error
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type AdminChecker interface {
	IsAdmin(telegramID int64) bool
	List() []int64
	Reload() error
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendPhoto(chatID int64, fileID, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	DeleteMessage(chatID int64, messageID int) error
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type CartService interface {
	AddProduct(ctx context.Context, userID, productID int64) error
	RemoveProduct(ctx context.Context, userID, productID int64) (bool, error)
	ChangeQuantity(ctx context.Context, userID, productID, delta int64) (*models.CartLine, error)
	UpdateItem(ctx context.Context, itemID int64, upd models.CartItemUpdate) error
	Clear(ctx context.Context, userID int64) (bool, error)
	GetTotal(ctx context.Context, userID int64) (*models.CartTotal, error)
	RenderCaption(total *models.CartTotal) string
}

type OrderService interface {
	Checkout(ctx context.Context, userID int64, address, note string) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	SetStatus(ctx context.Context, orderID int64, status string) error
	UserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	OrdersPage(ctx context.Context, status string, offset, limit int) ([]models.Order, int64, error)
	RenderOrder(order *models.Order, username string) string
	RenderOrderShort(order *models.Order) string
	RenderUserOrders(orders []models.Order) string
}

type CatalogService interface {
	Products(ctx context.Context) ([]models.Product, error)
	Product(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id int64, upd models.ProductUpdate) error
	DeleteProduct(ctx context.Context, id int64) error
	RenderCaption(product *models.Product, tag string) string
}

type DialogService interface {
	LeastLoadedAdmin(ctx context.Context, admins []int64) (int64, error)
	StartDialog(ctx context.Context, userID, adminID int64) (*models.Dialog, error)
	RecordMessage(ctx context.Context, dialogID, senderID int64, content string) (*models.Message, error)
	UnreadDialogs(ctx context.Context, adminID int64, limit, offset int) ([]models.Dialog, error)
	Dialog(ctx context.Context, id int64) (*models.Dialog, error)
	History(ctx context.Context, dialogID int64) ([]models.Message, error)
}

type UserService interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
}

type SheetsWriter interface {
	AppendOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	TestConnection(ctx context.Context) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, orderID int64, order *models.Order, status string) error
}
