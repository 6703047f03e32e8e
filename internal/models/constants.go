package models

// Статусы заказа. Значения показываются пользователю как есть.
const (
	StatusPending    = "Ожидается"
	StatusProcessing = "В процессе"
	StatusShipped    = "В обработке"
	StatusDelivered  = "Доставлен"
	StatusCancelled  = "Отменен"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DefaultRedisTTL время жизни состояния пользователя в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultPaginationSize размер страницы списка заказов у админа
	DefaultPaginationSize = 3

	// MaxCartItemQuantity верхняя граница количества одной позиции корзины
	MaxCartItemQuantity = 100

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера синхронизации
	WorkerQueueSize = 128

	// DefaultAppealsPageSize размер страницы входящих обращений
	DefaultAppealsPageSize = 10
)
