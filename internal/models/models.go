package models

import "time"

type User struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Product struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Price       float64   `json:"price" yaml:"price"`
	ImageFileID string    `json:"image_file_id" yaml:"image_file_id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// ProductUpdate переносит только заполненные поля; nil-поле не трогает колонку.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	ImageFileID *string
}

type Cart struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartItem struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cart_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItemUpdate — частичное обновление позиции корзины.
type CartItemUpdate struct {
	Quantity  *int64
	ProductID *int64
}

// CartLine — позиция корзины вместе с данными товара для отрисовки.
type CartLine struct {
	ItemID    int64   `json:"item_id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Total     float64 `json:"total"`
}

// CartTotal — итог корзины. ItemsCount считает строки, а не суммы количеств.
type CartTotal struct {
	ItemsCount int64      `json:"items_count"`
	TotalPrice float64    `json:"total_price"`
	Items      []CartLine `json:"items"`
}

type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	TotalPrice      float64     `json:"total_price"`
	TotalCount      int64       `json:"total_count"`
	DeliveryAddress string      `json:"delivery_address"`
	OrderNote       string      `json:"order_note"`
	Status          string      `json:"status"`
	Lines           []OrderLine `json:"lines,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderLine фиксирует товар на момент оформления: цена и название копируются
// из каталога при создании заказа и дальше не меняются.
type OrderLine struct {
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int64   `json:"quantity"`
}

type Dialog struct {
	ID        int64     `json:"id"`
	User1ID   int64     `json:"user1_id"`
	User2ID   int64     `json:"user2_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	DialogID  int64     `json:"dialog_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
