package models

import "time"

// SyncTask — отложенная задача выгрузки заказа во внешнюю таблицу.
type SyncTask struct {
	ID        int64     `json:"id"`
	TaskType  string    `json:"task_type"`
	OrderID   int64     `json:"order_id"`
	Payload   string    `json:"payload"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
