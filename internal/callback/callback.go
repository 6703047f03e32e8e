// Package callback кодирует и разбирает callback data инлайн-кнопок.
//
// Формат единый для всего бота: литеральный префикс действия плюс
// целочисленные аргументы через "_". Разделитель не экранируется, поэтому
// аргументы могут быть только числами — callback data у Telegram ограничена
// 64 байтами и типизации не имеет.
package callback

import (
	"strconv"
	"strings"
)

const (
	CatalogPrefix = "catalog_"
	CatalogPrev   = "catalog_prev_"
	CatalogNext   = "catalog_next_"
	CatalogDelete = "catalog_delete_"
	CatalogEdit   = "catalog_edit_"

	ShopCardAdd      = "shopcard_add_"
	ShopCardDelete   = "shopcard_delete_item_"
	ShopCardItemInc  = "shopcard_item_inc_"
	ShopCardItemDec  = "shopcard_item_dec_"
	ShopCardItemPrev = "shopcard_item_prev_"
	ShopCardItemNext = "shopcard_item_next_"

	OrderConfirm      = "order_confirm"
	OrderFinalConfirm = "final_confirm"
	OrderCancel       = "order_cancel"

	OrderReceived      = "received_orders_"
	OrderReceivedNext  = "received_orders_next_"
	OrderReceivedPrev  = "received_orders_prev_"
	OrderStatusConfirm = "received_order_confirm_"
	OrderStatusCancel  = "received_order_cancel_"

	ProductDelete       = "confirm_delete_"
	ProductCancelDelete = "cancel_delete_"
	ProductEdit         = "edit_product_"

	DialogAppeals = "dialog_appeals_"
	AnswerAppeals = "answer_appeals_"
)

// Join собирает токен: префикс и десятичные аргументы через "_".
// Префиксы уже оканчиваются на "_", поэтому просто конкатенируем.
func Join(prefix string, args ...int64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i, a := range args {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strconv.FormatInt(a, 10))
	}
	return b.String()
}

// TrailingInts возвращает все числовые сегменты после известного префикса.
// Любой нечисловой сегмент делает токен невалидным целиком: вызывающий код
// отвечает пользователю "неверные данные", а не падает.
func TrailingInts(data, prefix string) ([]int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return nil, false
	}
	rest := strings.TrimPrefix(data, prefix)
	if rest == "" {
		return nil, false
	}
	parts := strings.Split(rest, "_")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// LastInt читает последний числовой сегмент токена — обычный случай
// "префикс + id сущности".
func LastInt(data, prefix string) (int64, bool) {
	nums, ok := TrailingInts(data, prefix)
	if !ok || len(nums) == 0 {
		return 0, false
	}
	return nums[len(nums)-1], true
}

// TwoInts читает ровно два числовых сегмента (размер страницы и номер страницы).
func TwoInts(data, prefix string) (int64, int64, bool) {
	nums, ok := TrailingInts(data, prefix)
	if !ok || len(nums) != 2 {
		return 0, 0, false
	}
	return nums[0], nums[1], true
}

// CartVerb — действие над позицией корзины.
type CartVerb string

const (
	CartInc  CartVerb = "inc"
	CartDec  CartVerb = "dec"
	CartPrev CartVerb = "prev"
	CartNext CartVerb = "next"
)

// CartAction — разобранный токен вида shopcard_item_<verb>_<index>_<productID>.
type CartAction struct {
	Verb         CartVerb
	CurrentIndex int64
	ProductID    int64
}

// ParseCartAction разбирает пятисегментный токен корзины. Несовпадение формы —
// это «не наш токен», а не ошибка: возвращаем ok=false и ничего не логируем.
func ParseCartAction(data string) (CartAction, bool) {
	parts := strings.Split(data, "_")
	if len(parts) != 5 || parts[0] != "shopcard" || parts[1] != "item" {
		return CartAction{}, false
	}

	verb := CartVerb(parts[2])
	switch verb {
	case CartInc, CartDec, CartPrev, CartNext:
	default:
		return CartAction{}, false
	}

	index, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return CartAction{}, false
	}
	productID, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return CartAction{}, false
	}

	return CartAction{Verb: verb, CurrentIndex: index, ProductID: productID}, true
}

// CartActionData кодирует токен позиции корзины.
func CartActionData(verb CartVerb, index, productID int64) string {
	return "shopcard_item_" + string(verb) + "_" +
		strconv.FormatInt(index, 10) + "_" + strconv.FormatInt(productID, 10)
}

// HasAnyPrefix сообщает, начинается ли data с одного из известных префиксов.
func HasAnyPrefix(data string) bool {
	prefixes := []string{
		CatalogPrefix,
		ShopCardAdd, ShopCardDelete,
		ShopCardItemInc, ShopCardItemDec, ShopCardItemPrev, ShopCardItemNext,
		OrderReceived, OrderStatusConfirm, OrderStatusCancel,
		ProductDelete, ProductCancelDelete, ProductEdit,
		DialogAppeals, AnswerAppeals,
	}
	for _, p := range prefixes {
		if strings.HasPrefix(data, p) {
			return true
		}
	}
	return false
}
