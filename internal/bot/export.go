package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

// handleExportOrders выгружает все заказы в xlsx и отправляет файл в чат.
func (b *Bot) handleExportOrders(ctx context.Context, msg *tgbotapi.Message) {
	path, err := b.exportOrdersToExcel(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to export orders")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось сформировать выгрузку.")
		return
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = "📊 Выгрузка заказов"
	if _, err := b.tg.Send(doc); err != nil {
		b.logger.Error().Err(err).Str("path", path).Msg("Failed to send export file")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось отправить файл выгрузки.")
	}
}

func (b *Bot) exportOrdersToExcel(ctx context.Context) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	orders, err := b.orders.AllOrders(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting orders: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Заказы"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Пользователь", "Статус", "Сумма", "Позиций", "Адрес", "Комментарий", "Создан"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for row, order := range orders {
		values := []interface{}{
			order.ID,
			order.UserID,
			order.Status,
			order.TotalPrice,
			order.TotalCount,
			order.DeliveryAddress,
			order.OrderNote,
			order.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "H1", style)
	_ = f.SetColWidth(sheetName, "A", "H", 20)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	b.logger.Info().Str("file_path", filePath).Int("orders", len(orders)).Msg("Excel file created")
	return filePath, nil
}
