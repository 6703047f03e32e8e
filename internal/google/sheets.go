// Package google синхронизирует заказы с Google Sheets через сервисный
// аккаунт.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"lavka/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound возвращается, когда в таблице нет строки заказа.
var ErrRowNotFound = errors.New("order row not found")

const ordersSheet = "Orders"

// SheetsService пишет заказы в таблицу. Реализует domain.SheetsWriter.
type SheetsService struct {
	service       *sheets.Service
	ordersSheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(credentialsFile, ordersSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	service := &SheetsService{
		service:       srv,
		ordersSheetID: ordersSheetID,
		rowCache:      make(map[int64]int),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	// Периодическое обновление кэша строк
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			service.WarmUpCache(ctx)
			cancel()
		}
	}()

	return service, nil
}

// TestConnection проверяет, что таблица доступна сервисному аккаунту.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.ordersSheetID, ordersSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта. Этот адрес
// нужно добавить в таблицу с правом записи.
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// WarmUpCache перечитывает колонку ID и наполняет кэш индексов строк.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.ordersSheetID, ordersSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendOrder добавляет новую строку заказа в конец листа.
func (s *SheetsService) AppendOrder(ctx context.Context, order *models.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{orderRowValues(order)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.ordersSheetID, ordersSheet+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// UpdateOrderStatus меняет статус и время обновления в строке заказа.
func (s *SheetsService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	rowIdx, err := s.FindOrderRow(ctx, orderID)
	if err != nil {
		return err
	}

	statusRange := fmt.Sprintf("%s!C%d:C%d", ordersSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.ordersSheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	updatedRange := fmt.Sprintf("%s!I%d:I%d", ordersSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.ordersSheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindOrderRow ищет строку заказа по колонке A, с кэшем индексов.
// Строки нумеруются с единицы, как в самой таблице.
func (s *SheetsService) FindOrderRow(ctx context.Context, orderID int64) (int, error) {
	if orderID == 0 {
		return 0, errors.New("order id is required")
	}

	if row, ok := s.getCachedRow(orderID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.ordersSheetID, ordersSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		switch v := row[0].(type) {
		case float64:
			if int64(v) == orderID {
				rowIdx := i + 1
				s.setCachedRow(orderID, rowIdx)
				return rowIdx, nil
			}
		case string:
			if v == fmt.Sprintf("%d", orderID) {
				rowIdx := i + 1
				s.setCachedRow(orderID, rowIdx)
				return rowIdx, nil
			}
		}
	}

	return 0, ErrRowNotFound
}

// ReplaceOrdersSheet полностью перезаписывает лист заказов.
func (s *SheetsService) ReplaceOrdersSheet(ctx context.Context, orders []models.Order) error {
	clearRange := ordersSheet + "!A2:Z"
	_, err := s.service.Spreadsheets.Values.Clear(s.ordersSheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear orders sheet: %w", err)
	}

	var values [][]interface{}
	for i := range orders {
		values = append(values, orderRowValues(&orders[i]))
	}

	_, err = s.service.Spreadsheets.Values.Update(s.ordersSheetID, ordersSheet+"!A2", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update orders sheet: %w", err)
	}

	s.cacheMu.Lock()
	s.rowCache = make(map[int64]int)
	for i := range orders {
		s.rowCache[orders[i].ID] = i + 2 // данные начинаются со второй строки
	}
	s.cacheMu.Unlock()

	return nil
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func orderRowValues(order *models.Order) []interface{} {
	return []interface{}{
		order.ID,
		order.UserID,
		order.Status,
		order.TotalPrice,
		order.TotalCount,
		order.DeliveryAddress,
		order.OrderNote,
		order.CreatedAt.Format("2006-01-02 15:04:05"),
		order.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
