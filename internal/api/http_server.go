// Package api поднимает HTTP API рядом с ботом: каталог и заказы для
// внешних интеграций.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lavka/internal/config"
	"lavka/internal/database"
	"lavka/internal/domain"
	"lavka/internal/metrics"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

// HTTPServer отдаёт каталог и заказы по ключу API.
type HTTPServer struct {
	cfg     config.APIConfig
	catalog domain.CatalogService
	orders  domain.OrderService
	server  *http.Server
	auth    *HTTPAuth
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, catalog domain.CatalogService, orders domain.OrderService, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, catalog: catalog, orders: orders, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/products", srv.handleProducts)
	mux.HandleFunc("/api/v1/orders", srv.handleOrders)
	mux.HandleFunc("/api/v1/orders/", srv.handleOrder)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleProducts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("products")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	products, err := s.catalog.Products(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *HTTPServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("orders")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 200 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
		return
	}
	if offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be non-negative")
		return
	}

	if status == "" {
		orders, err := s.orders.AllOrders(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load orders")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": len(orders)})
		return
	}

	orders, total, err := s.orders.OrdersPage(r.Context(), status, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": total})
}

func (s *HTTPServer) handleOrder(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/orders/"
	rawID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))

	if strings.HasSuffix(rawID, "/status") {
		s.handleOrderStatus(w, r, strings.TrimSuffix(rawID, "/status"))
		return
	}

	metrics.IncHTTP("order")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := parseOrderID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// handleOrderStatus переводит заказ в новый статус. Используется CRM при
// обработке доставки.
func (s *HTTPServer) handleOrderStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	metrics.IncHTTP("order_status")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := parseOrderID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := strings.TrimSpace(body.Status)
	if !validOrderStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	if _, err := s.orders.GetOrder(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	if err := s.orders.SetStatus(r.Context(), id, status); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update order status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

func validOrderStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusProcessing, models.StatusShipped,
		models.StatusDelivered, models.StatusCancelled:
		return true
	}
	return false
}

func parseOrderID(rawID string) (int64, error) {
	if rawID == "" || strings.Contains(rawID, "/") {
		return 0, fmt.Errorf("order id is required")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id")
	}
	return id, nil
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
