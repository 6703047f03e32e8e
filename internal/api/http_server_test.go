package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lavka/internal/config"
	"lavka/internal/database"
	"lavka/internal/events"
	"lavka/internal/models"
	"lavka/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: "full-key", Name: "integration"},
				{Key: "orders-key", Name: "crm", Permissions: []string{"read:orders"}},
			},
		},
	}
}

func setupServer(t *testing.T, cfg config.APIConfig) (*HTTPServer, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog := service.NewCatalogService(db, &logger)
	orders := service.NewOrderService(db, events.NewEventBus(), nil, &logger)
	return NewHTTPServer(cfg, catalog, orders, &logger), db
}

func doRequest(t *testing.T, srv *HTTPServer, method, path, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func doRequestBody(t *testing.T, srv *HTTPServer, method, path, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestProductsEndpoint(t *testing.T) {
	srv, db := setupServer(t, testConfig())
	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Name: "Кофе", Price: 10}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Name: "Чай", Price: 5}))

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/products", "full-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Products, 2)
}

func TestOrdersEndpoint(t *testing.T) {
	srv, db := setupServer(t, testConfig())
	ctx := context.Background()

	require.NoError(t, db.CreateOrder(ctx, &models.Order{UserID: 1, Status: models.StatusPending, TotalPrice: 10, TotalCount: 1}))
	require.NoError(t, db.CreateOrder(ctx, &models.Order{UserID: 2, Status: models.StatusDelivered, TotalPrice: 20, TotalCount: 2}))

	t.Run("All", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders", "orders-key")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Orders []models.Order `json:"orders"`
			Total  int64          `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Orders, 2)
	})

	t.Run("FilteredByStatus", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders?status="+models.StatusPending, "orders-key")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Orders []models.Order `json:"orders"`
			Total  int64          `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Orders, 1)
		assert.Equal(t, models.StatusPending, body.Orders[0].Status)
		assert.Equal(t, int64(1), body.Total)
	})

	t.Run("BadLimit", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders?limit=0", "orders-key")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderByID(t *testing.T) {
	srv, db := setupServer(t, testConfig())
	ctx := context.Background()

	order := &models.Order{UserID: 1, Status: models.StatusPending, TotalPrice: 10, TotalCount: 1}
	require.NoError(t, db.CreateOrder(ctx, order))

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders/1", "full-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, order.ID, body.Order.ID)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/orders/999", "full-key")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/orders/abc", "full-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatusUpdate(t *testing.T) {
	srv, db := setupServer(t, testConfig())
	ctx := context.Background()

	order := &models.Order{UserID: 1, Status: models.StatusPending, TotalPrice: 10, TotalCount: 1}
	require.NoError(t, db.CreateOrder(ctx, order))

	t.Run("OK", func(t *testing.T) {
		rec := doRequestBody(t, srv, http.MethodPost, "/api/v1/orders/1/status", "full-key",
			`{"status":"`+models.StatusDelivered+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		updated, err := db.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDelivered, updated.Status)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		rec := doRequestBody(t, srv, http.MethodPost, "/api/v1/orders/1/status", "full-key",
			`{"status":"Потерян"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := doRequestBody(t, srv, http.MethodPost, "/api/v1/orders/999/status", "full-key",
			`{"status":"`+models.StatusDelivered+`"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("BadBody", func(t *testing.T) {
		rec := doRequestBody(t, srv, http.MethodPost, "/api/v1/orders/1/status", "full-key", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ReadOnlyKeyDenied", func(t *testing.T) {
		rec := doRequestBody(t, srv, http.MethodPost, "/api/v1/orders/1/status", "orders-key",
			`{"status":"`+models.StatusCancelled+`"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("GetMethodRejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/orders/1/status", "full-key")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestAuth(t *testing.T) {
	srv, _ := setupServer(t, testConfig())

	t.Run("MissingKey", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/products", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/products", "wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		// orders-key ограничен правом read:orders
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/products", "orders-key")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("HealthWithoutKey", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	srv, _ := setupServer(t, cfg)

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/products", "full-key")
		codes[rec.Code]++
	}

	assert.Positive(t, codes[http.StatusTooManyRequests])
}

func TestAuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = false
	srv, _ := setupServer(t, cfg)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/products", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
