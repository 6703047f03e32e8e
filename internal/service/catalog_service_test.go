package service

import (
	"context"
	"testing"

	"lavka/internal/database"
	"lavka/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogService(t *testing.T) (*CatalogService, *database.DB) {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	return NewCatalogService(db, &logger), db
}

func TestCatalogService_CRUD(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	p := &models.Product{Name: "Чай", Price: 3.5}
	require.NoError(t, svc.CreateProduct(ctx, p))

	got, err := svc.Product(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Чай", got.Name)

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.Product(ctx, p.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRenderCaption_Product(t *testing.T) {
	svc, _ := newCatalogService(t)

	p := &models.Product{Name: "Чай", Description: "Чёрный", Price: 3.5}
	want := "Название: <b>Чай</b>\n\nОписание: <i>Чёрный</i>\n\nСтоимость: 3.5$"
	assert.Equal(t, want, svc.RenderCaption(p, CaptionProduct))
}

func TestRenderCaption_NoDescription(t *testing.T) {
	svc, _ := newCatalogService(t)

	p := &models.Product{Name: "Чай", Price: 3}
	got := svc.RenderCaption(p, CaptionProduct)
	assert.Contains(t, got, "<i>Нет описания</i>")
}

func TestRenderCaption_Delete(t *testing.T) {
	svc, _ := newCatalogService(t)

	p := &models.Product{Name: "Чай"}
	assert.Equal(t, "Вы уверены, что хотите удалить: <b>Чай</b>?", svc.RenderCaption(p, CaptionDelete))
}

func TestRenderCaption_UnknownTagFallsBack(t *testing.T) {
	svc, _ := newCatalogService(t)

	p := &models.Product{Name: "Чай", Price: 3}
	assert.Equal(t, svc.RenderCaption(p, CaptionProduct), svc.RenderCaption(p, "garbage"))
}
