package service

import (
	"context"
	"fmt"

	"lavka/internal/domain"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

// Теги подписей карточки товара. Текст подписи зависит от контекста показа.
const (
	CaptionProduct = "product"
	CaptionDelete  = "delete"
	CaptionEdit    = "edit"
)

type captionFunc func(product *models.Product) string

type CatalogService struct {
	repo     domain.Repository
	logger   *zerolog.Logger
	captions map[string]captionFunc
}

func NewCatalogService(repo domain.Repository, logger *zerolog.Logger) *CatalogService {
	s := &CatalogService{
		repo:   repo,
		logger: logger,
	}
	s.captions = map[string]captionFunc{
		CaptionProduct: s.productCaption,
		CaptionDelete:  s.deleteCaption,
		CaptionEdit:    s.editCaption,
	}
	return s
}

func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAllProducts(ctx)
}

func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("create product error")
		return err
	}
	s.logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, upd models.ProductUpdate) error {
	return s.repo.UpdateProduct(ctx, id, upd)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// RenderCaption строит подпись карточки по тегу контекста. Неизвестный тег
// падает на обычную карточку товара.
func (s *CatalogService) RenderCaption(product *models.Product, tag string) string {
	build, ok := s.captions[tag]
	if !ok {
		build = s.productCaption
	}
	return build(product)
}

func (s *CatalogService) productCaption(product *models.Product) string {
	description := product.Description
	if description == "" {
		description = "Нет описания"
	}
	return fmt.Sprintf("Название: <b>%s</b>\n\nОписание: <i>%s</i>\n\nСтоимость: %s$",
		product.Name, description, formatPrice(product.Price))
}

func (s *CatalogService) deleteCaption(product *models.Product) string {
	return fmt.Sprintf("Вы уверены, что хотите удалить: <b>%s</b>?", product.Name)
}

func (s *CatalogService) editCaption(product *models.Product) string {
	return fmt.Sprintf("Редактирование: <b>%s</b> (ID: %d, Price: %s$)",
		product.Name, product.ID, formatPrice(product.Price))
}
