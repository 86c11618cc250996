package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"coffeeshop/internal/cache"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

const catalogCachePrefix = "catalog:"

type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	Image         string
	Category      string
	Stock         models.StockStatus
	IsPopular     bool
	IsNew         bool
	OfferTag      string
}

// ProductPatch is a partial update; nil fields keep their stored value.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	ClearOffer    bool
	Image         *string
	Category      *string
	Stock         *models.StockStatus
	IsPopular     *bool
	IsNew         *bool
	OfferTag      *string
}

type ProductPage struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
	Page  int64            `json:"page,omitempty"`
	Limit int64            `json:"limit,omitempty"`
}

type CatalogService struct {
	products store.ProductRepository
	cache    cache.Cache
	ttl      time.Duration
	log      *zap.Logger
}

func NewCatalogService(products store.ProductRepository, c cache.Cache, ttl time.Duration) *CatalogService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CatalogService{products: products, cache: c, ttl: ttl, log: logger.Named("catalog")}
}

func (s *CatalogService) List(ctx context.Context, filter store.ProductFilter) (ProductPage, error) {
	key := fmt.Sprintf("%sproducts:%s|%s|%d|%d", catalogCachePrefix,
		strings.ToLower(strings.TrimSpace(filter.Category)),
		strings.ToLower(strings.TrimSpace(filter.Search)),
		filter.Page, filter.Limit)

	var page ProductPage
	if err := s.cache.Get(ctx, key, &page); err == nil {
		return page, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, total, err := s.products.List(ctx, filter)
	if err != nil {
		return ProductPage{}, err
	}
	for i := range items {
		decorate(&items[i])
	}
	page = ProductPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}

	if err := s.cache.Set(ctx, key, page, s.ttl); err != nil {
		s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return page, nil
}

func (s *CatalogService) Get(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, ErrNotFound
	}
	product, err := s.products.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	decorate(product)
	return product, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	key := catalogCachePrefix + "categories"

	var categories []string
	if err := s.cache.Get(ctx, key, &categories); err == nil {
		return categories, nil
	}

	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, categories, s.ttl); err != nil {
		s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return categories, nil
}

func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

func (s *CatalogService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.Stock == "" {
		input.Stock = models.StockInStock
	}
	product := &models.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Image:         strings.TrimSpace(input.Image),
		Category:      strings.TrimSpace(input.Category),
		Stock:         input.Stock,
		IsPopular:     input.IsPopular,
		IsNew:         input.IsNew,
		OfferTag:      strings.TrimSpace(input.OfferTag),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	decorate(product)
	s.log.Info("product created", zap.String("productId", product.ID.Hex()), zap.String("name", product.Name))
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, rawID string, patch ProductPatch) (*models.Product, error) {
	product, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}

	offer, err := resolveOfferUpdate(product.Price, product.OriginalPrice, offerPatch{
		Price:         patch.Price,
		OriginalPrice: patch.OriginalPrice,
		ClearOffer:    patch.ClearOffer,
	})
	if err != nil {
		return nil, ValidationError{Message: err.Error()}
	}
	product.Price = offer.Price
	product.OriginalPrice = offer.OriginalPrice

	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		product.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Image != nil {
		product.Image = strings.TrimSpace(*patch.Image)
	}
	if patch.Category != nil {
		product.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.IsPopular != nil {
		product.IsPopular = *patch.IsPopular
	}
	if patch.IsNew != nil {
		product.IsNew = *patch.IsNew
	}
	if patch.OfferTag != nil {
		product.OfferTag = strings.TrimSpace(*patch.OfferTag)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.products.Replace(ctx, product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	decorate(product)
	return product, nil
}

func (s *CatalogService) UpdateStock(ctx context.Context, rawID string, stock models.StockStatus) error {
	if !stock.Valid() {
		return ValidationError{Message: "stock must be In Stock, Low Stock or Out of Stock"}
	}
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.products.UpdateStock(ctx, id, stock); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) Delete(ctx context.Context, rawID string) error {
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, catalogCachePrefix); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return ValidationError{Message: "name is required"}
	}
	if !product.Stock.Valid() {
		return ValidationError{Message: "stock must be In Stock, Low Stock or Out of Stock"}
	}
	if err := validateOfferFields(product.Price, product.OriginalPrice); err != nil {
		return ValidationError{Message: err.Error()}
	}
	return nil
}

func decorate(product *models.Product) {
	product.OnOffer = isOnOffer(product.Price, product.OriginalPrice)
}
