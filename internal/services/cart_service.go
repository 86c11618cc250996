package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

// CartItemInput mirrors an add-to-cart request. Pointer fields distinguish
// a missing value from a zero one.
type CartItemInput struct {
	ID            string
	Name          string
	Price         *float64
	OriginalPrice *float64
	Image         string
	Quantity      *int
}

type CartService struct {
	carts store.CartRepository
	log   *zap.Logger
}

func NewCartService(carts store.CartRepository) *CartService {
	return &CartService{carts: carts, log: logger.Named("cart")}
}

// Get returns the user's items, or an empty list when no cart exists yet.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	if userID.IsZero() {
		return nil, ErrUnauthenticated
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

// Add merges by product id: re-adding an item raises its quantity instead of
// adding a second line.
func (s *CartService) Add(ctx context.Context, userID primitive.ObjectID, input CartItemInput) ([]models.CartItem, error) {
	if userID.IsZero() {
		return nil, ErrUnauthenticated
	}

	item, err := normalizeCartItem(input)
	if err != nil {
		return nil, err
	}

	items, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.carts.Save(ctx, userID, items); err != nil {
		return nil, err
	}
	s.log.Debug("item added to cart",
		zap.String("userId", userID.Hex()),
		zap.String("itemId", item.ID),
		zap.Bool("merged", merged),
	)
	return items, nil
}

// UpdateQuantity overwrites the quantity of a matching line. Missing carts
// and items are left alone; the floor on quantity is the caller's concern.
func (s *CartService) UpdateQuantity(ctx context.Context, userID primitive.ObjectID, itemID string, quantity int) ([]models.CartItem, error) {
	return s.mutate(ctx, userID, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

func (s *CartService) Remove(ctx context.Context, userID primitive.ObjectID, itemID string) ([]models.CartItem, error) {
	return s.mutate(ctx, userID, func(items []models.CartItem) []models.CartItem {
		kept := make([]models.CartItem, 0, len(items))
		for _, item := range items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		return kept
	})
}

func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.mutate(ctx, userID, func([]models.CartItem) []models.CartItem {
		return []models.CartItem{}
	})
	return err
}

// mutate applies fn to an existing cart. It never creates a cart.
func (s *CartService) mutate(ctx context.Context, userID primitive.ObjectID, fn func([]models.CartItem) []models.CartItem) ([]models.CartItem, error) {
	if userID.IsZero() {
		return nil, ErrUnauthenticated
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	items := fn(cart.Items)
	if err := s.carts.Save(ctx, userID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeCartItem(input CartItemInput) (models.CartItem, error) {
	id := strings.TrimSpace(input.ID)
	name := strings.TrimSpace(input.Name)
	if id == "" || name == "" || input.Price == nil || input.Quantity == nil {
		return models.CartItem{}, ErrInvalidItem
	}
	if *input.Price < 0 || *input.Quantity < 0 {
		return models.CartItem{}, ErrInvalidItem
	}

	quantity := *input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return models.CartItem{
		ID:            id,
		Name:          name,
		Price:         *input.Price,
		OriginalPrice: input.OriginalPrice,
		Image:         strings.TrimSpace(input.Image),
		Quantity:      quantity,
	}, nil
}
