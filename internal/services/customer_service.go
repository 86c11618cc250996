package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

// CustomerService serves the back-office customer views. Every customer is
// a projection of a User; nothing here keeps its own copy of loyalty data.
type CustomerService struct {
	users  store.UserRepository
	orders store.OrderRepository
	log    *zap.Logger
}

type CustomerDetail struct {
	models.Customer
	OrderHistory []models.Order `json:"orderHistory"`
}

func NewCustomerService(users store.UserRepository, orders store.OrderRepository) *CustomerService {
	return &CustomerService{users: users, orders: orders, log: logger.Named("customer")}
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	customers := make([]models.Customer, 0, len(users))
	for _, user := range users {
		if user.Role != models.RoleCustomer {
			continue
		}
		customers = append(customers, models.CustomerFromUser(user, TierFor(user.Loyalty.Points)))
	}
	return customers, nil
}

func (s *CustomerService) Get(ctx context.Context, rawID string) (*CustomerDetail, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.List(ctx, store.OrderFilter{Email: user.Email})
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{
		Customer:     models.CustomerFromUser(*user, TierFor(user.Loyalty.Points)),
		OrderHistory: orders,
	}, nil
}

// Delete removes the account. Orders stay on record for bookkeeping.
func (s *CustomerService) Delete(ctx context.Context, rawID string) error {
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info("customer deleted", zap.String("userId", id.Hex()))
	return nil
}

func (s *CustomerService) Count(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}
