package services

import (
	"context"

	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

const recentOrderCount = 5

type Dashboard struct {
	Revenue      float64        `json:"revenue"`
	Orders       int64          `json:"orders"`
	Customers    int64          `json:"customers"`
	Products     int64          `json:"products"`
	RecentOrders []models.Order `json:"recentOrders"`
}

type DashboardService struct {
	orders   store.OrderRepository
	users    store.UserRepository
	products store.ProductRepository
}

func NewDashboardService(orders store.OrderRepository, users store.UserRepository, products store.ProductRepository) *DashboardService {
	return &DashboardService{orders: orders, users: users, products: products}
}

func (s *DashboardService) Summary(ctx context.Context) (Dashboard, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	customers, err := s.users.Count(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.orders.List(ctx, store.OrderFilter{Limit: recentOrderCount})
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Revenue:      stats.Revenue,
		Orders:       stats.Count,
		Customers:    customers,
		Products:     products,
		RecentOrders: recent,
	}, nil
}
