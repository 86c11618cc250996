package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"coffeeshop/internal/database"
	"coffeeshop/internal/events"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

const defaultPaymentMethod = "Cash on Delivery"

type OrderService struct {
	orders    store.OrderRepository
	users     store.UserRepository
	tx        database.Transactor
	publisher events.Publisher
	now       func() time.Time
	log       *zap.Logger
}

func NewOrderService(orders store.OrderRepository, users store.UserRepository, tx database.Transactor, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &OrderService{
		orders:    orders,
		users:     users,
		tx:        tx,
		publisher: publisher,
		now:       time.Now,
		log:       logger.Named("order"),
	}
}

// Create fills defaults and persists the order. Caller-supplied tracking
// steps are kept; otherwise the canonical five are seeded.
func (s *OrderService) Create(ctx context.Context, order *models.Order) error {
	now := s.now().UTC()
	if order.Date.IsZero() {
		order.Date = now
	}
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentPending
	}
	if strings.TrimSpace(order.PaymentMethod) == "" {
		order.PaymentMethod = defaultPaymentMethod
	}
	if len(order.TrackingSteps) == 0 {
		order.TrackingSteps = DefaultTrackingSteps(order.Date)
	}
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	order.UpdatedAt = now

	if err := s.orders.Create(ctx, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, rawID string) (*models.Order, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, ErrNotFound
	}

	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return order, err
}

func (s *OrderService) ByCustomer(ctx context.Context, email string) ([]models.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrUnauthenticated
	}
	return s.orders.List(ctx, store.OrderFilter{Email: email})
}

// List returns orders newest first, optionally narrowed to one status.
func (s *OrderService) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() && status != models.OrderFailed {
		return nil, ErrInvalidStatus
	}
	return s.orders.List(ctx, store.OrderFilter{Status: status})
}

func (s *OrderService) UpdateStatus(ctx context.Context, rawID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}

	steps := order.TrackingSteps
	if len(steps) == 0 {
		steps = DefaultTrackingSteps(order.Date)
	}
	steps = ApplyStatus(steps, status, s.now())

	if err := s.orders.UpdateStatus(ctx, order.ID, status, steps); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	order.Status = status
	order.TrackingSteps = steps

	s.log.Info("order status updated", zap.String("orderId", order.ID.Hex()), zap.String("status", string(status)))
	s.publish(ctx, events.OrderEvent{
		Type:    events.OrderStatusChanged,
		OrderID: order.ID.Hex(),
		Email:   order.Email,
		Status:  string(status),
		Total:   order.Total,
	})
	return order, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, rawID string, status models.PaymentStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}

	if err := s.orders.UpdatePaymentStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes the order and unlinks it from its owner in one unit of work.
func (s *OrderService) Delete(ctx context.Context, rawID string) error {
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Delete(ctx, id); err != nil {
			return err
		}
		return s.users.RemoveOrder(ctx, id.Hex())
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id.Hex(), err)
	}

	s.log.Info("order deleted", zap.String("orderId", id.Hex()))
	s.publish(ctx, events.OrderEvent{Type: events.OrderDeleted, OrderID: id.Hex()})
	return nil
}

// publish never fails the caller; the order write already happened.
func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("order event not published", zap.String("type", event.Type), zap.String("orderId", event.OrderID), zap.Error(err))
	}
}
