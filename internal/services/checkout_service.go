package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coffeeshop/internal/database"
	"coffeeshop/internal/events"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

type CheckoutRequest struct {
	UserID         primitive.ObjectID
	Email          string
	CustomerName   string
	CouponCode     string
	DeliveryMethod string
	DeliveryFee    *float64
	Location       string
	PaymentMethod  string
}

// CheckoutService turns a cart into an order. The sequence is: price the
// cart, create the order, credit loyalty and link the order to its owner,
// count the coupon use, then empty the cart.
type CheckoutService struct {
	carts     *CartService
	coupons   *CouponService
	orders    *OrderService
	loyalty   *LoyaltyService
	delivery  *DeliveryService
	users     store.UserRepository
	orderRepo store.OrderRepository
	tx        database.Transactor
	publisher events.Publisher
	log       *zap.Logger
}

type CheckoutDeps struct {
	Carts     *CartService
	Coupons   *CouponService
	Orders    *OrderService
	Loyalty   *LoyaltyService
	Delivery  *DeliveryService
	Users     store.UserRepository
	OrderRepo store.OrderRepository
	Tx        database.Transactor
	Publisher events.Publisher
}

func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CheckoutService{
		carts:     deps.Carts,
		coupons:   deps.Coupons,
		orders:    deps.Orders,
		loyalty:   deps.Loyalty,
		delivery:  deps.Delivery,
		users:     deps.Users,
		orderRepo: deps.OrderRepo,
		tx:        deps.Tx,
		publisher: publisher,
		log:       logger.Named("checkout"),
	}
}

// ValidateCoupon checks a code against the caller's current cart subtotal.
func (s *CheckoutService) ValidateCoupon(ctx context.Context, userID primitive.ObjectID, code string) (CouponResult, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return CouponResult{}, err
	}
	return s.coupons.Validate(ctx, code, Subtotal(items))
}

// PlaceOrder runs the checkout. With transactions enabled every write commits
// or aborts together. Without them a failure after the order is written is
// compensated: earlier writes are reversed where possible and the order is
// marked Failed, so no order is silently orphaned.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	if req.UserID.IsZero() {
		return nil, ErrUnauthenticated
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, ValidationError{Message: "delivery address is required"}
	}

	deliveryFee, err := s.delivery.Resolve(req.DeliveryMethod, req.DeliveryFee)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := Subtotal(items)
	code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	discount := 0.0
	if code != "" {
		result, err := s.coupons.Validate(ctx, code, subtotal)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, CouponRejectedError{Code: code, Message: result.Message}
		}
		discount = ClampDiscount(result.Discount, subtotal)
	}

	total := OrderTotal(subtotal, deliveryFee, discount)
	order := &models.Order{
		UserID:        &req.UserID,
		Customer:      strings.TrimSpace(req.CustomerName),
		Email:         email,
		Items:         orderItems(items),
		Subtotal:      subtotal,
		DeliveryFee:   deliveryFee,
		Discount:      discount,
		CouponCode:    code,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Location:      location,
		LoyaltyPoints: PointsEarned(total),
	}
	if order.Customer == "" {
		order.Customer = "Guest User"
	}

	owner, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		owner = nil
		s.log.Warn("customer not found for email, points not awarded", zap.String("email", email))
	} else if err != nil {
		return nil, err
	}

	var saga checkoutSaga
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		saga = checkoutSaga{}

		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		saga.orderCreated = true

		if owner != nil {
			if err := s.loyalty.Credit(ctx, owner.ID, order.LoyaltyPoints); err != nil {
				return err
			}
			saga.creditedTo = &owner.ID
			if err := s.users.AppendOrder(ctx, owner.ID, order.ID.Hex()); err != nil {
				return err
			}
			saga.linked = true
		}

		if code != "" {
			if err := s.coupons.IncrementUse(ctx, code); err != nil {
				return err
			}
			saga.couponUsed = true
		}

		return s.carts.Clear(ctx, req.UserID)
	})
	if err != nil {
		if !s.tx.Atomic() && saga.orderCreated {
			s.compensate(ctx, order, saga, err)
		}
		s.log.Error("checkout failed", zap.String("userId", req.UserID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.log.Info("order placed",
		zap.String("orderId", order.ID.Hex()),
		zap.String("email", email),
		zap.Float64("total", order.Total),
		zap.Int("loyaltyPoints", order.LoyaltyPoints),
	)
	s.publish(ctx, order)
	return order, nil
}

type checkoutSaga struct {
	orderCreated bool
	creditedTo   *primitive.ObjectID
	linked       bool
	couponUsed   bool
}

const compensationTimeout = 5 * time.Second

// compensationContext keeps the caller's values but not its deadline: the
// forward step may have failed precisely because that deadline passed.
func compensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}

func (s *CheckoutService) compensate(ctx context.Context, order *models.Order, saga checkoutSaga, cause error) {
	ctx, cancel := compensationContext(ctx)
	defer cancel()
	log := s.log.With(zap.String("orderId", order.ID.Hex()))

	if saga.creditedTo != nil {
		if err := s.users.CreditPoints(ctx, *saga.creditedTo, -order.LoyaltyPoints); err != nil {
			log.Error("compensation: points reversal failed", zap.Error(err))
		}
	}
	if saga.linked {
		if err := s.users.RemoveOrder(ctx, order.ID.Hex()); err != nil {
			log.Error("compensation: order unlink failed", zap.Error(err))
		}
	}
	if saga.couponUsed {
		if err := s.coupons.ReleaseUse(ctx, order.CouponCode); err != nil {
			log.Error("compensation: coupon release failed", zap.String("code", order.CouponCode), zap.Error(err))
		}
	}
	if err := s.orderRepo.MarkFailed(ctx, order.ID, cause.Error()); err != nil {
		log.Error("compensation: mark failed did not apply", zap.Error(err))
		return
	}
	log.Warn("order marked failed", zap.String("reason", cause.Error()))
}

func (s *CheckoutService) publish(ctx context.Context, order *models.Order) {
	err := s.publisher.Publish(ctx, events.OrderEvent{
		Type:          events.OrderPlaced,
		OrderID:       order.ID.Hex(),
		Email:         order.Email,
		Status:        string(order.Status),
		Total:         order.Total,
		LoyaltyPoints: order.LoyaltyPoints,
		OccurredAt:    order.Date,
	})
	if err != nil {
		s.log.Warn("order placed event not published", zap.String("orderId", order.ID.Hex()), zap.Error(err))
	}
}

func orderItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Total:    LineTotal(item.Price, item.Quantity),
		})
	}
	return out
}
