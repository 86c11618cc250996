package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/models"
)

type ProductFilter struct {
	Category string
	Search   string
	Page     int64
	Limit    int64
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Replace(ctx context.Context, product *models.Product) error
	UpdateStock(ctx context.Context, id primitive.ObjectID, stock models.StockStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	Categories(ctx context.Context) ([]string, error)
}

type CartRepository interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error
}

// OrderFilter narrows an order listing. Zero values match everything.
type OrderFilter struct {
	Email  string
	Status models.OrderStatus
	Limit  int64
}

type OrderStats struct {
	Count   int64
	Revenue float64
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, steps []models.TrackingStep) error
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (OrderStats, error)
}

type CouponRepository interface {
	List(ctx context.Context) ([]models.Coupon, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Replace(ctx context.Context, coupon *models.Coupon) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementUse(ctx context.Context, code string) error
	DecrementUse(ctx context.Context, code string) error
}

type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (*models.User, error)
	CreditPoints(ctx context.Context, id primitive.ObjectID, points int) error
	DebitPoints(ctx context.Context, id primitive.ObjectID, points int) error
	AppendOrder(ctx context.Context, id primitive.ObjectID, orderID string) error
	RemoveOrder(ctx context.Context, orderID string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type RewardRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Reward, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error)
	Create(ctx context.Context, reward *models.Reward) error
	Replace(ctx context.Context, reward *models.Reward) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type RedemptionRepository interface {
	Create(ctx context.Context, redemption *models.Redemption) error
	// List returns redemptions newest first. A nil userID lists everyone's.
	List(ctx context.Context, userID *primitive.ObjectID) ([]models.Redemption, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error
	RevokeAllForUser(ctx context.Context, userID primitive.ObjectID) error
}
