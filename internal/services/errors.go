package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidItem        = errors.New("item missing required properties")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRewardInactive     = errors.New("reward is not active")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCouponExists       = errors.New("coupon code already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// ValidationError carries a message meant for the caller as-is.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// CouponRejectedError is returned when a promo code cannot be applied.
type CouponRejectedError struct {
	Code    string
	Message string
}

func (e CouponRejectedError) Error() string {
	return e.Message
}
