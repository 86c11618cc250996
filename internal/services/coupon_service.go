package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

const (
	msgInvalidCoupon  = "Invalid coupon code"
	msgInactiveCoupon = "This coupon is inactive"
	msgExpiredCoupon  = "This coupon has expired"
	msgCouponMaxUses  = "This coupon has reached maximum usage"
)

// CouponResult is the outcome of checking a code against a purchase amount.
type CouponResult struct {
	Valid    bool           `json:"valid"`
	Discount float64        `json:"discount"`
	Message  string         `json:"message,omitempty"`
	Coupon   *models.Coupon `json:"-"`
}

type CouponInput struct {
	Code        string
	Type        models.CouponType
	Value       float64
	MinPurchase *float64
	ValidFrom   time.Time
	ValidTo     time.Time
	MaxUses     *int
	IsActive    bool
}

type CouponService struct {
	coupons store.CouponRepository
	now     func() time.Time
	log     *zap.Logger
}

func NewCouponService(coupons store.CouponRepository) *CouponService {
	return &CouponService{coupons: coupons, now: time.Now, log: logger.Named("coupon")}
}

// Validate looks the code up (case-insensitively) and reports whether it
// applies to amount. A rejected code is not an error; only lookup failures are.
func (s *CouponService) Validate(ctx context.Context, code string, amount float64) (CouponResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CouponResult{Message: msgInvalidCoupon}, nil
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return CouponResult{Message: msgInvalidCoupon}, nil
	}
	if err != nil {
		return CouponResult{}, fmt.Errorf("lookup coupon %s: %w", code, err)
	}

	if msg := s.rejection(*coupon, amount); msg != "" {
		return CouponResult{Message: msg, Coupon: coupon}, nil
	}
	return CouponResult{
		Valid:    true,
		Discount: CouponDiscount(*coupon, amount),
		Coupon:   coupon,
	}, nil
}

func (s *CouponService) rejection(coupon models.Coupon, amount float64) string {
	if !coupon.IsActive {
		return msgInactiveCoupon
	}

	now := s.now()
	if !coupon.ValidFrom.IsZero() && now.Before(coupon.ValidFrom.Time) {
		return msgExpiredCoupon
	}
	if !coupon.ValidTo.IsZero() && now.After(coupon.ValidTo.Time) {
		return msgExpiredCoupon
	}
	if coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses {
		return msgCouponMaxUses
	}
	if coupon.MinPurchase != nil && amount < *coupon.MinPurchase {
		return fmt.Sprintf("Minimum purchase of KES %v required", *coupon.MinPurchase)
	}
	return ""
}

// IncrementUse records one redemption. The store refuses the increment once
// the cap is reached, which surfaces here as a rejection.
func (s *CouponService) IncrementUse(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))

	err := s.coupons.IncrementUse(ctx, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConditionFailed):
		s.log.Warn("coupon usage cap reached during checkout", zap.String("code", code))
		return CouponRejectedError{Code: code, Message: msgCouponMaxUses}
	}
	return fmt.Errorf("increment coupon %s: %w", code, err)
}

// ReleaseUse hands back a use recorded by a checkout that did not complete.
func (s *CouponService) ReleaseUse(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := s.coupons.DecrementUse(ctx, code); err != nil {
		return fmt.Errorf("release coupon %s: %w", code, err)
	}
	return nil
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.List(ctx)
}

func (s *CouponService) Get(ctx context.Context, rawID string) (*models.Coupon, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, ErrNotFound
	}
	coupon, err := s.coupons.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return coupon, err
}

func (s *CouponService) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{CurrentUses: 0}
	applyCouponInput(coupon, input)

	if err := s.coupons.Create(ctx, coupon); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrCouponExists
		}
		return nil, err
	}
	s.log.Info("coupon created", zap.String("code", coupon.Code))
	return coupon, nil
}

// Update replaces the editable fields and keeps usage and creation stamps.
func (s *CouponService) Update(ctx context.Context, rawID string, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	applyCouponInput(coupon, input)

	if err := s.coupons.Replace(ctx, coupon); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrCouponExists
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) SetActive(ctx context.Context, rawID string, active bool) error {
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.coupons.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CouponService) Delete(ctx context.Context, rawID string) error {
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.coupons.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func validateCouponInput(input CouponInput) error {
	switch {
	case strings.TrimSpace(input.Code) == "":
		return ValidationError{Message: "code is required"}
	case !input.Type.Valid():
		return ValidationError{Message: "type must be Percentage or Fixed"}
	case input.Value <= 0:
		return ValidationError{Message: "value must be greater than 0"}
	case input.Type == models.CouponPercentage && input.Value > 100:
		return ValidationError{Message: "percentage value cannot exceed 100"}
	case input.MinPurchase != nil && *input.MinPurchase < 0:
		return ValidationError{Message: "minPurchase cannot be negative"}
	case input.MaxUses != nil && *input.MaxUses < 1:
		return ValidationError{Message: "maxUses must be at least 1"}
	case input.ValidFrom.IsZero() || input.ValidTo.IsZero():
		return ValidationError{Message: "validFrom and validTo are required"}
	case input.ValidTo.Before(input.ValidFrom):
		return ValidationError{Message: "validTo must be after validFrom"}
	}
	return nil
}

func applyCouponInput(coupon *models.Coupon, input CouponInput) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	coupon.Type = input.Type
	coupon.Value = input.Value
	coupon.MinPurchase = input.MinPurchase
	coupon.ValidFrom = models.NewFlexTime(input.ValidFrom.UTC())
	coupon.ValidTo = models.NewFlexTime(input.ValidTo.UTC())
	coupon.MaxUses = input.MaxUses
	coupon.IsActive = input.IsActive
}
