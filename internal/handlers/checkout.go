package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/services"
)

// CheckoutRecorder receives checkout outcomes for metrics.
type CheckoutRecorder interface {
	OrderPlaced(total float64, points int)
	CheckoutFailed(reason string)
	PointsRedeemed(points int)
}

type noopRecorder struct{}

func (noopRecorder) OrderPlaced(float64, int) {}
func (noopRecorder) CheckoutFailed(string)    {}
func (noopRecorder) PointsRedeemed(int)       {}

func recorderOrNoop(r CheckoutRecorder) CheckoutRecorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}

type CouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type DeliveryQuoteRequest struct {
	Method string `json:"method"`
}

type CheckoutRequest struct {
	CouponCode     string   `json:"couponCode"`
	DeliveryMethod string   `json:"deliveryMethod"`
	DeliveryFee    *float64 `json:"deliveryFee"`
	Location       string   `json:"location" binding:"required"`
	PaymentMethod  string   `json:"paymentMethod"`
	CustomerName   string   `json:"customerName"`
}

func ValidateCoupon(checkout *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/coupon"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		var req CouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := checkout.ValidateCoupon(ctx, principal.UserID, req.Code)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func DeliveryQuote(delivery *services.DeliveryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/delivery-quote"
		defer handlePanic(c, route)

		var req DeliveryQuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		quote, err := delivery.Quote(req.Method)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}

func PlaceOrder(checkout *services.CheckoutService, recorder CheckoutRecorder) gin.HandlerFunc {
	recorder = recorderOrNoop(recorder)
	return func(c *gin.Context) {
		const route = "POST /checkout"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := checkout.PlaceOrder(ctx, services.CheckoutRequest{
			UserID:         principal.UserID,
			Email:          principal.Email,
			CustomerName:   req.CustomerName,
			CouponCode:     req.CouponCode,
			DeliveryMethod: req.DeliveryMethod,
			DeliveryFee:    req.DeliveryFee,
			Location:       req.Location,
			PaymentMethod:  req.PaymentMethod,
		})
		if err != nil {
			recorder.CheckoutFailed(checkoutFailureReason(err))
			respondServiceError(c, route, err)
			return
		}

		recorder.OrderPlaced(order.Total, order.LoyaltyPoints)
		c.JSON(http.StatusCreated, order)
	}
}

func checkoutFailureReason(err error) string {
	var rejected services.CouponRejectedError
	var validation services.ValidationError
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &rejected):
		return "coupon_rejected"
	case errors.As(err, &validation):
		return "invalid_request"
	}
	return "error"
}
