package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
)

type CouponPayload struct {
	Code        string            `json:"code" binding:"required"`
	Type        models.CouponType `json:"type" binding:"required,oneof=Percentage Fixed"`
	Value       *float64          `json:"value" binding:"required,gt=0"`
	MinPurchase *float64          `json:"minPurchase" binding:"omitempty,gte=0"`
	ValidFrom   time.Time         `json:"validFrom" binding:"required"`
	ValidTo     time.Time         `json:"validTo" binding:"required"`
	MaxUses     *int              `json:"maxUses" binding:"omitempty,gte=1"`
	IsActive    *bool             `json:"isActive"`
}

func (p CouponPayload) toInput() services.CouponInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return services.CouponInput{
		Code:        p.Code,
		Type:        p.Type,
		Value:       *p.Value,
		MinPurchase: p.MinPurchase,
		ValidFrom:   p.ValidFrom,
		ValidTo:     p.ValidTo,
		MaxUses:     p.MaxUses,
		IsActive:    active,
	}
}

type CouponActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func GetCoupons(coupons *services.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/coupons"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := coupons.List(ctx)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Coupon{}
		}

		c.JSON(http.StatusOK, list)
	}
}

func CreateCoupon(coupons *services.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/coupons"
		defer handlePanic(c, route)

		var req CouponPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		coupon, err := coupons.Create(ctx, req.toInput())
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, coupon)
	}
}

func UpdateCoupon(coupons *services.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/coupons/:id"
		defer handlePanic(c, route)

		var req CouponPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		coupon, err := coupons.Update(ctx, c.Param("id"), req.toInput())
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, coupon)
	}
}

func SetCouponActive(coupons *services.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/coupons/:id/active"
		defer handlePanic(c, route)

		var req CouponActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := coupons.SetActive(ctx, c.Param("id"), *req.IsActive); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "coupon updated", "isActive": *req.IsActive})
	}
}

func DeleteCoupon(coupons *services.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/coupons/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := coupons.Delete(ctx, c.Param("id")); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "coupon deleted"})
	}
}
