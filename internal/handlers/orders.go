package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/authz"
	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
)

type OrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type PaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus" binding:"required"`
}

func GetMyOrders(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/mine"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.ByCustomer(ctx, principal.Email)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// GetOrder serves the tracking view. Customers only see their own orders;
// someone else's order is reported as not found.
func GetOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.Get(ctx, c.Param("id"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if order.Email != principal.Email && !authz.Can(principal.Role, authz.ManageOrders) {
			respondWithError(c, http.StatusNotFound, route, "not found")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func GetOrders(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.List(ctx, models.OrderStatus(c.Query("status")))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

func UpdateOrderStatus(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		var req OrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.UpdateStatus(ctx, c.Param("id"), req.Status)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func UpdatePaymentStatus(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/payment"
		defer handlePanic(c, route)

		var req PaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := orders.UpdatePaymentStatus(ctx, c.Param("id"), req.PaymentStatus); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "payment status updated", "paymentStatus": req.PaymentStatus})
	}
}

func DeleteOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := orders.Delete(ctx, c.Param("id")); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

func GetDashboard(dashboard *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/dashboard"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		summary, err := dashboard.Summary(ctx)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
