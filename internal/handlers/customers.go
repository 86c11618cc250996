package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
)

func GetCustomers(customers *services.CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/customers"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := customers.List(ctx)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Customer{}
		}

		c.JSON(http.StatusOK, list)
	}
}

func GetCustomer(customers *services.CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/customers/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		detail, err := customers.Get(ctx, c.Param("id"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, detail)
	}
}

// DeleteCustomer removes the account. Orders stay for bookkeeping.
func DeleteCustomer(customers *services.CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/customers/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := customers.Delete(ctx, c.Param("id")); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
	}
}
