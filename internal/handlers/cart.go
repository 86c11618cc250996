package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
)

type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"omitempty,gte=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func cartResponse(items []models.CartItem) gin.H {
	if items == nil {
		items = []models.CartItem{}
	}
	return gin.H{"items": items, "subtotal": services.Subtotal(items)}
}

func GetCart(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.Get(ctx, principal.UserID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(items))
	}
}

// AddCartItem prices the line from the catalog; the client only names the
// product and quantity.
func AddCartItem(carts *services.CartService, catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.Get(ctx, req.ProductID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if product.Stock == models.StockOut {
			respondWithError(c, http.StatusBadRequest, route, product.Name+" is out of stock")
			return
		}

		price := product.Price
		var originalPrice *float64
		if product.OnOffer {
			originalPrice = product.OriginalPrice
		}
		items, err := carts.Add(ctx, principal.UserID, services.CartItemInput{
			ID:            product.ID.Hex(),
			Name:          product.Name,
			Price:         &price,
			OriginalPrice: originalPrice,
			Image:         product.Image,
			Quantity:      &quantity,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(items))
	}
}

func UpdateCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/items/:id"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.UpdateQuantity(ctx, principal.UserID, c.Param("id"), req.Quantity)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(items))
	}
}

func RemoveCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:id"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.Remove(ctx, principal.UserID, c.Param("id"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(items))
	}
}

func ClearCart(carts *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := carts.Clear(ctx, principal.UserID); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(nil))
	}
}
