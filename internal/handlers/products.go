package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/services"
	"coffeeshop/internal/store"
)

/*
GET /products
- category and search filters
- pagination only when page or limit is given
*/
func GetProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := catalog.List(ctx, store.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func GetProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.Get(ctx, c.Param("id"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

func GetCategories(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/categories"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		categories, err := catalog.Categories(ctx)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if categories == nil {
			categories = []string{}
		}

		c.JSON(http.StatusOK, categories)
	}
}
