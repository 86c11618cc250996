package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
	"coffeeshop/internal/storage"
	"coffeeshop/internal/store"
)

type ProductRequest struct {
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	Price         *float64           `json:"price" binding:"required,gte=0"`
	OriginalPrice *float64           `json:"originalPrice"`
	Image         string             `json:"image"`
	Category      string             `json:"category"`
	Stock         models.StockStatus `json:"stock"`
	IsPopular     bool               `json:"isPopular"`
	IsNew         bool               `json:"isNew"`
	OfferTag      string             `json:"offerTag"`
}

type ProductUpdateRequest struct {
	Name          *string             `json:"name"`
	Description   *string             `json:"description"`
	Price         *float64            `json:"price"`
	OriginalPrice *float64            `json:"originalPrice"`
	ClearOffer    bool                `json:"clearOffer"`
	Image         *string             `json:"image"`
	Category      *string             `json:"category"`
	Stock         *models.StockStatus `json:"stock"`
	IsPopular     *bool               `json:"isPopular"`
	IsNew         *bool               `json:"isNew"`
	OfferTag      *string             `json:"offerTag"`
}

type StockRequest struct {
	Stock models.StockStatus `json:"stock" binding:"required"`
}

// GetAllProducts is the admin listing; same filters as the storefront.
func GetAllProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
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

// CreateProduct accepts JSON or a multipart form carrying the image.
func CreateProduct(catalog *services.CatalogService, uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var input services.ProductInput
		uploaded := ""
		if isMultipart(c) {
			form, err := parseMultipartProductRequest(c, uploader)
			if err != nil {
				respondUploadError(c, route, err)
				return
			}
			if form.ImageURL != nil {
				uploaded = *form.ImageURL
			}
			if form.Price == nil {
				discardUpload(c.Request.Context(), uploader, route, uploaded)
				respondWithError(c, http.StatusBadRequest, route, "price is required")
				return
			}
			input = form.toProductInput()
		} else {
			var req ProductRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, err)
				return
			}
			input = services.ProductInput{
				Name:          req.Name,
				Description:   req.Description,
				Price:         *req.Price,
				OriginalPrice: req.OriginalPrice,
				Image:         req.Image,
				Category:      req.Category,
				Stock:         req.Stock,
				IsPopular:     req.IsPopular,
				IsNew:         req.IsNew,
				OfferTag:      req.OfferTag,
			}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.Create(ctx, input)
		if err != nil {
			discardUpload(ctx, uploader, route, uploaded)
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(catalog *services.CatalogService, uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		var patch services.ProductPatch
		uploaded := ""
		if isMultipart(c) {
			form, err := parseMultipartProductRequest(c, uploader)
			if err != nil {
				respondUploadError(c, route, err)
				return
			}
			if form.ImageURL != nil {
				uploaded = *form.ImageURL
			}
			patch = form.toProductPatch()
		} else {
			var req ProductUpdateRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, err)
				return
			}
			patch = services.ProductPatch{
				Name:          req.Name,
				Description:   req.Description,
				Price:         req.Price,
				OriginalPrice: req.OriginalPrice,
				ClearOffer:    req.ClearOffer,
				Image:         req.Image,
				Category:      req.Category,
				Stock:         req.Stock,
				IsPopular:     req.IsPopular,
				IsNew:         req.IsNew,
				OfferTag:      req.OfferTag,
			}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := catalog.Get(ctx, c.Param("id"))
		if err != nil {
			discardUpload(ctx, uploader, route, uploaded)
			respondServiceError(c, route, err)
			return
		}

		updated, err := catalog.Update(ctx, c.Param("id"), patch)
		if err != nil {
			discardUpload(ctx, uploader, route, uploaded)
			respondServiceError(c, route, err)
			return
		}

		if existing.Image != "" && existing.Image != updated.Image {
			discardUpload(ctx, uploader, route, existing.Image)
		}

		c.JSON(http.StatusOK, updated)
	}
}

func UpdateProductStock(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/products/:id/stock"
		defer handlePanic(c, route)

		var req StockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := catalog.UpdateStock(ctx, c.Param("id"), req.Stock); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "stock updated", "stock": req.Stock})
	}
}

func DeleteProduct(catalog *services.CatalogService, uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := catalog.Get(ctx, c.Param("id"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if err := catalog.Delete(ctx, c.Param("id")); err != nil {
			respondServiceError(c, route, err)
			return
		}

		discardUpload(ctx, uploader, route, existing.Image)
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
