package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
	"coffeeshop/internal/storage"
)

const maxMultipartMemory = 32 << 20

// multipartProductInput is a product form where every field is optional.
// A nil field was not present in the form.
type multipartProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	ClearOffer    bool
	Category      *string
	Stock         *models.StockStatus
	IsPopular     *bool
	IsNew         *bool
	OfferTag      *string
	ImageURL      *string
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func parseMultipartProductRequest(c *gin.Context, uploader storage.Uploader) (multipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return multipartProductInput{}, services.ValidationError{Message: "invalid multipart form"}
	}

	input := multipartProductInput{}
	input.Name = formString(c, "name")
	input.Description = formString(c, "description")
	input.Category = formString(c, "category")
	input.OfferTag = formString(c, "offerTag")
	if value := formString(c, "stock"); value != nil {
		stock := models.StockStatus(*value)
		input.Stock = &stock
	}

	var err error
	if input.Price, err = formFloat(c, "price"); err != nil {
		return multipartProductInput{}, err
	}
	if raw := formString(c, "originalPrice"); raw != nil && *raw == "" {
		input.ClearOffer = true
	} else if input.OriginalPrice, err = formFloat(c, "originalPrice"); err != nil {
		return multipartProductInput{}, err
	}
	if input.IsPopular, err = formBool(c, "isPopular"); err != nil {
		return multipartProductInput{}, err
	}
	if input.IsNew, err = formBool(c, "isNew"); err != nil {
		return multipartProductInput{}, err
	}

	file, err := c.FormFile("image")
	switch {
	case err == nil:
		url, err := uploader.Upload(c.Request.Context(), file)
		if err != nil {
			return multipartProductInput{}, err
		}
		input.ImageURL = &url
	case !errors.Is(err, http.ErrMissingFile):
		return multipartProductInput{}, services.ValidationError{Message: "invalid image upload"}
	}

	return input, nil
}

func (in multipartProductInput) toProductInput() services.ProductInput {
	out := services.ProductInput{OriginalPrice: in.OriginalPrice}
	if in.Name != nil {
		out.Name = *in.Name
	}
	if in.Description != nil {
		out.Description = *in.Description
	}
	if in.Price != nil {
		out.Price = *in.Price
	}
	if in.Category != nil {
		out.Category = *in.Category
	}
	if in.Stock != nil {
		out.Stock = *in.Stock
	}
	if in.IsPopular != nil {
		out.IsPopular = *in.IsPopular
	}
	if in.IsNew != nil {
		out.IsNew = *in.IsNew
	}
	if in.OfferTag != nil {
		out.OfferTag = *in.OfferTag
	}
	if in.ImageURL != nil {
		out.Image = *in.ImageURL
	}
	return out
}

func (in multipartProductInput) toProductPatch() services.ProductPatch {
	return services.ProductPatch{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		ClearOffer:    in.ClearOffer,
		Image:         in.ImageURL,
		Category:      in.Category,
		Stock:         in.Stock,
		IsPopular:     in.IsPopular,
		IsNew:         in.IsNew,
		OfferTag:      in.OfferTag,
	}
}

func formString(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	return &value
}

func formFloat(c *gin.Context, key string) (*float64, error) {
	raw := formString(c, key)
	if raw == nil {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil, services.ValidationError{Message: key + " must be a number"}
	}
	return &parsed, nil
}

func formBool(c *gin.Context, key string) (*bool, error) {
	raw := formString(c, key)
	if raw == nil {
		return nil, nil
	}
	parsed, err := parseBoolValue(*raw)
	if err != nil {
		return nil, services.ValidationError{Message: key + " must be true or false"}
	}
	return &parsed, nil
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}

// discardUpload removes an image that no longer backs any record. External
// URLs are left alone and other failures are only logged; the record change
// already succeeded.
func discardUpload(ctx context.Context, uploader storage.Uploader, route, url string) {
	if url == "" {
		return
	}
	err := uploader.Delete(ctx, url)
	if err != nil && !errors.Is(err, storage.ErrForeignObject) {
		logger.Named("storage").Warn("image delete failed", zap.String("route", route), zap.String("url", url), zap.Error(err))
	}
}

func UploadImage(uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/uploads"
		defer handlePanic(c, route)

		file, err := c.FormFile("image")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "image file is required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		url, err := uploader.Upload(ctx, file)
		if err != nil {
			respondUploadError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"url": url})
	}
}

func respondUploadError(c *gin.Context, route string, err error) {
	var validation services.ValidationError
	switch {
	case errors.As(err, &validation):
		respondWithError(c, http.StatusBadRequest, route, validation.Message)
	case errors.Is(err, storage.ErrMissingExtension),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrImageTooLarge):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	default:
		respondServiceError(c, route, err)
	}
}
