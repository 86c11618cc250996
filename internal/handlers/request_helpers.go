package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coffeeshop/internal/logger"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/services"
)

const requestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		logger.Named("http").Error("panic recovered", zap.String("route", route), zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log := logger.Named("http")
	fields := []zap.Field{
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("message", message),
		zap.String("requestId", middleware.RequestID(c)),
	}
	if status >= http.StatusInternalServerError {
		log.Error("returning error", fields...)
	} else {
		log.Debug("returning error", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognised is treated as a transient backend failure.
func respondServiceError(c *gin.Context, route string, err error) {
	var validation services.ValidationError
	var rejected services.CouponRejectedError

	switch {
	case errors.As(err, &validation):
		respondWithError(c, http.StatusBadRequest, route, validation.Message)
	case errors.As(err, &rejected):
		respondWithError(c, http.StatusBadRequest, route, rejected.Message)
	case errors.Is(err, services.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "not found")
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrTokenExpired):
		respondWithError(c, http.StatusUnauthorized, route, err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondWithError(c, http.StatusForbidden, route, "forbidden")
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrCouponExists):
		respondWithError(c, http.StatusConflict, route, err.Error())
	case errors.Is(err, services.ErrInvalidItem),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInsufficientPoints),
		errors.Is(err, services.ErrRewardInactive):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(c, http.StatusServiceUnavailable, route, "service temporarily unavailable, please retry")
	default:
		logger.Named("http").Error("unhandled service error", zap.String("route", route), zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, route, "something went wrong, please retry")
	}
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "gte", "gt":
				details = append(details, fmt.Sprintf("%s must be at least %s", field, fieldError.Param()))
			case "oneof":
				details = append(details, fmt.Sprintf("%s must be one of %s", field, fieldError.Param()))
			case "email":
				details = append(details, fmt.Sprintf("%s must be a valid email", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// currentPrincipal reads the caller set by middleware.Authenticate.
func currentPrincipal(c *gin.Context, route string) (services.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok || principal.UserID == primitive.NilObjectID {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return services.Principal{}, false
	}
	return principal, true
}
