package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
)

type RewardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Points      int    `json:"points" binding:"required,gt=0"`
	Image       string `json:"image"`
	Active      *bool  `json:"active"`
}

func (r RewardRequest) toInput() services.RewardInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return services.RewardInput{
		Name:        r.Name,
		Description: r.Description,
		Points:      r.Points,
		Image:       r.Image,
		Active:      active,
	}
}

// CreditPointsRequest adjusts a balance; negative values deduct.
type CreditPointsRequest struct {
	Points *int `json:"points" binding:"required"`
}

func GetLoyaltyStatus(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /loyalty"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		status, err := loyalty.Status(ctx, principal.UserID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}

// GetRewards lists rewards. The storefront route only sees active ones.
func GetRewards(loyalty *services.LoyaltyService, activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := "GET /admin/api/loyalty/rewards"
		if activeOnly {
			route = "GET /loyalty/rewards"
		}
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		rewards, err := loyalty.Rewards(ctx, activeOnly)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if rewards == nil {
			rewards = []models.Reward{}
		}

		c.JSON(http.StatusOK, rewards)
	}
}

func RedeemReward(loyalty *services.LoyaltyService, recorder CheckoutRecorder) gin.HandlerFunc {
	recorder = recorderOrNoop(recorder)
	return func(c *gin.Context) {
		const route = "POST /loyalty/rewards/:id/redeem"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		redemption, err := loyalty.Redeem(ctx, principal.UserID, c.Param("id"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		recorder.PointsRedeemed(redemption.PointsUsed)
		c.JSON(http.StatusCreated, redemption)
	}
}

func GetMyRedemptions(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /loyalty/redemptions"
		defer handlePanic(c, route)

		principal, ok := currentPrincipal(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := loyalty.Redemptions(ctx, &principal.UserID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Redemption{}
		}

		c.JSON(http.StatusOK, list)
	}
}

func GetAllRedemptions(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/loyalty/redemptions"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := loyalty.Redemptions(ctx, nil)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Redemption{}
		}

		c.JSON(http.StatusOK, list)
	}
}

func GetLoyaltyMembers(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/loyalty/members"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		members, err := loyalty.Members(ctx)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		if members == nil {
			members = []models.Customer{}
		}

		c.JSON(http.StatusOK, members)
	}
}

func CreateReward(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/loyalty/rewards"
		defer handlePanic(c, route)

		var req RewardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		reward, err := loyalty.CreateReward(ctx, req.toInput())
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, reward)
	}
}

func UpdateReward(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/loyalty/rewards/:id"
		defer handlePanic(c, route)

		var req RewardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		reward, err := loyalty.UpdateReward(ctx, c.Param("id"), req.toInput())
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, reward)
	}
}

func DeleteReward(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/loyalty/rewards/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := loyalty.DeleteReward(ctx, c.Param("id")); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "reward deleted"})
	}
}

func CreditPoints(loyalty *services.LoyaltyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/customers/:id/points"
		defer handlePanic(c, route)

		var req CreditPointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := loyalty.CreditByID(ctx, c.Param("id"), *req.Points); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "points credited", "points": *req.Points})
	}
}
