package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coffeeshop/internal/database"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

// PointsRate is the spend, in currency units, that earns one point.
const PointsRate = 115

const (
	TierBronze  = "Bronze"
	TierSilver  = "Silver"
	TierGold    = "Gold"
	TierDiamond = "Diamond"
)

// PointsEarned is floor(total / 115). Non-positive totals earn nothing.
func PointsEarned(total float64) int {
	if total <= 0 {
		return 0
	}
	return int(decimal.NewFromFloat(total).Div(decimal.NewFromInt(PointsRate)).Floor().IntPart())
}

func TierFor(points int) string {
	switch {
	case points >= 500:
		return TierGold
	case points >= 200:
		return TierSilver
	}
	return TierBronze
}

type LoyaltyStatus struct {
	Points           int     `json:"points"`
	Tier             string  `json:"tier"`
	NextTier         string  `json:"nextTier"`
	PointsToNextTier int     `json:"pointsToNextTier"`
	Progress         float64 `json:"progress"`
}

// StatusFor derives tier progress from a balance. Diamond is only a display
// ceiling at 1000 points; progress stops at 100.
func StatusFor(points int) LoyaltyStatus {
	tier := TierFor(points)

	next, threshold := TierSilver, 200
	switch tier {
	case TierSilver:
		next, threshold = TierGold, 500
	case TierGold:
		next, threshold = TierDiamond, 1000
	}

	progress := float64(points) / float64(threshold) * 100
	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	remaining := threshold - points
	if remaining < 0 {
		remaining = 0
	}

	return LoyaltyStatus{
		Points:           points,
		Tier:             tier,
		NextTier:         next,
		PointsToNextTier: remaining,
		Progress:         progress,
	}
}

type RewardInput struct {
	Name        string
	Description string
	Points      int
	Image       string
	Active      bool
}

type LoyaltyService struct {
	users       store.UserRepository
	rewards     store.RewardRepository
	redemptions store.RedemptionRepository
	tx          database.Transactor
	log         *zap.Logger
}

func NewLoyaltyService(users store.UserRepository, rewards store.RewardRepository, redemptions store.RedemptionRepository, tx database.Transactor) *LoyaltyService {
	return &LoyaltyService{
		users:       users,
		rewards:     rewards,
		redemptions: redemptions,
		tx:          tx,
		log:         logger.Named("loyalty"),
	}
}

func (s *LoyaltyService) Status(ctx context.Context, userID primitive.ObjectID) (LoyaltyStatus, error) {
	if userID.IsZero() {
		return LoyaltyStatus{}, ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return LoyaltyStatus{}, ErrNotFound
	}
	if err != nil {
		return LoyaltyStatus{}, err
	}
	return StatusFor(user.Loyalty.Points), nil
}

// Credit adds points to a balance. Any value is accepted, including negative
// adjustments made by staff.
func (s *LoyaltyService) Credit(ctx context.Context, userID primitive.ObjectID, points int) error {
	if err := s.users.CreditPoints(ctx, userID, points); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("credit %d points to %s: %w", points, userID.Hex(), err)
	}
	s.log.Info("points credited", zap.String("userId", userID.Hex()), zap.Int("points", points))
	return nil
}

func (s *LoyaltyService) CreditByID(ctx context.Context, rawUserID string, points int) error {
	id, err := store.ParseID(rawUserID)
	if err != nil {
		return ErrNotFound
	}
	return s.Credit(ctx, id, points)
}

// Redeem exchanges points for an active reward. The debit only applies when
// the balance covers the cost, and the redemption record is written with it.
func (s *LoyaltyService) Redeem(ctx context.Context, userID primitive.ObjectID, rawRewardID string) (*models.Redemption, error) {
	if userID.IsZero() {
		return nil, ErrUnauthenticated
	}

	reward, err := s.GetReward(ctx, rawRewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, ErrRewardInactive
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.Loyalty.Points < reward.Points {
		return nil, ErrInsufficientPoints
	}

	redemption := &models.Redemption{
		UserID:     userID,
		RewardID:   reward.ID,
		RewardName: reward.Name,
		PointsUsed: reward.Points,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.DebitPoints(ctx, userID, reward.Points); err != nil {
			if errors.Is(err, store.ErrConditionFailed) {
				return ErrInsufficientPoints
			}
			return err
		}
		if err := s.redemptions.Create(ctx, redemption); err != nil {
			if !s.tx.Atomic() {
				s.refund(ctx, userID, reward.Points)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reward redeemed",
		zap.String("userId", userID.Hex()),
		zap.String("reward", reward.Name),
		zap.Int("points", reward.Points),
	)
	return redemption, nil
}

func (s *LoyaltyService) refund(ctx context.Context, userID primitive.ObjectID, points int) {
	ctx, cancel := compensationContext(ctx)
	defer cancel()
	if err := s.users.CreditPoints(ctx, userID, points); err != nil {
		s.log.Error("redemption refund failed", zap.String("userId", userID.Hex()), zap.Int("points", points), zap.Error(err))
	}
}

func (s *LoyaltyService) Rewards(ctx context.Context, activeOnly bool) ([]models.Reward, error) {
	return s.rewards.List(ctx, activeOnly)
}

func (s *LoyaltyService) GetReward(ctx context.Context, rawID string) (*models.Reward, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, ErrNotFound
	}
	reward, err := s.rewards.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return reward, err
}

func (s *LoyaltyService) CreateReward(ctx context.Context, input RewardInput) (*models.Reward, error) {
	if err := validateRewardInput(input); err != nil {
		return nil, err
	}
	reward := &models.Reward{}
	applyRewardInput(reward, input)

	if err := s.rewards.Create(ctx, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

func (s *LoyaltyService) UpdateReward(ctx context.Context, rawID string, input RewardInput) (*models.Reward, error) {
	if err := validateRewardInput(input); err != nil {
		return nil, err
	}
	reward, err := s.GetReward(ctx, rawID)
	if err != nil {
		return nil, err
	}
	applyRewardInput(reward, input)

	if err := s.rewards.Replace(ctx, reward); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reward, nil
}

func (s *LoyaltyService) DeleteReward(ctx context.Context, rawID string) error {
	id, err := store.ParseID(rawID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.rewards.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Redemptions lists newest first; nil userID lists every member's.
func (s *LoyaltyService) Redemptions(ctx context.Context, userID *primitive.ObjectID) ([]models.Redemption, error) {
	return s.redemptions.List(ctx, userID)
}

// Members is the loyalty dashboard view of every customer account.
func (s *LoyaltyService) Members(ctx context.Context) ([]models.Customer, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]models.Customer, 0, len(users))
	for _, user := range users {
		if user.Role != models.RoleCustomer {
			continue
		}
		members = append(members, models.CustomerFromUser(user, TierFor(user.Loyalty.Points)))
	}
	return members, nil
}

func validateRewardInput(input RewardInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ValidationError{Message: "name is required"}
	}
	if input.Points < 1 {
		return ValidationError{Message: "points must be at least 1"}
	}
	return nil
}

func applyRewardInput(reward *models.Reward, input RewardInput) {
	reward.Name = strings.TrimSpace(input.Name)
	reward.Description = strings.TrimSpace(input.Description)
	reward.Points = input.Points
	reward.Image = strings.TrimSpace(input.Image)
	reward.Active = input.Active
}
