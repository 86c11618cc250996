package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop/internal/models"
)

func newTestLoyaltyService(db *memDB, atomic bool) *LoyaltyService {
	return NewLoyaltyService(memUsers{db}, memRewards{db}, memRedemptions{db}, memTx{db: db, atomic: atomic})
}

func seedReward(t *testing.T, db *memDB, points int, active bool) models.Reward {
	t.Helper()
	reward := models.Reward{Name: "Free Cappuccino", Points: points, Active: active}
	require.NoError(t, memRewards{db}.Create(context.Background(), &reward))
	return reward
}

func TestPointsEarned(t *testing.T) {
	cases := map[float64]int{1000: 8, 114: 0, 115: 1, 1050: 9, 0: 0, -300: 0, 230: 2, 229.99: 1}
	for total, want := range cases {
		assert.Equal(t, want, PointsEarned(total), "total=%v", total)
	}
}

func TestTierBoundaries(t *testing.T) {
	assert.Equal(t, TierBronze, TierFor(0))
	assert.Equal(t, TierBronze, TierFor(199))
	assert.Equal(t, TierSilver, TierFor(200))
	assert.Equal(t, TierSilver, TierFor(499))
	assert.Equal(t, TierGold, TierFor(500))
}

func TestStatusFor(t *testing.T) {
	bronze := StatusFor(50)
	assert.Equal(t, TierSilver, bronze.NextTier)
	assert.Equal(t, 150, bronze.PointsToNextTier)
	assert.Equal(t, 25.0, bronze.Progress)

	silver := StatusFor(250)
	assert.Equal(t, TierGold, silver.NextTier)
	assert.Equal(t, 50.0, silver.Progress)

	gold := StatusFor(750)
	assert.Equal(t, TierDiamond, gold.NextTier)
	assert.Equal(t, 250, gold.PointsToNextTier)
	assert.Equal(t, 75.0, gold.Progress)

	beyond := StatusFor(1500)
	assert.Equal(t, 100.0, beyond.Progress)
	assert.Equal(t, 0, beyond.PointsToNextTier)
}

func TestRedeemWithInsufficientPointsKeepsBalance(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 250)
	reward := seedReward(t, db, 300, true)
	svc := newTestLoyaltyService(db, true)

	_, err := svc.Redeem(context.Background(), user.ID, reward.ID.Hex())
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 250, db.points(user.ID))
	assert.Empty(t, db.redemptions)
}

func TestRedeemDebitsAndRecords(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 400)
	reward := seedReward(t, db, 300, true)
	svc := newTestLoyaltyService(db, true)
	ctx := context.Background()

	redemption, err := svc.Redeem(ctx, user.ID, reward.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 300, redemption.PointsUsed)
	assert.Equal(t, "Free Cappuccino", redemption.RewardName)
	assert.Equal(t, 100, db.points(user.ID))

	mine, err := svc.Redemptions(ctx, &user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestRedeemInactiveReward(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 1000)
	reward := seedReward(t, db, 100, false)

	_, err := newTestLoyaltyService(db, true).Redeem(context.Background(), user.ID, reward.ID.Hex())
	assert.ErrorIs(t, err, ErrRewardInactive)
	assert.Equal(t, 1000, db.points(user.ID))
}

func TestRedeemRefundsWhenRecordFailsWithoutTransactions(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 500)
	reward := seedReward(t, db, 300, true)
	db.fail["redemptions.Create"] = errors.New("write concern timeout")

	_, err := newTestLoyaltyService(db, false).Redeem(context.Background(), user.ID, reward.ID.Hex())
	assert.Error(t, err)
	assert.Equal(t, 500, db.points(user.ID))
}

func TestRedeemRefundSurvivesExpiredRequest(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 500)
	reward := seedReward(t, db, 300, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db.hooks["redemptions.Create"] = cancel

	_, err := newTestLoyaltyService(db, false).Redeem(ctx, user.ID, reward.ID.Hex())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 500, db.points(user.ID))
}

func TestRedeemRollsBackWithTransactions(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 500)
	reward := seedReward(t, db, 300, true)
	db.fail["redemptions.Create"] = errors.New("write concern timeout")

	_, err := newTestLoyaltyService(db, true).Redeem(context.Background(), user.ID, reward.ID.Hex())
	assert.Error(t, err)
	assert.Equal(t, 500, db.points(user.ID))
}

func TestCreditAcceptsAnyValue(t *testing.T) {
	db := newMemDB()
	user := db.seedUser("amani@example.com", 10)
	svc := newTestLoyaltyService(db, true)
	ctx := context.Background()

	require.NoError(t, svc.CreditByID(ctx, user.ID.Hex(), 40))
	require.NoError(t, svc.Credit(ctx, user.ID, -5))
	assert.Equal(t, 45, db.points(user.ID))

	assert.ErrorIs(t, svc.CreditByID(ctx, "not-an-id", 5), ErrNotFound)
}

func TestMembersAreCustomerProjections(t *testing.T) {
	db := newMemDB()
	db.seedUser("amani@example.com", 520)
	admin := models.User{Email: "owner@cafe.com", Role: models.RoleAdmin}
	require.NoError(t, memUsers{db}.Create(context.Background(), &admin))

	members, err := newTestLoyaltyService(db, true).Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, TierGold, members[0].Tier)
	assert.Equal(t, 520, members[0].LoyaltyPoints)
}

func TestRewardValidation(t *testing.T) {
	svc := newTestLoyaltyService(newMemDB(), true)
	ctx := context.Background()

	_, err := svc.CreateReward(ctx, RewardInput{Name: "", Points: 10})
	var verr ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.CreateReward(ctx, RewardInput{Name: "Muffin", Points: 0})
	assert.True(t, errors.As(err, &verr))

	reward, err := svc.CreateReward(ctx, RewardInput{Name: " Muffin ", Points: 120, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Muffin", reward.Name)

	updated, err := svc.UpdateReward(ctx, reward.ID.Hex(), RewardInput{Name: "Muffin", Points: 150})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	active, err := svc.Rewards(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, svc.DeleteReward(ctx, reward.ID.Hex()))
	_, err = svc.GetReward(ctx, reward.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}
