package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeeshop/internal/models"
)

type rewardRepository struct {
	coll *mongo.Collection
}

func NewRewardRepository(db *mongo.Database) RewardRepository {
	return &rewardRepository{coll: db.Collection(rewardsCollection)}
}

func (r *rewardRepository) List(ctx context.Context, activeOnly bool) ([]models.Reward, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "points", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rewards := make([]models.Reward, 0)
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *rewardRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error) {
	var reward models.Reward
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&reward); err != nil {
		return nil, translate(err)
	}
	return &reward, nil
}

func (r *rewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	reward.ID = primitive.NewObjectID()
	reward.CreatedAt = time.Now().UTC()

	_, err := r.coll.InsertOne(ctx, reward)
	return translate(err)
}

func (r *rewardRepository) Replace(ctx context.Context, reward *models.Reward) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": reward.ID}, reward)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *rewardRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type redemptionRepository struct {
	coll *mongo.Collection
}

func NewRedemptionRepository(db *mongo.Database) RedemptionRepository {
	return &redemptionRepository{coll: db.Collection(redemptionsCollection)}
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *models.Redemption) error {
	redemption.ID = primitive.NewObjectID()
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, redemption)
	return translate(err)
}

func (r *redemptionRepository) List(ctx context.Context, userID *primitive.ObjectID) ([]models.Redemption, error) {
	filter := bson.M{}
	if userID != nil {
		filter["userId"] = *userID
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "redeemedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	redemptions := make([]models.Redemption, 0)
	if err := cursor.All(ctx, &redemptions); err != nil {
		return nil, err
	}
	return redemptions, nil
}
