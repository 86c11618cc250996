package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeeshop/internal/models"
)

type couponRepository struct {
	coll *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &couponRepository{coll: db.Collection(couponsCollection)}
}

func (r *couponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	coupons := make([]models.Coupon, 0)
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return r.findOne(ctx, bson.M{"code": normalizeCode(code)})
}

func (r *couponRepository) findOne(ctx context.Context, filter bson.M) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.coll.FindOne(ctx, filter).Decode(&coupon); err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	now := time.Now().UTC()
	coupon.ID = primitive.NewObjectID()
	coupon.Code = normalizeCode(coupon.Code)
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, coupon)
	return translate(err)
}

func (r *couponRepository) Replace(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = normalizeCode(coupon.Code)
	coupon.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": coupon.ID}, coupon)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *couponRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *couponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUse bumps currentUses only while the coupon is under its cap, so
// concurrent checkouts cannot push a coupon past maxUses.
func (r *couponRepository) IncrementUse(ctx context.Context, code string) error {
	code = normalizeCode(code)
	filter := bson.M{
		"code": code,
		"$or": bson.A{
			bson.M{"maxUses": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$currentUses", "$maxUses"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"currentUses": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConditionFailed
}

// DecrementUse gives back one use. It never takes currentUses below zero.
func (r *couponRepository) DecrementUse(ctx context.Context, code string) error {
	filter := bson.M{
		"code":        normalizeCode(code),
		"currentUses": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"currentUses": -1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConditionFailed
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
