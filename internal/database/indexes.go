package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"coffeeshop/internal/logger"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

var indexPlan = []collectionIndexes{
	{
		collection: "users",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		}, {
			Keys:    bson.D{{Key: "loyalty.orders", Value: 1}},
			Options: options.Index().SetName("loyalty_orders_index"),
		}},
	},
	{
		collection: "carts",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_unique").SetUnique(true),
		}},
	},
	{
		collection: "orders",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("email_date_index"),
		}, {
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("status_date_index"),
		}},
	},
	{
		collection: "coupons",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("code_unique").SetUnique(true),
		}},
	},
	{
		collection: "products",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_index"),
		}},
	},
	{
		collection: "redemptions",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "redeemedAt", Value: -1}},
			Options: options.Index().SetName("userId_redeemedAt_index"),
		}},
	},
	{
		collection: "refresh_tokens",
		models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().SetName("tokenHash_unique").SetUnique(true),
		}},
	},
}

// EnsureIndexes creates every index the repositories rely on. A failure on
// one collection is logged and does not stop the others.
func EnsureIndexes(db *mongo.Database) error {
	log := logger.Named("database")
	var firstErr error

	for _, plan := range indexPlan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		names, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models)
		cancel()
		if err != nil {
			log.Warn("index creation failed", zap.String("collection", plan.collection), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info("indexes ensured", zap.String("collection", plan.collection), zap.Strings("indexes", names))
	}
	return firstErr
}
