// Package store holds the Mongo-backed repositories. Every method accepts the
// caller's context, so a mongo.SessionContext handed down from a transaction
// enlists the write in that transaction.
package store

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidID       = errors.New("invalid id")
	ErrDuplicate       = errors.New("duplicate key")
	ErrConditionFailed = errors.New("update condition not met")
)

const (
	productsCollection      = "products"
	cartsCollection         = "carts"
	ordersCollection        = "orders"
	couponsCollection       = "coupons"
	usersCollection         = "users"
	rewardsCollection       = "rewards"
	redemptionsCollection   = "redemptions"
	refreshTokensCollection = "refresh_tokens"
)

// ParseID converts a hex string from a route or token into an ObjectID.
func ParseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
