package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reward is something a member can exchange loyalty points for.
type Reward struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Points      int                `bson:"points" json:"points"`
	Image       string             `bson:"image" json:"image"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Redemption records one points-for-reward exchange. It is never updated.
type Redemption struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	RewardID   primitive.ObjectID `bson:"rewardId" json:"rewardId"`
	RewardName string             `bson:"rewardName" json:"rewardName"`
	PointsUsed int                `bson:"pointsUsed" json:"pointsUsed"`
	RedeemedAt time.Time          `bson:"redeemedAt" json:"redeemedAt"`
}
