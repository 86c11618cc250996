package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponType string

const (
	CouponPercentage CouponType = "Percentage"
	CouponFixed      CouponType = "Fixed"
)

func (t CouponType) Valid() bool {
	return t == CouponPercentage || t == CouponFixed
}

// Coupon is a promo code. Codes are stored uppercase.
type Coupon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code"`
	Type        CouponType         `bson:"type" json:"type"`
	Value       float64            `bson:"value" json:"value"`
	MinPurchase *float64           `bson:"minPurchase,omitempty" json:"minPurchase,omitempty"`
	ValidFrom   FlexTime           `bson:"validFrom" json:"validFrom"`
	ValidTo     FlexTime           `bson:"validTo" json:"validTo"`
	MaxUses     *int               `bson:"maxUses,omitempty" json:"maxUses,omitempty"`
	CurrentUses int                `bson:"currentUses" json:"currentUses"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
