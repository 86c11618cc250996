package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockStatus is the coarse availability label shown on the menu.
type StockStatus string

const (
	StockInStock StockStatus = "In Stock"
	StockLow     StockStatus = "Low Stock"
	StockOut     StockStatus = "Out of Stock"
)

func (s StockStatus) Valid() bool {
	switch s {
	case StockInStock, StockLow, StockOut:
		return true
	}
	return false
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice *float64           `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	OnOffer       bool               `bson:"-" json:"onOffer"`
	Image         string             `bson:"image" json:"image"`
	Category      string             `bson:"category" json:"category"`
	Stock         StockStatus        `bson:"stock" json:"stock"`
	IsPopular     bool               `bson:"isPopular,omitempty" json:"isPopular,omitempty"`
	IsNew         bool               `bson:"isNew,omitempty" json:"isNew,omitempty"`
	OfferTag      string             `bson:"offerTag,omitempty" json:"offerTag,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
