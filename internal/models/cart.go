package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line of a cart. ID is the product id, so a cart holds at
// most one line per product.
type CartItem struct {
	ID            string   `bson:"id" json:"id"`
	Name          string   `bson:"name" json:"name"`
	Price         float64  `bson:"price" json:"price"`
	OriginalPrice *float64 `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Image         string   `bson:"image" json:"image"`
	Quantity      int      `bson:"quantity" json:"quantity"`
}

// Cart is the single cart document kept per user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
