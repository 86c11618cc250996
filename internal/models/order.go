package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "Pending"
	OrderProcessing     OrderStatus = "Processing"
	OrderOutForDelivery OrderStatus = "Out for Delivery"
	OrderDelivered      OrderStatus = "Delivered"
	OrderCancelled      OrderStatus = "Cancelled"
	// OrderFailed marks an order whose checkout did not complete.
	OrderFailed OrderStatus = "Failed"
)

// Valid reports whether s can be set by an admin. Failed is reserved for
// checkout compensation.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentPending
}

// OrderItem is a priced line copied from the cart at checkout.
type OrderItem struct {
	ID       string  `bson:"id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Total    float64 `bson:"total" json:"total"`
}

// TrackingStep is one fulfilment milestone. Time is set when the step
// first becomes completed.
type TrackingStep struct {
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Time        *time.Time `bson:"time,omitempty" json:"time,omitempty"`
	Completed   bool       `bson:"completed" json:"completed"`
}

// Order defines the persisted order document.
type Order struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Customer      string              `bson:"customer" json:"customer"`
	Email         string              `bson:"email" json:"email"`
	Date          time.Time           `bson:"date" json:"date"`
	Items         []OrderItem         `bson:"items" json:"items"`
	Subtotal      float64             `bson:"subtotal" json:"subtotal"`
	DeliveryFee   float64             `bson:"deliveryFee" json:"deliveryFee"`
	Discount      float64             `bson:"discount" json:"discount"`
	CouponCode    string              `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	Total         float64             `bson:"total" json:"total"`
	Status        OrderStatus         `bson:"status" json:"status"`
	PaymentStatus PaymentStatus       `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string              `bson:"paymentMethod" json:"paymentMethod"`
	Location      string              `bson:"location" json:"location"`
	LoyaltyPoints int                 `bson:"loyaltyPoints" json:"loyaltyPoints"`
	TrackingSteps []TrackingStep      `bson:"trackingSteps" json:"trackingSteps"`
	FailureReason string              `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	UpdatedAt     time.Time           `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
