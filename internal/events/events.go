// Package events publishes order lifecycle notifications for downstream
// consumers such as kitchen displays and delivery dispatch.
package events

import (
	"context"
	"time"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	OrderDeleted       = "order.deleted"
)

type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	Email         string    `json:"email,omitempty"`
	Status        string    `json:"status,omitempty"`
	Total         float64   `json:"total,omitempty"`
	LoyaltyPoints int       `json:"loyaltyPoints,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// Noop drops every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }

func (Noop) Close() error { return nil }
