package services

import (
	"time"

	"coffeeshop/internal/models"
)

var trackingTemplate = []models.TrackingStep{
	{Title: "Order Placed", Description: "Your order has been received"},
	{Title: "Payment Confirmed", Description: "Payment has been confirmed"},
	{Title: "Preparing", Description: "Your order is being prepared"},
	{Title: "Out for Delivery", Description: "Your order is on the way"},
	{Title: "Delivered", Description: "Your order has been delivered"},
}

// completedSteps maps a status to how many leading steps it completes.
// Statuses missing here (Cancelled, Failed) complete none.
var completedSteps = map[models.OrderStatus]int{
	models.OrderPending:        1,
	models.OrderProcessing:     3,
	models.OrderOutForDelivery: 4,
	models.OrderDelivered:      5,
}

// DefaultTrackingSteps seeds the five canonical steps with only
// "Order Placed" completed at placedAt.
func DefaultTrackingSteps(placedAt time.Time) []models.TrackingStep {
	steps := make([]models.TrackingStep, len(trackingTemplate))
	copy(steps, trackingTemplate)

	stamp := placedAt.UTC()
	steps[0].Completed = true
	steps[0].Time = &stamp
	return steps
}

// ApplyStatus recomputes every step's completion for status. A step that
// becomes completed is stamped with now; a step that was already completed
// keeps its original time. Steps are matched by title.
func ApplyStatus(steps []models.TrackingStep, status models.OrderStatus, now time.Time) []models.TrackingStep {
	done := make(map[string]bool, len(trackingTemplate))
	for _, step := range trackingTemplate[:completedSteps[status]] {
		done[step.Title] = true
	}

	updated := make([]models.TrackingStep, len(steps))
	for i, step := range steps {
		completed := done[step.Title]
		if completed && !step.Completed {
			stamp := now.UTC()
			step.Time = &stamp
		}
		step.Completed = completed
		updated[i] = step
	}
	return updated
}
