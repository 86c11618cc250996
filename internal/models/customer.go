package models

import "time"

// Customer is the admin-facing view of a User.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	LoyaltyPoints int       `json:"loyaltyPoints"`
	Tier          string    `json:"tier"`
	RegisteredOn  time.Time `json:"registeredOn"`
	Orders        []string  `json:"orders"`
}

// CustomerFromUser projects a user. The tier label is supplied by the
// caller so the loyalty rules stay in one place.
func CustomerFromUser(u User, tier string) Customer {
	orders := u.Loyalty.Orders
	if orders == nil {
		orders = []string{}
	}
	return Customer{
		ID:            u.ID.Hex(),
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Address:       u.Address,
		LoyaltyPoints: u.Loyalty.Points,
		Tier:          tier,
		RegisteredOn:  u.CreatedAt,
		Orders:        orders,
	}
}
