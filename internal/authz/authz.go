// Package authz maps account roles to the back-office capabilities they hold.
package authz

import "coffeeshop/internal/models"

type Capability string

const (
	ManageCatalog   Capability = "manage_catalog"
	ManageOrders    Capability = "manage_orders"
	ManageOffers    Capability = "manage_offers"
	ManageCustomers Capability = "manage_customers"
	ManageLoyalty   Capability = "manage_loyalty"
)

var grants = map[models.Role][]Capability{
	models.RoleAdmin: {ManageCatalog, ManageOrders, ManageOffers, ManageCustomers, ManageLoyalty},
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role models.Role, capability Capability) bool {
	for _, granted := range grants[role] {
		if granted == capability {
			return true
		}
	}
	return false
}

// RoleFor picks the role assigned at registration.
func RoleFor(isAllowlisted bool) models.Role {
	if isAllowlisted {
		return models.RoleAdmin
	}
	return models.RoleCustomer
}
