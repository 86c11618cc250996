package services

import (
	"github.com/shopspring/decimal"

	"coffeeshop/internal/models"
)

var hundred = decimal.NewFromInt(100)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// LineTotal is price × quantity rounded to cents.
func LineTotal(price float64, quantity int) float64 {
	return toFloat(money(price).Mul(decimal.NewFromInt(int64(quantity))))
}

func Subtotal(items []models.CartItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(money(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return toFloat(sum)
}

// CouponDiscount is the raw discount a coupon grants on amount. Fixed
// discounts are not limited to amount here; see ClampDiscount.
func CouponDiscount(coupon models.Coupon, amount float64) float64 {
	if coupon.Type == models.CouponPercentage {
		return toFloat(money(coupon.Value).Div(hundred).Mul(money(amount)))
	}
	return toFloat(money(coupon.Value))
}

// ClampDiscount keeps a discount within [0, subtotal].
func ClampDiscount(discount, subtotal float64) float64 {
	d := money(discount)
	if d.IsNegative() {
		return 0
	}
	if s := money(subtotal); d.GreaterThan(s) {
		return toFloat(s)
	}
	return toFloat(d)
}

// OrderTotal is subtotal + deliveryFee − discount.
func OrderTotal(subtotal, deliveryFee, discount float64) float64 {
	return toFloat(money(subtotal).Add(money(deliveryFee)).Sub(money(discount)))
}
