package services

import "fmt"

// offerPatch carries the pricing fields of a partial product update.
type offerPatch struct {
	Price         *float64
	OriginalPrice *float64
	ClearOffer    bool
}

type offerResult struct {
	Price         float64
	OriginalPrice *float64
}

// isOnOffer reports whether a product is discounted: its original price is
// set and above the selling price.
func isOnOffer(price float64, originalPrice *float64) bool {
	return originalPrice != nil && *originalPrice > price
}

func validateOfferFields(price float64, originalPrice *float64) error {
	if price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if originalPrice == nil {
		return nil
	}
	if *originalPrice <= 0 {
		return fmt.Errorf("originalPrice must be greater than 0")
	}
	if *originalPrice <= price {
		return fmt.Errorf("originalPrice must be greater than price")
	}
	return nil
}

func resolveOfferUpdate(existingPrice float64, existingOriginal *float64, patch offerPatch) (offerResult, error) {
	result := offerResult{Price: existingPrice, OriginalPrice: existingOriginal}

	if patch.Price != nil {
		result.Price = *patch.Price
	}
	if patch.ClearOffer {
		result.OriginalPrice = nil
	}
	if patch.OriginalPrice != nil {
		original := *patch.OriginalPrice
		result.OriginalPrice = &original
	}

	if err := validateOfferFields(result.Price, result.OriginalPrice); err != nil {
		return offerResult{}, err
	}
	return result, nil
}
