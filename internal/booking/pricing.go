package booking

// ApplyPricing clamps the submitted total to the hall's base price and returns
// the resulting discount, which always lies in [0, basePrice]. A hall without a
// base price accepts the total as is.
func ApplyPricing(basePrice, total int64) (clampedTotal, discount int64) {
	if basePrice <= 0 {
		return total, 0
	}
	if total > basePrice {
		total = basePrice
	}
	// Callers reject negative totals, so the discount already lies in [0, basePrice].
	return total, basePrice - total
}
