package auction

// Increment returns the minimum step between the current price and the next
// acceptable bid. Tiers are fixed; an auction's stored IncrementHint is never
// consulted.
func Increment(currentPrice float64) float64 {
	switch {
	case currentPrice < 100:
		return 10
	case currentPrice < 500:
		return 50
	case currentPrice < 1000:
		return 100
	case currentPrice < 5000:
		return 200
	default:
		return 500
	}
}

// MinimumNextBid is the lowest amount the next bid may carry.
func MinimumNextBid(currentPrice float64) float64 {
	return currentPrice + Increment(currentPrice)
}
