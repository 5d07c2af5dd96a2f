package stripe

// ToMonthly converts a recurring amount billed every intervalCount intervals
// into its monthly equivalent, in the same unit as amount. Unknown intervals
// are treated as monthly.
func ToMonthly(amount float64, interval string, intervalCount int64) float64 {
	amount /= float64(max(intervalCount, 1))
	switch interval {
	case "year":
		return amount / 12
	case "week":
		return amount * 52 / 12
	case "day":
		return amount * 365 / 12
	default:
		return amount
	}
}
