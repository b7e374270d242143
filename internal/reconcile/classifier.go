package reconcile

// Classify maps a completion percentage to a discrete order status.
//
// The threshold bands are carried over from the legacy system as observed:
// PARTIAL appears on both sides of INCOMPLETE (<=70 and 80..100). Domain
// owners have not confirmed whether the banding was meant to be monotonic,
// so the observed behavior is preserved rather than corrected.
func Classify(pct float64) OrderStatus {
	switch {
	case pct == 0:
		return StatusPending
	case pct >= 100:
		return StatusCompleted
	case pct <= 70:
		return StatusPartial
	case pct <= 80:
		return StatusIncomplete
	default:
		return StatusPartial
	}
}
