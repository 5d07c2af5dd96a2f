package stripe

import (
	"strings"

	"crm-app/internal/domain/subscriptions"
)

// NormalizeStripeStatus maps a Stripe subscription status onto the stored
// status. ok is false for statuses we do not map.
func NormalizeStripeStatus(s string) (subscriptions.Status, bool) {
	switch strings.TrimSpace(s) {
	case "trialing":
		return subscriptions.StatusTrial, true
	case "active":
		return subscriptions.StatusActive, true
	case "past_due", "unpaid", "incomplete", "paused":
		return subscriptions.StatusSuspended, true
	case "canceled", "incomplete_expired":
		return subscriptions.StatusCancelled, true
	default:
		return "", false
	}
}
