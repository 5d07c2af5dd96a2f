package access

import (
	"math"
	"time"

	"crm-app/internal/domain/subscriptions"
)

// DefaultTrialPeriod is the signup trial length, used when a trial row lacks an end date.
const DefaultTrialPeriod = 14 * 24 * time.Hour

// ResolveSubscription derives the billing status shown to the user. It is pure:
// the same row and the same now always give the same result, and the row is
// never modified.
func ResolveSubscription(sub *subscriptions.Subscription, now time.Time) SubscriptionDerivedStatus {
	if sub == nil {
		return SubscriptionDerivedStatus{Status: StatusNone}
	}

	switch sub.Status {
	case subscriptions.StatusTrial:
		end, ok := trialEnd(sub)
		if !ok {
			return SubscriptionDerivedStatus{Status: StatusExpired}
		}
		days := int(math.Ceil(end.Sub(now).Hours() / 24))
		out := SubscriptionDerivedStatus{
			Status:        StatusTrial,
			DaysRemaining: days,
			TrialEndsAt:   &end,
		}
		if days < 0 || now.After(end) {
			out.Status = StatusExpired
			return out
		}
		out.CanMakeChanges = true
		return out

	case subscriptions.StatusActive:
		// The payment provider owns period boundaries; no client-side grace check.
		return SubscriptionDerivedStatus{Status: StatusActive, CanMakeChanges: true}

	default:
		// suspended, cancelled and anything we do not recognise
		return SubscriptionDerivedStatus{Status: StatusExpired}
	}
}

func trialEnd(sub *subscriptions.Subscription) (time.Time, bool) {
	if sub.TrialEndDate != nil {
		return *sub.TrialEndDate, true
	}
	if sub.TrialStartDate != nil {
		return sub.TrialStartDate.Add(DefaultTrialPeriod), true
	}
	return time.Time{}, false
}
