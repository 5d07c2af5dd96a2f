package access

import "time"

// DerivedStatus is what the UI shows for a tenant's billing state.
type DerivedStatus string

const (
	StatusNone    DerivedStatus = "none"
	StatusTrial   DerivedStatus = "trial"
	StatusActive  DerivedStatus = "active"
	StatusExpired DerivedStatus = "expired"
)

// SubscriptionDerivedStatus is recomputed from the stored row on every read.
type SubscriptionDerivedStatus struct {
	Status         DerivedStatus `json:"status"`
	CanMakeChanges bool          `json:"can_make_changes"`
	DaysRemaining  int           `json:"days_remaining"`
	TrialEndsAt    *time.Time    `json:"trial_ends_at,omitempty"`
}

type GuardState string

const (
	GuardLoading               GuardState = "loading"
	GuardAllowedBypass         GuardState = "allowed_bypass"
	GuardAllowedSubscribed     GuardState = "allowed_subscribed"
	GuardBlockedNoSubscription GuardState = "blocked_no_subscription"
	GuardBlockedExpired        GuardState = "blocked_expired"
)

// Allowed reports whether the guarded content may render.
func (s GuardState) Allowed() bool {
	return s == GuardAllowedBypass || s == GuardAllowedSubscribed
}

// Blocked reports whether the state needs a redirect or a banner.
func (s GuardState) Blocked() bool {
	return s == GuardBlockedNoSubscription || s == GuardBlockedExpired
}

// Mode selects how a guard decision is presented.
type Mode string

const (
	ModeRedirect Mode = "redirect"
	ModeInline   Mode = "inline"
)
