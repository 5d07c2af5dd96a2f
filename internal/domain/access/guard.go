package access

import (
	"strings"
	"time"

	"crm-app/internal/domain/profiles"
	"crm-app/internal/domain/subscriptions"
)

// SubscriptionRoute is where blocked users are sent to acquire a plan.
const SubscriptionRoute = "/subscription"

// AllowList holds the routes that are always reachable regardless of billing
// state. An entry ending in "/*" matches the prefix and everything below it.
type AllowList []string

var DefaultAllowList = AllowList{
	"/",
	"/subscription",
	"/subscription/*",
	"/assinatura",
	"/assinatura/*",
}

func (a AllowList) Contains(path string) bool {
	p := normalizePath(path)
	for _, entry := range a {
		if prefix, ok := strings.CutSuffix(entry, "/*"); ok {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
			continue
		}
		if p == normalizePath(entry) {
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

type GuardInput struct {
	Path string
	// Loading is set while profile or subscription data is unavailable.
	Loading      bool
	Profile      *profiles.UserProfile
	Subscription *subscriptions.Subscription
	Now          time.Time
	AllowList    AllowList
}

// EvaluateGuard applies the guard rules in precedence order; the first match wins.
func EvaluateGuard(in GuardInput) GuardState {
	if in.Loading {
		return GuardLoading
	}

	allow := in.AllowList
	if allow == nil {
		allow = DefaultAllowList
	}
	if allow.Contains(in.Path) {
		return GuardAllowedBypass
	}

	// authentication is enforced elsewhere
	if in.Profile == nil {
		return GuardAllowedBypass
	}

	if IsPlatformOperator(in.Profile) {
		return GuardAllowedBypass
	}

	status := ResolveSubscription(in.Subscription, in.Now)
	if status.Status == StatusNone {
		return GuardBlockedNoSubscription
	}
	if !status.CanMakeChanges || !in.Profile.Active {
		return GuardBlockedExpired
	}

	return GuardAllowedSubscribed
}

type Banner struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// Decision is a guard state rendered for one presentation mode.
type Decision struct {
	State    GuardState `json:"state"`
	Mode     Mode       `json:"mode"`
	Allowed  bool       `json:"allowed"`
	Loading  bool       `json:"loading"`
	Redirect string     `json:"redirect,omitempty"`
	Banner   *Banner    `json:"banner,omitempty"`
}

type PresentOptions struct {
	// RedirectTo overrides SubscriptionRoute.
	RedirectTo  string
	CheckoutURL string
}

// Present turns a guard state into what the caller should do. Redirect mode
// navigates blocked users away; inline mode keeps them on the page behind a
// banner. Loading never redirects in either mode.
func Present(state GuardState, mode Mode, opts PresentOptions) Decision {
	d := Decision{
		State:   state,
		Mode:    mode,
		Allowed: state.Allowed(),
		Loading: state == GuardLoading,
	}
	if !state.Blocked() {
		return d
	}

	switch mode {
	case ModeInline:
		d.Banner = bannerFor(state, opts.CheckoutURL)
	default:
		d.Mode = ModeRedirect
		d.Redirect = opts.RedirectTo
		if d.Redirect == "" {
			d.Redirect = SubscriptionRoute
		}
	}
	return d
}

func bannerFor(state GuardState, checkoutURL string) *Banner {
	if state == GuardBlockedNoSubscription {
		return &Banner{
			Title:       "Subscription required",
			Message:     "Choose a plan to unlock this action.",
			CheckoutURL: checkoutURL,
		}
	}
	return &Banner{
		Title:       "Subscription expired",
		Message:     "Your access is read-only until the subscription is renewed.",
		CheckoutURL: checkoutURL,
	}
}
