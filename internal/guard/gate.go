package guard

import (
	"context"
	"errors"
	"time"

	"crm-app/internal/domain/access"
	"crm-app/internal/domain/profiles"
	"crm-app/internal/domain/subscriptions"
	"crm-app/internal/logger"
	"crm-app/internal/metrics"
	"crm-app/internal/notify"
	"crm-app/internal/store"

	"github.com/google/uuid"
)

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error)
}

type SubscriptionReader interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Subscription, error)
}

type CheckoutLinker interface {
	Link(tenantID uuid.UUID, email string) string
}

type Request struct {
	Path string
	Mode access.Mode
	// UserID is nil for anonymous callers.
	UserID *uuid.UUID
	Email  string
}

type Result struct {
	access.Decision
	Subscription *access.SubscriptionDerivedStatus `json:"subscription,omitempty"`
	Profile      *profiles.UserProfile             `json:"-"`
}

// Gate loads the latest profile and subscription and runs the guard over them.
// Nothing is cached between calls, so a payment confirmed a moment ago is
// reflected by the very next check.
type Gate struct {
	profiles      ProfileReader
	subscriptions SubscriptionReader
	checkout      CheckoutLinker
	notifier      notify.Publisher
	metrics       metrics.AccessMetrics
	log           logger.Logger
	allowList     access.AllowList
	now           func() time.Time
}

type Options struct {
	AllowList access.AllowList
	Now       func() time.Time
}

func NewGate(p ProfileReader, s SubscriptionReader, checkout CheckoutLinker, notifier notify.Publisher, m metrics.AccessMetrics, log logger.Logger, opts Options) *Gate {
	g := &Gate{
		profiles:      p,
		subscriptions: s,
		checkout:      checkout,
		notifier:      notifier,
		metrics:       m,
		log:           log.Component("gate"),
		allowList:     opts.AllowList,
		now:           opts.Now,
	}
	if g.metrics == nil {
		g.metrics = metrics.Nop{}
	}
	if g.allowList == nil {
		g.allowList = access.DefaultAllowList
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Check returns ctx.Err() when the caller is gone before the data arrives;
// the partial result is discarded rather than acted upon.
func (g *Gate) Check(ctx context.Context, req Request) (Result, error) {
	in := access.GuardInput{
		Path:      req.Path,
		Now:       g.now(),
		AllowList: g.allowList,
	}

	if req.UserID != nil {
		in.Profile, in.Subscription, in.Loading = g.load(ctx, *req.UserID)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	state := access.EvaluateGuard(in)

	opts := access.PresentOptions{}
	if in.Profile != nil && g.checkout != nil {
		email := req.Email
		if email == "" {
			email = in.Profile.Email
		}
		opts.CheckoutURL = g.checkout.Link(in.Profile.TenantID, email)
	}

	mode := req.Mode
	if mode == "" {
		mode = access.ModeRedirect
	}
	res := Result{
		Decision: access.Present(state, mode, opts),
		Profile:  in.Profile,
	}
	if in.Profile != nil && !in.Loading {
		st := access.ResolveSubscription(in.Subscription, in.Now)
		res.Subscription = &st
	}

	g.metrics.ObserveGuardDecision(string(res.Mode), string(state))
	if res.Mode == access.ModeInline && state.Blocked() {
		g.announce(in.Profile, res.Banner)
	}
	return res, nil
}

// load maps missing rows to nil and transient failures to loading.
func (g *Gate) load(ctx context.Context, userID uuid.UUID) (*profiles.UserProfile, *subscriptions.Subscription, bool) {
	p, err := g.profiles.GetByID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil, false
	case err != nil:
		g.log.Warn("profile lookup failed, reporting loading", map[string]interface{}{
			"userId": userID.String(),
			"error":  err.Error(),
		})
		return nil, nil, true
	}

	sub, err := g.subscriptions.GetByTenant(ctx, p.TenantID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return p, nil, false
	case err != nil:
		g.log.Warn("subscription lookup failed, reporting loading", map[string]interface{}{
			"userId":   userID.String(),
			"tenantId": p.TenantID.String(),
			"error":    err.Error(),
		})
		return p, nil, true
	}
	return p, sub, false
}

func (g *Gate) announce(p *profiles.UserProfile, banner *access.Banner) {
	if p == nil || g.notifier == nil {
		return
	}
	if !p.Active {
		g.notifier.Publish(notify.Notification{
			Kind:    notify.KindInactiveUser,
			UserID:  p.ID,
			Message: "Your user is inactive. Contact your administrator.",
		})
		return
	}
	msg := "Access denied."
	if banner != nil {
		msg = banner.Message
	}
	g.notifier.Publish(notify.Notification{
		Kind:    notify.KindAccessDenied,
		UserID:  p.ID,
		Message: msg,
	})
}
