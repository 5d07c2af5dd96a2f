package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"crm-app/internal/domain/subscriptions"
	stripestatus "crm-app/internal/infra/stripe"
	"crm-app/internal/store"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return fmt.Errorf("subscription missing id")
	}

	row, err := h.findRow(ctx, sub)
	if err != nil || row == nil {
		return err
	}
	// Only checkout replaces a live subscription; once the tracked one is
	// cancelled any subscription for the tenant may take over.
	if tracksOther(row, sub.ID) && row.Status != subscriptions.StatusCancelled {
		h.log.Info("ignoring update for superseded stripe subscription", map[string]interface{}{
			"tenantId":       row.TenantID.String(),
			"subscriptionId": sub.ID,
		})
		return nil
	}
	applyStripeSubscription(row, sub)
	return h.store.UpsertForTenant(ctx, row)
}

// tracksOther reports whether row already belongs to a different Stripe subscription.
func tracksOther(row *subscriptions.Subscription, stripeID string) bool {
	return row.StripeSubscriptionID != nil && *row.StripeSubscriptionID != "" && *row.StripeSubscriptionID != stripeID
}

// findRow locates the tenant row for a Stripe subscription. A nil row with a
// nil error means the subscription belongs to nobody we know; the event is
// acknowledged so Stripe does not retry it forever.
func (h *Handler) findRow(ctx context.Context, sub *stripe.Subscription) (*subscriptions.Subscription, error) {
	if tenantID, ok := tenantIDFromMetadata(sub.Metadata); ok {
		return h.loadForTenant(ctx, tenantID)
	}

	row, err := h.store.GetByStripeSubscriptionID(ctx, sub.ID)
	if errors.Is(err, store.ErrNotFound) {
		h.log.Warn("stripe subscription has no tenant", map[string]interface{}{"subscriptionId": sub.ID})
		return nil, nil
	}
	return row, err
}

func (h *Handler) loadForTenant(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Subscription, error) {
	row, err := h.store.GetByTenant(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		return &subscriptions.Subscription{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription for tenant %s: %w", tenantID, err)
	}
	return row, nil
}

func applyStripeSubscription(row *subscriptions.Subscription, sub *stripe.Subscription) {
	if status, ok := stripestatus.NormalizeStripeStatus(string(sub.Status)); ok {
		row.Status = status
	}
	row.StripeSubscriptionID = stripe.String(sub.ID)
	if sub.Customer != nil && sub.Customer.ID != "" {
		row.StripeCustomerID = stripe.String(sub.Customer.ID)
	}
	if sub.CurrentPeriodEnd > 0 {
		row.CurrentPeriodEnd = unixPtr(sub.CurrentPeriodEnd)
	}
	if sub.TrialStart > 0 {
		row.TrialStartDate = unixPtr(sub.TrialStart)
	}
	if sub.TrialEnd > 0 {
		row.TrialEndDate = unixPtr(sub.TrialEnd)
	}
	if v, ok := monthlyValue(sub); ok {
		row.MonthlyValue = v
	}
	if row.Status == "" {
		row.Status = subscriptions.StatusSuspended
	}
}

// monthlyValue sums the recurring prices normalised to one month, in major units.
func monthlyValue(sub *stripe.Subscription) (float64, bool) {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return 0, false
	}
	var cents float64
	for _, item := range sub.Items.Data {
		if item == nil || item.Price == nil || item.Price.Recurring == nil {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		cents += stripestatus.ToMonthly(
			float64(item.Price.UnitAmount*qty),
			string(item.Price.Recurring.Interval),
			item.Price.Recurring.IntervalCount,
		)
	}
	return math.Round(cents) / 100, true
}

func tenantIDFromMetadata(md map[string]string) (uuid.UUID, bool) {
	if md == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(md["tenant_id"])
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func tenantIDFromSubscriptionOrRef(sub *stripe.Subscription, clientRef string) (uuid.UUID, error) {
	if id, ok := tenantIDFromMetadata(sub.Metadata); ok {
		return id, nil
	}
	if clientRef == "" {
		return uuid.Nil, errors.New("missing tenant_id (metadata.tenant_id or client_reference_id)")
	}
	id, err := uuid.Parse(clientRef)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid tenant_id %q: %w", clientRef, err)
	}
	return id, nil
}

func unixPtr(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}
