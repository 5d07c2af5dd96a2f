package stripewebhooks

import (
	"context"

	"crm-app/internal/domain/subscriptions"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	row, err := h.findRow(ctx, sub)
	if err != nil || row == nil {
		return err
	}
	// a later checkout may already have replaced this subscription
	if tracksOther(row, sub.ID) {
		return nil
	}

	applyStripeSubscription(row, sub)
	row.Status = subscriptions.StatusCancelled
	return h.store.UpsertForTenant(ctx, row)
}
