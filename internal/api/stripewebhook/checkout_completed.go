package stripewebhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleCheckoutSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.Mode != "" && session.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}

	// the event carries only ids; the full object has status and period
	subData, err := h.fetchSub(session.Subscription.ID, nil)
	if err != nil || subData == nil {
		return fmt.Errorf("failed to fetch subscription %s: %w", session.Subscription.ID, err)
	}

	tenantID, err := tenantIDFromSubscriptionOrRef(subData, session.ClientReferenceID)
	if err != nil {
		return err
	}

	row, err := h.loadForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	applyStripeSubscription(row, subData)
	if session.Customer != nil && session.Customer.ID != "" {
		row.StripeCustomerID = stripe.String(session.Customer.ID)
	}

	if err := h.store.UpsertForTenant(ctx, row); err != nil {
		return fmt.Errorf("failed to update subscription after checkout: %w", err)
	}
	return nil
}
