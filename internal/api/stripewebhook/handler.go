package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"crm-app/internal/domain/subscriptions"
	"crm-app/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/subscription"
	"github.com/stripe/stripe-go/v75/webhook"
)

const maxBodyBytes = 65536

type SubscriptionStore interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeID string) (*subscriptions.Subscription, error)
	UpsertForTenant(ctx context.Context, sub *subscriptions.Subscription) error
}

// SubscriptionFetcher loads a subscription from the Stripe API; subscription.Get in production.
type SubscriptionFetcher func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)

// Handler keeps the tenant's subscription row in step with Stripe. The guard
// reads that row on every check, so nothing else needs to be told.
type Handler struct {
	store    SubscriptionStore
	secret   string
	fetchSub SubscriptionFetcher
	log      logger.Logger
}

func NewHandler(s SubscriptionStore, webhookSecret string, log logger.Logger) *Handler {
	return &Handler{
		store:    s,
		secret:   webhookSecret,
		fetchSub: subscription.Get,
		log:      log.Component("stripe-webhook"),
	}
}

func (h *Handler) WithSubscriptionFetcher(fn SubscriptionFetcher) *Handler {
	h.fetchSub = fn
	return h
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn("stripe signature verification failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	ctx := c.Request.Context()
	fields := map[string]interface{}{"eventId": event.ID, "type": string(event.Type)}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		err = h.handleCheckoutSessionCompleted(ctx, &session)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		err = h.handleSubscriptionUpdated(ctx, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		err = h.handleSubscriptionDeleted(ctx, &sub)

	default:
		// acknowledge so Stripe stops retrying
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err != nil {
		fields["error"] = err.Error()
		h.log.Error("stripe event not applied", fields)
		// 500 makes Stripe retry
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.log.Info("stripe event applied", fields)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
