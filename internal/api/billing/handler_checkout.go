package billing

import (
	"context"
	"errors"
	"net/http"

	"crm-app/internal/app/http/middleware"
	"crm-app/internal/domain/profiles"
	"crm-app/internal/domain/subscriptions"
	"crm-app/internal/logger"
	"crm-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
)

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error)
}

type SubscriptionReader interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Subscription, error)
}

type Linker interface {
	Link(tenantID uuid.UUID, email string) string
}

// SessionCreator creates a Stripe Checkout Session; checkoutsession.New in production.
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

type Config struct {
	// StripeEnabled is false when no secret key is configured.
	StripeEnabled bool
	PriceID       string
	SuccessURL    string
	CancelURL     string
	Environment   string
}

type Handler struct {
	profiles      ProfileReader
	subscriptions SubscriptionReader
	linker        Linker
	newSession    SessionCreator
	listPlans     PlanLister
	cfg           Config
	log           logger.Logger
}

func NewHandler(p ProfileReader, s SubscriptionReader, linker Linker, cfg Config, log logger.Logger) *Handler {
	return &Handler{
		profiles:      p,
		subscriptions: s,
		linker:        linker,
		newSession:    checkoutsession.New,
		listPlans:     ListStripePlans,
		cfg:           cfg,
		log:           log,
	}
}

// WithSessionCreator swaps the Stripe call, for tests.
func (h *Handler) WithSessionCreator(fn SessionCreator) *Handler {
	h.newSession = fn
	return h
}

// CheckoutLink returns the hosted checkout URL for the caller's tenant.
func (h *Handler) CheckoutLink(c *gin.Context) {
	p, ok := h.caller(c)
	if !ok {
		return
	}

	email := middleware.Email(c)
	if email == "" {
		email = p.Email
	}
	url := h.linker.Link(p.TenantID, email)
	if url == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Checkout not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	if !h.cfg.StripeEnabled || h.cfg.PriceID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe not configured"})
		return
	}

	p, ok := h.caller(c)
	if !ok {
		return
	}

	sub, err := h.subscriptions.GetByTenant(c.Request.Context(), p.TenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Subscription data temporarily unavailable"})
		return
	}

	tenant := p.TenantID.String()
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(h.cfg.SuccessURL),
		CancelURL:  stripe.String(h.cfg.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(h.cfg.PriceID), Quantity: stripe.Int64(1)},
		},

		ClientReferenceID: stripe.String(tenant),

		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"tenant_id": tenant,
				"user_id":   p.ID.String(),
				"app_env":   h.cfg.Environment,
			},
		},
	}
	params.AddMetadata("tenant_id", tenant)

	// reuse the tenant's customer so Stripe keeps one billing history
	if sub != nil && sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		params.Customer = stripe.String(*sub.StripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(p.Email)
	}

	s, err := h.newSession(params)
	if err != nil {
		h.log.Error("stripe checkout session failed", map[string]interface{}{
			"tenantId": tenant,
			"error":    err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

func (h *Handler) caller(c *gin.Context) (*profiles.UserProfile, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return nil, false
	}

	p, err := h.profiles.GetByID(c.Request.Context(), userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return nil, false
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Profile temporarily unavailable"})
		return nil, false
	}
	return p, true
}
