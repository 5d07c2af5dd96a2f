package billing

import (
	"context"
	"math"
	"net/http"

	stripeinfra "crm-app/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
)

type Plan struct {
	PriceID      string  `json:"price_id"`
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Currency     string  `json:"currency"`
	UnitAmount   float64 `json:"unit_amount"` // major units
	Interval     string  `json:"interval"`
	MonthlyValue float64 `json:"monthly_value"`
}

type PlanLister func(ctx context.Context) ([]Plan, error)

// ListStripePlans returns the active recurring prices shown on the subscription page.
func ListStripePlans(ctx context.Context) ([]Plan, error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	params.Active = stripe.Bool(true)
	params.Type = stripe.String(string(stripe.PriceTypeRecurring))
	params.AddExpand("data.product")

	it := price.List(params)

	plans := []Plan{}
	for it.Next() {
		p := it.Price()
		if !p.Active || p.Recurring == nil {
			continue
		}
		if p.Product == nil || !p.Product.Active {
			continue
		}
		// hide prices via metadata
		if p.Metadata["visible"] == "false" {
			continue
		}
		plans = append(plans, toPlan(p))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func toPlan(p *stripe.Price) Plan {
	amount := float64(p.UnitAmount) / 100.0
	monthlyCents := stripeinfra.ToMonthly(float64(p.UnitAmount), string(p.Recurring.Interval), p.Recurring.IntervalCount)
	monthly := math.Round(monthlyCents) / 100

	return Plan{
		PriceID:      p.ID,
		ProductID:    p.Product.ID,
		Name:         p.Product.Name,
		Currency:     string(p.Currency),
		UnitAmount:   amount,
		Interval:     string(p.Recurring.Interval),
		MonthlyValue: monthly,
	}
}

func (h *Handler) WithPlanLister(fn PlanLister) *Handler {
	h.listPlans = fn
	return h
}

func (h *Handler) ListPlans(c *gin.Context) {
	if !h.cfg.StripeEnabled {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe not configured"})
		return
	}

	plans, err := h.listPlans(c.Request.Context())
	if err != nil {
		h.log.Error("stripe price listing failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}
	c.JSON(http.StatusOK, plans)
}
