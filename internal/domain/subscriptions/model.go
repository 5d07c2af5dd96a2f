package subscriptions

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Subscription is the one billing row a tenant owns. Payment webhooks keep it in
// sync with the provider; readers never cache it.
type Subscription struct {
	ID       uint      `gorm:"primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_tenant_id"`
	Status   Status    `gorm:"type:varchar(20);not null"`

	TrialStartDate   *time.Time `gorm:"column:trial_start_date"`
	TrialEndDate     *time.Time `gorm:"column:trial_end_date"`
	CurrentPeriodEnd *time.Time `gorm:"column:current_period_end"`
	MonthlyValue     float64    `gorm:"column:monthly_value"`

	StripeCustomerID     *string `gorm:"column:stripe_customer_id"`
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_subscriptions_stripe_subscription_id"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
