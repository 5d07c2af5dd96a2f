package store

import (
	"context"
	"fmt"

	"crm-app/internal/domain/subscriptions"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionStore reads straight from the database on every call so that
// webhook updates are visible to the next status check.
type SubscriptionStore struct {
	db *gorm.DB
}

func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Subscription, error) {
	var sub subscriptions.Subscription
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) GetByStripeSubscriptionID(ctx context.Context, stripeID string) (*subscriptions.Subscription, error) {
	var sub subscriptions.Subscription
	if err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeID).First(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

// UpsertForTenant writes the tenant's only subscription row, creating it on
// first use. The unique tenant index makes a second row impossible.
func (s *SubscriptionStore) UpsertForTenant(ctx context.Context, sub *subscriptions.Subscription) error {
	if sub.TenantID == uuid.Nil {
		return fmt.Errorf("upsert subscription: tenant id missing")
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"trial_start_date",
				"trial_end_date",
				"current_period_end",
				"monthly_value",
				"stripe_customer_id",
				"stripe_subscription_id",
				"updated_at",
			}),
		}).
		Create(sub).Error
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}
