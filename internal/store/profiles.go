package store

import (
	"context"
	"fmt"

	"crm-app/internal/domain/profiles"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error) {
	var p profiles.UserProfile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProfileStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]profiles.UserProfile, error) {
	var out []profiles.UserProfile
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

func (s *ProfileStore) SetPermissionLevel(ctx context.Context, id uuid.UUID, level profiles.PermissionLevel) error {
	return s.update(ctx, id, "permission_level", level)
}

// SetActive is the only way a profile loses access; rows are never deleted.
func (s *ProfileStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.update(ctx, id, "active", active)
}

func (s *ProfileStore) SetPlatformOperator(ctx context.Context, id uuid.UUID, operator bool) error {
	return s.update(ctx, id, "is_platform_operator", operator)
}

func (s *ProfileStore) update(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&profiles.UserProfile{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update profile %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
