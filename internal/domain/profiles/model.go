package profiles

import (
	"time"

	"github.com/google/uuid"
)

type PermissionLevel string

const (
	LevelAdmin       PermissionLevel = "admin"
	LevelEditor      PermissionLevel = "editor"
	LevelOperational PermissionLevel = "operational"
	LevelViewOnly    PermissionLevel = "view_only"
)

// UserProfile is the tenant-scoped identity row behind an authenticated user.
// Profiles are deactivated, never deleted.
type UserProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_profiles_tenant_id"`
	Email    string    `gorm:"not null"`
	Name     string

	PermissionLevel PermissionLevel `gorm:"column:permission_level;type:varchar(20);not null;default:'view_only'"`
	Active          bool            `gorm:"not null;default:true"`

	// Replaces the hard-coded super-admin identity check.
	IsPlatformOperator bool `gorm:"column:is_platform_operator;not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
