package access

import (
	"errors"
	"fmt"
	"strings"

	"crm-app/internal/domain/profiles"
)

var ErrUnknownPermission = errors.New("unknown permission level")

// hierarchy is the single source of truth for permission ordering.
var hierarchy = map[profiles.PermissionLevel]int{
	profiles.LevelAdmin:       4,
	profiles.LevelEditor:      3,
	profiles.LevelOperational: 2,
	profiles.LevelViewOnly:    1,
}

// Rank returns the level's position in the hierarchy, 0 for unknown levels.
func Rank(level profiles.PermissionLevel) int {
	return hierarchy[level]
}

func ParsePermissionLevel(s string) (profiles.PermissionLevel, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	level := profiles.PermissionLevel(v)
	if _, ok := hierarchy[level]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return level, nil
}

// HasPermission reports whether an active profile ranks at or above required.
// Absent or deactivated profiles never have a permission.
func HasPermission(p *profiles.UserProfile, required profiles.PermissionLevel) bool {
	if p == nil || !p.Active {
		return false
	}
	need := Rank(required)
	if need == 0 {
		return false
	}
	return Rank(p.PermissionLevel) >= need
}

func IsAdmin(p *profiles.UserProfile) bool {
	return HasPermission(p, profiles.LevelAdmin)
}

func CanEditData(p *profiles.UserProfile) bool {
	return HasPermission(p, profiles.LevelEditor)
}

func CanCreateRecords(p *profiles.UserProfile) bool {
	return HasPermission(p, profiles.LevelOperational)
}

// IsPlatformOperator grants the unconditional guard bypass. It follows the same
// rules as any other permission: a deactivated operator gets nothing.
func IsPlatformOperator(p *profiles.UserProfile) bool {
	return HasPermission(p, profiles.LevelViewOnly) && p.IsPlatformOperator
}
