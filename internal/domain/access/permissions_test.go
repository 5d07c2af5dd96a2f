package access

import (
	"testing"

	"crm-app/internal/domain/profiles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allLevels = []profiles.PermissionLevel{
	profiles.LevelAdmin,
	profiles.LevelEditor,
	profiles.LevelOperational,
	profiles.LevelViewOnly,
}

func profileAt(level profiles.PermissionLevel, active bool) *profiles.UserProfile {
	return &profiles.UserProfile{PermissionLevel: level, Active: active}
}

func TestHasPermission_FollowsHierarchy(t *testing.T) {
	for _, held := range allLevels {
		for _, required := range allLevels {
			want := Rank(held) >= Rank(required)
			got := HasPermission(profileAt(held, true), required)
			assert.Equal(t, want, got, "held=%s required=%s", held, required)
		}
	}
}

func TestHasPermission_InactiveProfileHasNothing(t *testing.T) {
	for _, held := range allLevels {
		for _, required := range allLevels {
			assert.False(t, HasPermission(profileAt(held, false), required), "held=%s required=%s", held, required)
		}
	}
}

func TestHasPermission_EdgeCases(t *testing.T) {
	assert.False(t, HasPermission(nil, profiles.LevelViewOnly))
	assert.False(t, HasPermission(profileAt(profiles.LevelAdmin, true), "owner"))
	assert.False(t, HasPermission(profileAt("owner", true), profiles.LevelViewOnly))
}

func TestConvenienceChecks(t *testing.T) {
	admin := profileAt(profiles.LevelAdmin, true)
	editor := profileAt(profiles.LevelEditor, true)
	operational := profileAt(profiles.LevelOperational, true)
	viewer := profileAt(profiles.LevelViewOnly, true)

	assert.True(t, IsAdmin(admin))
	assert.False(t, IsAdmin(editor))

	assert.True(t, CanEditData(editor))
	assert.False(t, CanEditData(operational))

	assert.True(t, CanCreateRecords(operational))
	assert.False(t, CanCreateRecords(viewer))
}

func TestIsPlatformOperator(t *testing.T) {
	op := profileAt(profiles.LevelViewOnly, true)
	op.IsPlatformOperator = true
	assert.True(t, IsPlatformOperator(op))

	op.Active = false
	assert.False(t, IsPlatformOperator(op))

	assert.False(t, IsPlatformOperator(profileAt(profiles.LevelAdmin, true)))
	assert.False(t, IsPlatformOperator(nil))
}

func TestParsePermissionLevel(t *testing.T) {
	tests := []struct {
		in   string
		want profiles.PermissionLevel
	}{
		{"admin", profiles.LevelAdmin},
		{" Editor ", profiles.LevelEditor},
		{"operational", profiles.LevelOperational},
		{"view-only", profiles.LevelViewOnly},
		{"VIEW_ONLY", profiles.LevelViewOnly},
	}
	for _, tt := range tests {
		got, err := ParsePermissionLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParsePermissionLevel("superuser")
	assert.ErrorIs(t, err, ErrUnknownPermission)
}
