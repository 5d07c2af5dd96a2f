package session

import (
	"context"
	"errors"
	"testing"

	"crm-app/internal/domain/profiles"
	"crm-app/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileGetterFunc func(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error)

func (f profileGetterFunc) GetByID(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error) {
	return f(ctx, id)
}

func TestProfileAccessChecker(t *testing.T) {
	boom := errors.New("db down")

	tests := []struct {
		name    string
		profile *profiles.UserProfile
		err     error
		want    ValidationResult
		wantErr error
	}{
		{
			name:    "active profile",
			profile: &profiles.UserProfile{Active: true},
			want:    ValidationResult{Valid: true, AllowAccess: true},
		},
		{
			name:    "inactive profile keeps access",
			profile: &profiles.UserProfile{Active: false},
			want: ValidationResult{
				Valid:       false,
				AllowAccess: true,
				Message:     "Your account is inactive. Renew the subscription to make changes.",
			},
		},
		{
			name: "no profile",
			err:  store.ErrNotFound,
			want: ValidationResult{
				Valid:       false,
				AllowAccess: false,
				Message:     "Access denied: no profile is linked to this account.",
			},
		},
		{
			name:    "lookup failure",
			err:     boom,
			wantErr: boom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewProfileAccessChecker(profileGetterFunc(func(context.Context, uuid.UUID) (*profiles.UserProfile, error) {
				return tt.profile, tt.err
			}))

			got, err := c.ValidateUserAccess(context.Background(), uuid.New())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
