package session

import (
	"context"
	"errors"

	"crm-app/internal/domain/profiles"
	"crm-app/internal/store"

	"github.com/google/uuid"
)

// ValidationResult mirrors the payload of the user access validation call.
// AllowAccess=false means the user has no profile at all.
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	AllowAccess bool   `json:"allowAccess"`
	Message     string `json:"message"`
}

type AccessChecker interface {
	ValidateUserAccess(ctx context.Context, userID uuid.UUID) (ValidationResult, error)
}

type ProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error)
}

// ProfileAccessChecker answers the validation call from the profile table.
type ProfileAccessChecker struct {
	profiles ProfileGetter
}

func NewProfileAccessChecker(p ProfileGetter) *ProfileAccessChecker {
	return &ProfileAccessChecker{profiles: p}
}

func (c *ProfileAccessChecker) ValidateUserAccess(ctx context.Context, userID uuid.UUID) (ValidationResult, error) {
	p, err := c.profiles.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ValidationResult{
			Valid:       false,
			AllowAccess: false,
			Message:     "Access denied: no profile is linked to this account.",
		}, nil
	}
	if err != nil {
		return ValidationResult{}, err
	}

	if !p.Active {
		// Read access stays; the guards take care of the rest.
		return ValidationResult{
			Valid:       false,
			AllowAccess: true,
			Message:     "Your account is inactive. Renew the subscription to make changes.",
		}, nil
	}

	return ValidationResult{Valid: true, AllowAccess: true}, nil
}
