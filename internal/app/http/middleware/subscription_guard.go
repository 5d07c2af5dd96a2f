package middleware

import (
	"context"
	"errors"
	"net/http"

	"crm-app/internal/domain/access"
	"crm-app/internal/domain/profiles"
	"crm-app/internal/guard"
	"crm-app/internal/notify"
	"crm-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ctxProfile = "profile"

type GateChecker interface {
	Check(ctx context.Context, req guard.Request) (guard.Result, error)
}

type ProfileLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profiles.UserProfile, error)
}

// RequireActiveSubscription runs the action guard in inline mode. Blocked
// callers get 402 with the banner to show; while data is unavailable the
// request is refused with 503 so the client can retry.
func RequireActiveSubscription(gate GateChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := guard.Request{
			Path:  c.Request.URL.Path,
			Mode:  access.ModeInline,
			Email: Email(c),
		}
		if id, ok := UserID(c); ok {
			req.UserID = &id
		}

		res, err := gate.Check(c.Request.Context(), req)
		if err != nil {
			// client disconnected
			c.Abort()
			return
		}

		switch {
		case res.Loading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, res)
			return
		case !res.Allowed:
			c.AbortWithStatusJSON(http.StatusPaymentRequired, res)
			return
		}

		if res.Profile != nil {
			c.Set(ctxProfile, res.Profile)
		}
		c.Next()
	}
}

// RequirePermission lets the request through only when the caller's active
// profile ranks at or above level.
func RequirePermission(p ProfileLoader, notifier notify.Publisher, level profiles.PermissionLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		profile, ok := CurrentProfile(c)
		if !ok {
			loaded, err := p.GetByID(c.Request.Context(), userID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No profile linked to this account"})
				return
			case err != nil:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Profile temporarily unavailable"})
				return
			}
			profile = loaded
			c.Set(ctxProfile, profile)
		}

		if !access.HasPermission(profile, level) {
			if notifier != nil {
				notifier.Publish(notify.Notification{
					Kind:    notify.KindAccessDenied,
					UserID:  userID,
					Message: "You do not have permission to perform this action.",
				})
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "Insufficient permission",
				"required": level,
			})
			return
		}

		c.Next()
	}
}

// CurrentProfile returns the profile loaded by an earlier guard in the chain.
func CurrentProfile(c *gin.Context) (*profiles.UserProfile, bool) {
	v, ok := c.Get(ctxProfile)
	if !ok {
		return nil, false
	}
	p, ok := v.(*profiles.UserProfile)
	return p, ok && p != nil
}
