package access

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crm-app/internal/app/http/middleware"
	domain "crm-app/internal/domain/access"
	"crm-app/internal/domain/profiles"
	"crm-app/internal/domain/subscriptions"
	"crm-app/internal/guard"
	"crm-app/internal/logger"
	"crm-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Gate interface {
	Check(ctx context.Context, req guard.Request) (guard.Result, error)
}

type Handler struct {
	gate          Gate
	profiles      guard.ProfileReader
	subscriptions guard.SubscriptionReader
	log           logger.Logger
	now           func() time.Time
}

func NewHandler(gate Gate, p guard.ProfileReader, s guard.SubscriptionReader, log logger.Logger) *Handler {
	return &Handler{
		gate:          gate,
		profiles:      p,
		subscriptions: s,
		log:           log,
		now:           time.Now,
	}
}

// RouteDecision answers the route guard for a page the client is about to show.
func (h *Handler) RouteDecision(c *gin.Context) {
	h.decide(c, domain.ModeRedirect)
}

// ActionDecision answers the inline guard wrapping a write action.
func (h *Handler) ActionDecision(c *gin.Context) {
	h.decide(c, domain.ModeInline)
}

func (h *Handler) decide(c *gin.Context, mode domain.Mode) {
	path := c.Query("path")
	if path == "" {
		path = "/"
	}

	req := guard.Request{Path: path, Mode: mode, Email: middleware.Email(c)}
	if id, ok := middleware.UserID(c); ok {
		req.UserID = &id
	}

	res, err := h.gate.Check(c.Request.Context(), req)
	if err != nil {
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubscriptionStatus returns the derived status for the caller's tenant.
func (h *Handler) SubscriptionStatus(c *gin.Context) {
	_, sub, ok := h.loadCaller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, domain.ResolveSubscription(sub, h.now()))
}

type meResponse struct {
	ID                 uuid.UUID                        `json:"id"`
	TenantID           uuid.UUID                        `json:"tenant_id"`
	Email              string                           `json:"email"`
	Name               string                           `json:"name"`
	PermissionLevel    profiles.PermissionLevel         `json:"permission_level"`
	Active             bool                             `json:"active"`
	IsAdmin            bool                             `json:"is_admin"`
	CanEditData        bool                             `json:"can_edit_data"`
	CanCreateRecords   bool                             `json:"can_create_records"`
	IsPlatformOperator bool                             `json:"is_platform_operator"`
	Subscription       domain.SubscriptionDerivedStatus `json:"subscription"`
}

func (h *Handler) Me(c *gin.Context) {
	p, sub, ok := h.loadCaller(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, meResponse{
		ID:                 p.ID,
		TenantID:           p.TenantID,
		Email:              p.Email,
		Name:               p.Name,
		PermissionLevel:    p.PermissionLevel,
		Active:             p.Active,
		IsAdmin:            domain.IsAdmin(p),
		CanEditData:        domain.CanEditData(p),
		CanCreateRecords:   domain.CanCreateRecords(p),
		IsPlatformOperator: domain.IsPlatformOperator(p),
		Subscription:       domain.ResolveSubscription(sub, h.now()),
	})
}

func (h *Handler) loadCaller(c *gin.Context) (*profiles.UserProfile, *subscriptions.Subscription, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return nil, nil, false
	}

	ctx := c.Request.Context()
	p, err := h.profiles.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return nil, nil, false
	}
	if err != nil {
		h.unavailable(c, userID, err)
		return nil, nil, false
	}

	sub, err := h.subscriptions.GetByTenant(ctx, p.TenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.unavailable(c, userID, err)
		return nil, nil, false
	}
	return p, sub, true
}

func (h *Handler) unavailable(c *gin.Context, userID uuid.UUID, err error) {
	h.log.Warn("access data unavailable", map[string]interface{}{
		"userId": userID.String(),
		"error":  err.Error(),
	})
	c.Header("Retry-After", "1")
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Subscription data temporarily unavailable"})
}
