package profiles

import (
	"context"
	"errors"
	"net/http"

	"crm-app/internal/app/http/middleware"
	"crm-app/internal/domain/access"
	domain "crm-app/internal/domain/profiles"
	"crm-app/internal/logger"
	"crm-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.UserProfile, error)
	SetPermissionLevel(ctx context.Context, id uuid.UUID, level domain.PermissionLevel) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Handler serves tenant admin actions. Routes are mounted behind
// RequirePermission(admin), which leaves the caller's profile in the context.
type Handler struct {
	store Store
	log   logger.Logger
}

func NewHandler(s Store, log logger.Logger) *Handler {
	return &Handler{store: s, log: log.Component("profiles")}
}

type profileDTO struct {
	ID                 uuid.UUID              `json:"id"`
	Email              string                 `json:"email"`
	Name               string                 `json:"name"`
	PermissionLevel    domain.PermissionLevel `json:"permission_level"`
	Active             bool                   `json:"active"`
	IsPlatformOperator bool                   `json:"is_platform_operator"`
}

func toDTO(p domain.UserProfile) profileDTO {
	return profileDTO{
		ID:                 p.ID,
		Email:              p.Email,
		Name:               p.Name,
		PermissionLevel:    p.PermissionLevel,
		Active:             p.Active,
		IsPlatformOperator: p.IsPlatformOperator,
	}
}

func (h *Handler) List(c *gin.Context) {
	admin, ok := middleware.CurrentProfile(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin profile required"})
		return
	}

	list, err := h.store.ListByTenant(c.Request.Context(), admin.TenantID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Profiles temporarily unavailable"})
		return
	}

	out := make([]profileDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toDTO(p))
	}
	c.JSON(http.StatusOK, gin.H{"profiles": out})
}

func (h *Handler) SetPermission(c *gin.Context) {
	var body struct {
		PermissionLevel string `json:"permission_level"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}
	level, err := access.ParsePermissionLevel(body.PermissionLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown permission level"})
		return
	}

	admin, target, ok := h.target(c)
	if !ok {
		return
	}
	if target.ID == admin.ID && level != domain.LevelAdmin {
		c.JSON(http.StatusConflict, gin.H{"error": "You cannot remove your own admin permission"})
		return
	}

	if err := h.store.SetPermissionLevel(c.Request.Context(), target.ID, level); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.log.Info("permission level changed", map[string]interface{}{
		"adminId":  admin.ID.String(),
		"targetId": target.ID.String(),
		"from":     string(target.PermissionLevel),
		"to":       string(level),
	})

	target.PermissionLevel = level
	c.JSON(http.StatusOK, toDTO(*target))
}

func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	admin, target, ok := h.target(c)
	if !ok {
		return
	}
	if target.ID == admin.ID && !active {
		c.JSON(http.StatusConflict, gin.H{"error": "You cannot deactivate yourself"})
		return
	}

	if err := h.store.SetActive(c.Request.Context(), target.ID, active); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.log.Info("profile active flag changed", map[string]interface{}{
		"adminId":  admin.ID.String(),
		"targetId": target.ID.String(),
		"active":   active,
	})

	target.Active = active
	c.JSON(http.StatusOK, toDTO(*target))
}

// target loads the profile named in the path. Profiles of other tenants are
// reported as missing.
func (h *Handler) target(c *gin.Context) (*domain.UserProfile, *domain.UserProfile, bool) {
	admin, ok := middleware.CurrentProfile(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin profile required"})
		return nil, nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile id"})
		return nil, nil, false
	}

	target, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, err)
		return nil, nil, false
	}
	if target.TenantID != admin.TenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return nil, nil, false
	}
	return admin, target, true
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	h.log.Error("profile update failed", map[string]interface{}{"error": err.Error()})
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Profiles temporarily unavailable"})
}
