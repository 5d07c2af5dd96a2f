package session

import (
	"context"
	"net/http"
	"time"

	"crm-app/internal/app/http/middleware"
	"crm-app/internal/logger"
	"crm-app/internal/notify"
	domain "crm-app/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Validator interface {
	OnSessionStart(ctx context.Context, s domain.Session) domain.Report
}

type Inbox interface {
	Drain(ctx context.Context, userID uuid.UUID) ([]notify.Notification, error)
}

type Handler struct {
	validator Validator
	inbox     Inbox
	log       logger.Logger
}

func NewHandler(v Validator, inbox Inbox, log logger.Logger) *Handler {
	return &Handler{validator: v, inbox: inbox, log: log}
}

// Start is called by the client once per session, right after sign-in or
// when a stored session is restored.
func (h *Handler) Start(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	s := domain.Session{
		UserID:   userID,
		Email:    middleware.Email(c),
		IssuedAt: middleware.IssuedAt(c),
	}
	if s.IssuedAt.IsZero() {
		s.IssuedAt = time.Now()
	}

	report := h.validator.OnSessionStart(c.Request.Context(), s)
	if report.Outcome == domain.OutcomeDiscarded {
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, report)
}

// Notifications drains the caller's pending toasts.
func (h *Handler) Notifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	items, err := h.inbox.Drain(c.Request.Context(), userID)
	if err != nil {
		h.log.Warn("notification inbox unavailable", map[string]interface{}{
			"userId": userID.String(),
			"error":  err.Error(),
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notifications temporarily unavailable"})
		return
	}
	if items == nil {
		items = []notify.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}
