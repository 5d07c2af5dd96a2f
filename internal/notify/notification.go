package notify

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAccessDenied      Kind = "access_denied"
	KindInactiveUser      Kind = "inactive_user"
	KindSessionTerminated Kind = "session_terminated"
)

// Notification is a transient user-facing message (a toast).
type Notification struct {
	Kind    Kind      `json:"kind"`
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
