package session

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies an authenticated browser session by its user and the
// moment its token was issued.
type Session struct {
	UserID   uuid.UUID
	Email    string
	IssuedAt time.Time
}
