package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate records an issued certificate for an awarded level. Rendering
// is handled downstream; this row carries everything a renderer needs.
type Certificate struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Level     Level     `json:"level"`
	Serial    string    `json:"serial"`
	IssuedAt  time.Time `json:"issued_at"`
}
