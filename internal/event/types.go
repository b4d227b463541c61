package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ExchangeName is the topic exchange all platform events go through.
	ExchangeName = "skillstage.events"

	// RoutingKeyLevelAwarded announces a freshly graded session that awarded
	// a competency level.
	RoutingKeyLevelAwarded = "level.awarded"

	// CertificateQueueName is the certificate worker's queue bound to
	// level.awarded.
	CertificateQueueName = "certificate.issue"
)

// LevelAwardedEvent is published exactly when a session's grade is committed
// with a real level (terminal fails are not announced). Consumers must be
// idempotent on SessionID since the broker may redeliver.
type LevelAwardedEvent struct {
	SessionID    uuid.UUID `json:"session_id"`
	UserID       uuid.UUID `json:"user_id"`
	Step         int       `json:"step"`
	Level        string    `json:"level"`
	ScorePercent float64   `json:"score_percent"`
	GradedAt     time.Time `json:"graded_at"`
}

// SessionGradedEvent is the payload pushed to live WebSocket clients over the
// session's Redis channel once grading completes.
type SessionGradedEvent struct {
	SessionID    uuid.UUID `json:"session_id"`
	Status       string    `json:"status"`
	ScorePercent float64   `json:"score_percent"`
	AwardedLevel string    `json:"awarded_level"`
	Advance      bool      `json:"advance_to_next_step"`
	GradedAt     time.Time `json:"graded_at"`
}
