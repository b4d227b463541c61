package event

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skillstage/skillstage-backend/internal/config"
)

// SessionNotifier fans out per-session events over Redis PubSub so that the
// WebSocket connection holding a session, wherever it lives, sees the graded
// result immediately. Delivery is best effort; a disconnected client fetches
// the result over HTTP instead.
type SessionNotifier struct {
	rdb *redis.Client
}

// NewSessionNotifier creates a notifier bound to the shared Redis client.
func NewSessionNotifier(rdb *redis.Client) *SessionNotifier {
	return &SessionNotifier{rdb: rdb}
}

// PublishGraded pushes the graded result onto the session's channel.
func (n *SessionNotifier) PublishGraded(ctx context.Context, evt *SessionGradedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	channel := config.CacheKey.SessionEventsChannel(evt.SessionID.String())
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a PubSub subscription for one session's events. The caller
// owns the returned subscription and must Close it.
func (n *SessionNotifier) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	channel := config.CacheKey.SessionEventsChannel(sessionID.String())
	return n.rdb.Subscribe(ctx, channel)
}
