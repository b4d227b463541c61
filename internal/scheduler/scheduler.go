package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/config"
)

// RedisScheduler keeps one durable timer per test session in a Redis sorted
// set scored by the fire time. A poller claims due entries with ZREM so that
// multiple server instances never deliver the same session twice.
type RedisScheduler struct {
	rdb         *redis.Client
	maxAttempts int
	backoffBase time.Duration
	log         zerolog.Logger
}

// NewRedisScheduler creates a scheduler bound to the shared Redis client.
func NewRedisScheduler(rdb *redis.Client, maxAttempts int, backoffBase time.Duration, log zerolog.Logger) *RedisScheduler {
	return &RedisScheduler{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		log:         log.With().Str("component", "deadline_scheduler").Logger(),
	}
}

// Schedule registers (or moves) the auto-submit timer for a session. Calling
// it again for the same session just rewrites the score, so reschedules are
// free.
func (s *RedisScheduler) Schedule(ctx context.Context, sessionID uuid.UUID, fireAt time.Time) error {
	return s.rdb.ZAdd(ctx, config.WorkerKey.DeadlineScheduleZSet, redis.Z{
		Score:  float64(fireAt.Unix()),
		Member: sessionID.String(),
	}).Err()
}

// Cancel drops a session's timer. Missing entries are not an error.
func (s *RedisScheduler) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.rdb.ZRem(ctx, config.WorkerKey.DeadlineScheduleZSet, sessionID.String()).Err(); err != nil {
		return err
	}
	return s.rdb.HDel(ctx, config.WorkerKey.DeadlineAttemptsHash, sessionID.String()).Err()
}

// Due claims up to limit sessions whose timers have fired. A session is only
// returned to the caller that successfully ZREMs it; a claimed session that
// fails processing must be handed to Retry or it is lost to the DB sweeper.
func (s *RedisScheduler) Due(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	members, err := s.rdb.ZRangeByScore(ctx, config.WorkerKey.DeadlineScheduleZSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	var claimed []uuid.UUID
	for _, member := range members {
		removed, err := s.rdb.ZRem(ctx, config.WorkerKey.DeadlineScheduleZSet, member).Result()
		if err != nil {
			return claimed, err
		}
		if removed == 0 {
			// Another instance claimed it first.
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			s.log.Warn().Str("member", member).Msg("Dropping malformed schedule entry")
			continue
		}
		claimed = append(claimed, id)
	}
	return claimed, nil
}

// Retry re-queues a failed delivery with exponential backoff, or moves the
// session to the dead letter list once attempts are exhausted. Returns true
// if the session was re-queued.
func (s *RedisScheduler) Retry(ctx context.Context, sessionID uuid.UUID, now time.Time) (bool, error) {
	attempt, err := s.rdb.HIncrBy(ctx, config.WorkerKey.DeadlineAttemptsHash, sessionID.String(), 1).Result()
	if err != nil {
		return false, err
	}

	if attempt >= int64(s.maxAttempts) {
		if err := s.rdb.RPush(ctx, config.WorkerKey.DeadlineDeadLetterList, sessionID.String()).Err(); err != nil {
			return false, err
		}
		if err := s.rdb.HDel(ctx, config.WorkerKey.DeadlineAttemptsHash, sessionID.String()).Err(); err != nil {
			return false, err
		}
		s.log.Error().
			Str("session_id", sessionID.String()).
			Int64("attempts", attempt).
			Msg("Deadline delivery exhausted retries, dead-lettered")
		return false, nil
	}

	fireAt := now.Add(BackoffDelay(s.backoffBase, int(attempt)))
	if err := s.Schedule(ctx, sessionID, fireAt); err != nil {
		return false, err
	}
	s.log.Warn().
		Str("session_id", sessionID.String()).
		Int64("attempt", attempt).
		Time("next_fire", fireAt).
		Msg("Deadline delivery failed, rescheduled")
	return true, nil
}

// Ack clears retry bookkeeping after a successful delivery.
func (s *RedisScheduler) Ack(ctx context.Context, sessionID uuid.UUID) error {
	return s.rdb.HDel(ctx, config.WorkerKey.DeadlineAttemptsHash, sessionID.String()).Err()
}

// BackoffDelay returns the wait before retry number attempt (1-based):
// base, 2*base, 4*base, ...
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}
