package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/scheduler"
	"github.com/skillstage/skillstage-backend/internal/service"
)

const (
	// DeadlineClaimBatch bounds how many due sessions one poll claims.
	DeadlineClaimBatch = 100
	// SweepBatch bounds how many overdue sessions one sweep recovers.
	SweepBatch = 200
)

// DeadlineWorker drives auto submission: it polls the scheduler for due
// sessions and finalizes each through the exact grading path a manual submit
// uses. A periodic DB sweep recovers sessions whose timer was lost.
type DeadlineWorker struct {
	sched    *scheduler.RedisScheduler
	sessions *service.SessionService

	pollInterval  time.Duration
	sweepInterval time.Duration
	sweepGrace    time.Duration

	log zerolog.Logger
}

func NewDeadlineWorker(
	sched *scheduler.RedisScheduler,
	sessions *service.SessionService,
	pollInterval, sweepInterval, sweepGrace time.Duration,
	log zerolog.Logger,
) *DeadlineWorker {
	return &DeadlineWorker{
		sched:         sched,
		sessions:      sessions,
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
		sweepGrace:    sweepGrace,
		log:           log.With().Str("component", "deadline_worker").Logger(),
	}
}

func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("poll_interval", w.pollInterval).
		Dur("sweep_interval", w.sweepInterval).
		Msg("DeadlineWorker started")

	poll := time.NewTicker(w.pollInterval)
	sweep := time.NewTicker(w.sweepInterval)
	defer poll.Stop()
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("DeadlineWorker stopped")
			return

		case <-poll.C:
			w.deliverDue(ctx)

		case <-sweep.C:
			n, err := w.sessions.SweepOverdue(ctx, time.Now().Add(-w.sweepGrace), SweepBatch)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Sweep failed")
				}
				continue
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("Sweep recovered overdue sessions")
			}
		}
	}
}

func (w *DeadlineWorker) deliverDue(ctx context.Context) {
	due, err := w.sched.Due(ctx, time.Now(), DeadlineClaimBatch)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Polling due sessions failed")
		}
		return
	}

	for _, sessionID := range due {
		w.finalizeOne(ctx, sessionID)
	}
}

func (w *DeadlineWorker) finalizeOne(ctx context.Context, sessionID uuid.UUID) {
	_, err := w.sessions.Finalize(ctx, sessionID, model.TriggerDeadline)
	if err == nil {
		if ackErr := w.sched.Ack(ctx, sessionID); ackErr != nil {
			w.log.Warn().Err(ackErr).Str("session_id", sessionID.String()).Msg("Ack failed")
		}
		return
	}

	// A session that was already resolved by another path needs no retry.
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrSessionNotActive) {
		w.log.Debug().Err(err).
			Str("session_id", sessionID.String()).
			Msg("Session already resolved, dropping timer")
		_ = w.sched.Ack(ctx, sessionID)
		return
	}

	w.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Deadline finalize failed")
	if _, retryErr := w.sched.Retry(ctx, sessionID, time.Now()); retryErr != nil {
		w.log.Error().Err(retryErr).Str("session_id", sessionID.String()).Msg("Retry scheduling failed")
	}
}
