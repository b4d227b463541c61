package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillstage/skillstage-backend/internal/model"
)

// SessionRepository handles test session data access. The conditional updates
// here are the serialization point for concurrent finalize triggers.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, step, questions, answers, status, started_at, end_time,
	score_percent, awarded_level, graded_at, finalized_by, created_at, updated_at`

func scanSession(row pgx.Row) (*model.TestSession, error) {
	s := &model.TestSession{}
	err := row.Scan(&s.ID, &s.UserID, &s.Step, &s.Questions, &s.Answers, &s.Status,
		&s.StartedAt, &s.EndTime, &s.ScorePercent, &s.AwardedLevel, &s.GradedAt,
		&s.FinalizedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session with its sampled question snapshot.
func (r *SessionRepository) Create(ctx context.Context, s *model.TestSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_sessions (id, user_id, step, questions, answers, status, started_at, end_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.Step, s.Questions, s.Answers, s.Status, s.StartedAt, s.EndTime,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a session by id.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return s, err
}

// ListByUser retrieves a user's session history, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM test_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.TestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// SaveAnswers replaces the whole answer set (last write wins). Returns false
// without writing when the session is no longer in_progress.
func (r *SessionRepository) SaveAnswers(ctx context.Context, sessionID uuid.UUID, answers model.AnswerSet) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET answers = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		sessionID, answers, model.SessionStatusInProgress,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetStatus performs a guarded state transition. Transitions not listed in
// the state machine are rejected outright; a raced transition (row no longer
// in the from status) returns false without error.
func (r *SessionRepository) SetStatus(ctx context.Context, sessionID uuid.UUID, from, to model.SessionStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal session transition %s -> %s", from, to)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2`,
		sessionID, from, to,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinalizeGrade commits the write-once grade fields and the user-level
// mutation in one transaction. The WHERE clause on graded_at is the whole
// idempotency story: exactly one caller wins; everyone else gets false and
// re-reads the stored result. The losing trigger never touches the user row.
func (r *SessionRepository) FinalizeGrade(ctx context.Context, grade model.SessionGrade, userUpd model.UserLevelUpdate) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE test_sessions
		 SET status = $2, score_percent = $3, awarded_level = $4, graded_at = $5,
		     finalized_by = $6, updated_at = NOW()
		 WHERE id = $1
		   AND graded_at IS NULL
		   AND status IN ($7, $8, $9)`,
		grade.SessionID, model.SessionStatusGraded, grade.ScorePercent,
		grade.AwardedLevel, grade.GradedAt, grade.FinalizedBy,
		model.SessionStatusInProgress, model.SessionStatusSubmitted, model.SessionStatusAutoSubmitted,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE users
		 SET current_level = COALESCE($2, current_level),
		     blocked_from_retake_step1 = blocked_from_retake_step1 OR $3,
		     updated_at = NOW()
		 WHERE id = $1`,
		userUpd.UserID, userUpd.NewLevel, userUpd.BlockStep1Retake,
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// FindOverdue returns in_progress sessions whose deadline passed before
// olderThan — lost timers from a crashed worker, found by the sweeper.
func (r *SessionRepository) FindOverdue(ctx context.Context, olderThan time.Time, limit int) ([]model.OverdueSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, (SELECT COUNT(*) FROM jsonb_object_keys(answers))
		 FROM test_sessions
		 WHERE status = $1 AND end_time < $2
		 ORDER BY end_time
		 LIMIT $3`,
		model.SessionStatusInProgress, olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []model.OverdueSession
	for rows.Next() {
		var o model.OverdueSession
		if err := rows.Scan(&o.ID, &o.AnswerCount); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}
