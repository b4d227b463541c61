package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates test session states.
type SessionStatus string

const (
	SessionStatusInProgress    SessionStatus = "in_progress"
	SessionStatusSubmitted     SessionStatus = "submitted"
	SessionStatusAutoSubmitted SessionStatus = "auto_submitted"
	SessionStatusGraded        SessionStatus = "graded"
	SessionStatusExpired       SessionStatus = "expired"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusInProgress, SessionStatusSubmitted, SessionStatusAutoSubmitted,
		SessionStatusGraded, SessionStatusExpired:
		return true
	}
	return false
}

// Terminal reports whether a session in this status can never change again.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusGraded || s == SessionStatusExpired
}

// CanTransitionTo is the exhaustive state machine:
//
//	in_progress -> {submitted, auto_submitted, expired} -> graded
//
// Everything else is rejected.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusInProgress:
		return next == SessionStatusSubmitted ||
			next == SessionStatusAutoSubmitted ||
			next == SessionStatusExpired
	case SessionStatusSubmitted, SessionStatusAutoSubmitted:
		return next == SessionStatusGraded
	case SessionStatusGraded, SessionStatusExpired:
		return false
	}
	return false
}

// FinalizeTrigger tags which path finalized a session. It is recorded for
// audit only and never changes the grading outcome.
type FinalizeTrigger string

const (
	TriggerManual   FinalizeTrigger = "manual"
	TriggerDeadline FinalizeTrigger = "deadline"
)

// QuestionRef is the denormalized snapshot of a sampled question, captured at
// session start so later pool edits cannot change an in-flight attempt.
type QuestionRef struct {
	QuestionID uuid.UUID `json:"question_id"`
	Competency string    `json:"competency"`
	Level      Level     `json:"level"`
}

// Answer is a candidate's recorded choice for one question.
type Answer struct {
	SelectedIndex int `json:"selected_index"`
	TimeTakenSec  int `json:"time_taken_sec,omitempty"`
}

// AnswerSet maps question id to the recorded answer. Saves replace the whole
// set (last write wins); partial sets are normal before finalization.
type AnswerSet map[uuid.UUID]Answer

// TestSession is one timed attempt by one user at one step.
type TestSession struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Step      int           `json:"step"`
	Questions []QuestionRef `json:"questions"`
	Answers   AnswerSet     `json:"answers"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	// EndTime is the authoritative deadline: started_at + N * minutes per question.
	EndTime      time.Time        `json:"end_time"`
	ScorePercent *float64         `json:"score_percent,omitempty"`
	AwardedLevel *string          `json:"awarded_level,omitempty"`
	GradedAt     *time.Time       `json:"graded_at,omitempty"`
	FinalizedBy  *FinalizeTrigger `json:"finalized_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Graded reports whether the write-once grade fields have been committed.
func (s *TestSession) Graded() bool {
	return s.GradedAt != nil
}

// HasQuestion reports whether id is part of the sampled snapshot.
func (s *TestSession) HasQuestion(id uuid.UUID) bool {
	for _, q := range s.Questions {
		if q.QuestionID == id {
			return true
		}
	}
	return false
}

// QuestionIDs returns the snapshot ids in sampled order.
func (s *TestSession) QuestionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.QuestionID
	}
	return ids
}

// SessionGrade carries the write-once grade fields committed by a single
// conditional update. FinalizedBy records the trigger path.
type SessionGrade struct {
	SessionID    uuid.UUID
	ScorePercent float64
	AwardedLevel string
	GradedAt     time.Time
	FinalizedBy  FinalizeTrigger
}

// UserLevelUpdate is the user-record mutation applied in the same transaction
// as the session grade. NewLevel nil leaves current_level unchanged.
type UserLevelUpdate struct {
	UserID           uuid.UUID
	NewLevel         *Level
	BlockStep1Retake bool
}

// GradeOutcome is the result of finalization, identical no matter which
// trigger won and how many times it is re-requested.
type GradeOutcome struct {
	SessionID         uuid.UUID `json:"session_id"`
	ScorePercent      float64   `json:"score_percent"`
	AwardedLevel      string    `json:"awarded_level"`
	AdvanceToNextStep bool      `json:"advance_to_next_step"`
	GradedAt          time.Time `json:"graded_at"`
	AlreadyGraded     bool      `json:"already_graded,omitempty"`
}

// OverdueSession is a sweep row: an in_progress session past its deadline.
type OverdueSession struct {
	ID          uuid.UUID
	AnswerCount int
}

// ─── Request payloads ───────────────────────────────────────────────

// StartTestRequest is the payload for starting a new attempt.
type StartTestRequest struct {
	Step               int `json:"step" binding:"required,min=1,max=3"`
	MinutesPerQuestion int `json:"minutes_per_question" binding:"omitempty,min=1,max=10"`
}

// AnswerSubmission is one answer in an autosave or submit payload.
type AnswerSubmission struct {
	QuestionID    uuid.UUID `json:"question_id" binding:"required"`
	SelectedIndex *int      `json:"selected_index" binding:"required,min=0"`
	TimeTakenSec  int       `json:"time_taken_sec" binding:"omitempty,min=0"`
}

// SaveAnswersRequest replaces the session's recorded answer set.
type SaveAnswersRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"required,dive"`
}

// SubmitTestRequest finishes an attempt. Answers are optional when the client
// has already autosaved.
type SubmitTestRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"omitempty,dive"`
}

// StartTestResponse is returned from a successful start. Questions carry no
// answer key.
type StartTestResponse struct {
	SessionID uuid.UUID              `json:"session_id"`
	Questions []QuestionForCandidate `json:"questions"`
	StartedAt time.Time              `json:"started_at"`
	EndTime   time.Time              `json:"end_time"`
}

// SessionView is a candidate-facing session snapshot for reloads: the sampled
// questions (stripped), recorded answers and timing, never the answer key.
type SessionView struct {
	Session          *TestSession           `json:"session"`
	Questions        []QuestionForCandidate `json:"questions"`
	RemainingSeconds float64                `json:"remaining_seconds"`
}
