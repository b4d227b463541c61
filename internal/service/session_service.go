package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/event"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/scoring"
)

// QuestionPool is the question access the session engine needs.
type QuestionPool interface {
	SampleForStep(ctx context.Context, levels []model.Level, count int) ([]model.Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
	GetCandidateViews(ctx context.Context, ids []uuid.UUID) ([]model.QuestionForCandidate, error)
}

// SessionStore is the session persistence the engine needs.
type SessionStore interface {
	Create(ctx context.Context, s *model.TestSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TestSession, error)
	SaveAnswers(ctx context.Context, sessionID uuid.UUID, answers model.AnswerSet) (bool, error)
	SetStatus(ctx context.Context, sessionID uuid.UUID, from, to model.SessionStatus) (bool, error)
	FinalizeGrade(ctx context.Context, grade model.SessionGrade, userUpd model.UserLevelUpdate) (bool, error)
	FindOverdue(ctx context.Context, olderThan time.Time, limit int) ([]model.OverdueSession, error)
}

// UserStore is the user lookup the engine needs.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// DeadlineScheduler registers the durable auto-submit timer for a session.
type DeadlineScheduler interface {
	Schedule(ctx context.Context, sessionID uuid.UUID, fireAt time.Time) error
}

// CertificationGate receives every awarded level for downstream issuance.
type CertificationGate interface {
	PublishLevelAwarded(ctx context.Context, evt *event.LevelAwardedEvent) error
}

// ResultNotifier pushes graded results to live session subscribers.
type ResultNotifier interface {
	PublishGraded(ctx context.Context, evt *event.SessionGradedEvent) error
}

// SessionService is the test session engine: sampling, the timed session
// lifecycle, and idempotent grading shared by every finalize trigger.
type SessionService struct {
	sessions SessionStore
	pool     QuestionPool
	users    UserStore
	sched    DeadlineScheduler
	gate     CertificationGate
	notifier ResultNotifier

	questionsPerSession int
	minutesPerQuestion  int

	log zerolog.Logger
}

// NewSessionService wires the engine.
func NewSessionService(
	sessions SessionStore,
	pool QuestionPool,
	users UserStore,
	sched DeadlineScheduler,
	gate CertificationGate,
	notifier ResultNotifier,
	questionsPerSession int,
	minutesPerQuestion int,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:            sessions,
		pool:                pool,
		users:               users,
		sched:               sched,
		gate:                gate,
		notifier:            notifier,
		questionsPerSession: questionsPerSession,
		minutesPerQuestion:  minutesPerQuestion,
		log:                 log.With().Str("component", "session_service").Logger(),
	}
}

// Start samples a fresh attempt for the user at the given step, persists the
// session and registers its auto-submit timer.
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, req *model.StartTestRequest) (*model.StartTestResponse, error) {
	levels, ok := model.LevelsForStep(req.Step)
	if !ok {
		return nil, model.ErrInvalidStep
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Step == 1 && user.BlockedFromRetakeStep1 {
		return nil, model.ErrStep1RetakeBlocked
	}

	questions, err := s.pool.SampleForStep(ctx, levels, s.questionsPerSession)
	if err != nil {
		return nil, err
	}

	minutesPerQuestion := s.minutesPerQuestion
	if req.MinutesPerQuestion > 0 {
		minutesPerQuestion = req.MinutesPerQuestion
	}

	now := time.Now().UTC()
	sess := &model.TestSession{
		ID:        uuid.New(),
		UserID:    userID,
		Step:      req.Step,
		Questions: make([]model.QuestionRef, len(questions)),
		Answers:   model.AnswerSet{},
		Status:    model.SessionStatusInProgress,
		StartedAt: now,
		EndTime:   now.Add(time.Duration(len(questions)*minutesPerQuestion) * time.Minute),
	}
	candidateViews := make([]model.QuestionForCandidate, len(questions))
	for i, q := range questions {
		sess.Questions[i] = model.QuestionRef{
			QuestionID: q.ID,
			Competency: q.Competency,
			Level:      q.Level,
		}
		candidateViews[i] = q.ForCandidate()
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	// The sweeper catches sessions whose timer never registered, so a
	// scheduling failure does not abort the start.
	if err := s.sched.Schedule(ctx, sess.ID, sess.EndTime); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", sess.ID.String()).
			Msg("Failed to schedule auto-submit, sweeper will recover")
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("user_id", userID.String()).
		Int("step", req.Step).
		Int("questions", len(questions)).
		Time("end_time", sess.EndTime).
		Msg("Session started")

	return &model.StartTestResponse{
		SessionID: sess.ID,
		Questions: candidateViews,
		StartedAt: sess.StartedAt,
		EndTime:   sess.EndTime,
	}, nil
}

// GetForOwner returns the candidate view of a session: stripped questions,
// recorded answers and remaining time. Only the owner may read it.
func (s *SessionService) GetForOwner(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionView, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, model.ErrForbidden
	}

	views, err := s.pool.GetCandidateViews(ctx, sess.QuestionIDs())
	if err != nil {
		return nil, err
	}
	// Restore the sampled order; ANY($1) gives no ordering guarantee.
	byID := make(map[uuid.UUID]model.QuestionForCandidate, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	ordered := make([]model.QuestionForCandidate, 0, len(sess.Questions))
	for _, ref := range sess.Questions {
		if v, ok := byID[ref.QuestionID]; ok {
			ordered = append(ordered, v)
		}
	}

	remaining := time.Until(sess.EndTime).Seconds()
	if remaining < 0 || sess.Status != model.SessionStatusInProgress {
		remaining = 0
	}

	return &model.SessionView{
		Session:          sess,
		Questions:        ordered,
		RemainingSeconds: remaining,
	}, nil
}

// ListForUser returns the user's attempt history.
func (s *SessionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.TestSession, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// RecordAnswers replaces the session's answer set (autosave). Unknown question
// ids are rejected; writes against a session that left in_progress return
// ErrSessionNotActive.
func (s *SessionService) RecordAnswers(ctx context.Context, userID, sessionID uuid.UUID, submissions []model.AnswerSubmission) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return model.ErrForbidden
	}
	if sess.Status != model.SessionStatusInProgress {
		return model.ErrSessionNotActive
	}

	answers, err := buildAnswerSet(sess, submissions)
	if err != nil {
		return err
	}

	saved, err := s.sessions.SaveAnswers(ctx, sessionID, answers)
	if err != nil {
		return err
	}
	if !saved {
		return model.ErrSessionNotActive
	}
	return nil
}

// Submit finishes an attempt on the candidate's request. Optional final
// answers replace the autosaved set first; then the session is graded through
// the same path the deadline worker uses. Submitting an already graded
// session just returns the stored outcome.
func (s *SessionService) Submit(ctx context.Context, userID, sessionID uuid.UUID, req *model.SubmitTestRequest) (*model.GradeOutcome, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, model.ErrForbidden
	}
	if sess.Graded() {
		return s.storedOutcome(sess)
	}
	if sess.Status == model.SessionStatusExpired {
		return nil, model.ErrSessionNotActive
	}

	if sess.Status == model.SessionStatusInProgress {
		if len(req.Answers) > 0 {
			answers, err := buildAnswerSet(sess, req.Answers)
			if err != nil {
				return nil, err
			}
			// A lost race here means the deadline fired; grading proceeds
			// with whatever was autosaved.
			if _, err := s.sessions.SaveAnswers(ctx, sessionID, answers); err != nil {
				return nil, err
			}
		}
		if _, err := s.sessions.SetStatus(ctx, sessionID, model.SessionStatusInProgress, model.SessionStatusSubmitted); err != nil {
			return nil, err
		}
	}

	return s.Finalize(ctx, sessionID, model.TriggerManual)
}

// Finalize grades a session and commits the result exactly once. Every
// trigger path converges here; whichever caller wins the conditional write
// applies the user-level mutation, and every other caller reads back the
// same stored outcome.
func (s *SessionService) Finalize(ctx context.Context, sessionID uuid.UUID, trigger model.FinalizeTrigger) (*model.GradeOutcome, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Graded() {
		return s.storedOutcome(sess)
	}
	if sess.Status == model.SessionStatusExpired {
		return nil, model.ErrSessionNotActive
	}

	if trigger == model.TriggerDeadline && sess.Status == model.SessionStatusInProgress {
		// Losing this race means a manual submit got there first; grading
		// continues either way.
		if _, err := s.sessions.SetStatus(ctx, sessionID, model.SessionStatusInProgress, model.SessionStatusAutoSubmitted); err != nil {
			return nil, err
		}
	}

	key, err := s.pool.GetByIDs(ctx, sess.QuestionIDs())
	if err != nil {
		return nil, fmt.Errorf("%w: loading answer key: %v", model.ErrGradingFailure, err)
	}
	correctByID := make(map[uuid.UUID]int, len(key))
	for _, q := range key {
		correctByID[q.ID] = q.CorrectAnswer
	}

	correct := 0
	for questionID, answer := range sess.Answers {
		if want, ok := correctByID[questionID]; ok && answer.SelectedIndex == want {
			correct++
		}
	}
	score := scoring.Percent(correct, len(sess.Questions))

	out, err := scoring.ScoreStep(sess.Step, score)
	if err != nil {
		return nil, err
	}

	gradedAt := time.Now().UTC()
	grade := model.SessionGrade{
		SessionID:    sessionID,
		ScorePercent: score,
		AwardedLevel: out.AwardedLevel(),
		GradedAt:     gradedAt,
		FinalizedBy:  trigger,
	}
	userUpd := model.UserLevelUpdate{
		UserID:           sess.UserID,
		BlockStep1Retake: out.TerminalFail,
	}
	if !out.TerminalFail {
		level := out.Level
		userUpd.NewLevel = &level
	}

	won, err := s.sessions.FinalizeGrade(ctx, grade, userUpd)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent trigger committed first; its result is ours too.
		stored, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !stored.Graded() {
			return nil, model.ErrSessionNotActive
		}
		return s.storedOutcome(stored)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("trigger", string(trigger)).
		Float64("score_percent", score).
		Str("awarded_level", grade.AwardedLevel).
		Bool("advance", out.AdvanceToNextStep).
		Msg("Session graded")

	// The grade is durable at this point; announcing must not hold up the
	// caller's response while a broker is slow or down.
	go s.announce(sess, grade, out)

	return &model.GradeOutcome{
		SessionID:         sessionID,
		ScorePercent:      score,
		AwardedLevel:      grade.AwardedLevel,
		AdvanceToNextStep: out.AdvanceToNextStep,
		GradedAt:          gradedAt,
	}, nil
}

// SweepOverdue recovers sessions whose timer was lost. Sessions with answers
// are put back through the scheduler; untouched ones are expired outright.
func (s *SessionService) SweepOverdue(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	overdue, err := s.sessions.FindOverdue(ctx, olderThan, limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, o := range overdue {
		if o.AnswerCount == 0 {
			if _, err := s.sessions.SetStatus(ctx, o.ID, model.SessionStatusInProgress, model.SessionStatusExpired); err != nil {
				s.log.Error().Err(err).Str("session_id", o.ID.String()).Msg("Sweep expire failed")
				continue
			}
			s.log.Info().Str("session_id", o.ID.String()).Msg("Expired abandoned session")
		} else {
			if err := s.sched.Schedule(ctx, o.ID, time.Now()); err != nil {
				s.log.Error().Err(err).Str("session_id", o.ID.String()).Msg("Sweep reschedule failed")
				continue
			}
			s.log.Info().Str("session_id", o.ID.String()).Msg("Rescheduled overdue session")
		}
		recovered++
	}
	return recovered, nil
}

// announce publishes the graded result: the certification gate for awarded
// levels and the live result channel for connected clients. Both are best
// effort; the grade is already durable.
func (s *SessionService) announce(sess *model.TestSession, grade model.SessionGrade, out scoring.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !out.TerminalFail {
		evt := &event.LevelAwardedEvent{
			SessionID:    grade.SessionID,
			UserID:       sess.UserID,
			Step:         sess.Step,
			Level:        grade.AwardedLevel,
			ScorePercent: grade.ScorePercent,
			GradedAt:     grade.GradedAt,
		}
		if err := s.gate.PublishLevelAwarded(ctx, evt); err != nil {
			s.log.Error().Err(err).
				Str("session_id", grade.SessionID.String()).
				Msg("Failed to publish level.awarded")
		}
	}

	graded := &event.SessionGradedEvent{
		SessionID:    grade.SessionID,
		Status:       string(model.SessionStatusGraded),
		ScorePercent: grade.ScorePercent,
		AwardedLevel: grade.AwardedLevel,
		Advance:      out.AdvanceToNextStep,
		GradedAt:     grade.GradedAt,
	}
	if err := s.notifier.PublishGraded(ctx, graded); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", grade.SessionID.String()).
			Msg("Failed to push graded event")
	}
}

// storedOutcome rebuilds the outcome from committed grade fields.
func (s *SessionService) storedOutcome(sess *model.TestSession) (*model.GradeOutcome, error) {
	if sess.ScorePercent == nil || sess.AwardedLevel == nil || sess.GradedAt == nil {
		return nil, fmt.Errorf("%w: graded session %s missing grade fields", model.ErrGradingFailure, sess.ID)
	}
	out, err := scoring.ScoreStep(sess.Step, *sess.ScorePercent)
	if err != nil {
		return nil, err
	}
	return &model.GradeOutcome{
		SessionID:         sess.ID,
		ScorePercent:      *sess.ScorePercent,
		AwardedLevel:      *sess.AwardedLevel,
		AdvanceToNextStep: out.AdvanceToNextStep,
		GradedAt:          *sess.GradedAt,
		AlreadyGraded:     true,
	}, nil
}

// buildAnswerSet validates submissions against the session's snapshot and
// collapses them into the stored map. Later entries for the same question
// overwrite earlier ones.
func buildAnswerSet(sess *model.TestSession, submissions []model.AnswerSubmission) (model.AnswerSet, error) {
	answers := make(model.AnswerSet, len(submissions))
	for _, sub := range submissions {
		if !sess.HasQuestion(sub.QuestionID) {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownQuestion, sub.QuestionID)
		}
		// The WebSocket path decodes payloads without binding validation, so
		// the pointer is checked here rather than trusting the transport.
		if sub.SelectedIndex == nil {
			return nil, fmt.Errorf("%w: question %s", model.ErrMissingAnswerIndex, sub.QuestionID)
		}
		answers[sub.QuestionID] = model.Answer{
			SelectedIndex: *sub.SelectedIndex,
			TimeTakenSec:  sub.TimeTakenSec,
		}
	}
	return answers, nil
}
