package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/event"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── fakes ──────────────────────────────────────────────────────────

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.TestSession
	users    map[uuid.UUID]*model.User
}

func newFakeSessionStore(users map[uuid.UUID]*model.User) *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uuid.UUID]*model.TestSession),
		users:    users,
	}
}

func (f *fakeSessionStore) Create(_ context.Context, s *model.TestSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID uuid.UUID) ([]model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TestSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) SaveAnswers(_ context.Context, sessionID uuid.UUID, answers model.AnswerSet) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return false, nil
	}
	s.Answers = answers
	return true, nil
}

func (f *fakeSessionStore) SetStatus(_ context.Context, sessionID uuid.UUID, from, to model.SessionStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal session transition %s -> %s", from, to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

// FinalizeGrade mirrors the conditional-update semantics: exactly one caller
// wins, and only the winner mutates the user row.
func (f *fakeSessionStore) FinalizeGrade(_ context.Context, grade model.SessionGrade, userUpd model.UserLevelUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[grade.SessionID]
	if !ok {
		return false, nil
	}
	if s.GradedAt != nil {
		return false, nil
	}
	switch s.Status {
	case model.SessionStatusInProgress, model.SessionStatusSubmitted, model.SessionStatusAutoSubmitted:
	default:
		return false, nil
	}

	s.Status = model.SessionStatusGraded
	s.ScorePercent = &grade.ScorePercent
	s.AwardedLevel = &grade.AwardedLevel
	gradedAt := grade.GradedAt
	s.GradedAt = &gradedAt
	trigger := grade.FinalizedBy
	s.FinalizedBy = &trigger

	if u, ok := f.users[userUpd.UserID]; ok {
		if userUpd.NewLevel != nil {
			u.CurrentLevel = userUpd.NewLevel
		}
		u.BlockedFromRetakeStep1 = u.BlockedFromRetakeStep1 || userUpd.BlockStep1Retake
	}
	return true, nil
}

func (f *fakeSessionStore) FindOverdue(_ context.Context, olderThan time.Time, limit int) ([]model.OverdueSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OverdueSession
	for _, s := range f.sessions {
		if s.Status == model.SessionStatusInProgress && s.EndTime.Before(olderThan) {
			out = append(out, model.OverdueSession{ID: s.ID, AnswerCount: len(s.Answers)})
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeQuestionPool struct {
	questions []model.Question
	sampleErr error
}

func (f *fakeQuestionPool) SampleForStep(_ context.Context, levels []model.Level, count int) ([]model.Question, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	if len(f.questions) < count {
		return nil, fmt.Errorf("%w: need %d, pool has %d", model.ErrInsufficientPool, count, len(f.questions))
	}
	return f.questions[:count], nil
}

func (f *fakeQuestionPool) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	byID := make(map[uuid.UUID]model.Question)
	for _, q := range f.questions {
		byID[q.ID] = q
	}
	var out []model.Question
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionPool) GetCandidateViews(_ context.Context, ids []uuid.UUID) ([]model.QuestionForCandidate, error) {
	qs, err := f.GetByIDs(context.Background(), ids)
	if err != nil {
		return nil, err
	}
	views := make([]model.QuestionForCandidate, len(qs))
	for i, q := range qs {
		views[i] = q.ForCandidate()
	}
	return views, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
	err       error
}

func (f *fakeScheduler) Schedule(_ context.Context, sessionID uuid.UUID, fireAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduled == nil {
		f.scheduled = make(map[uuid.UUID]time.Time)
	}
	f.scheduled[sessionID] = fireAt
	return nil
}

type fakeGate struct {
	mu     sync.Mutex
	events []*event.LevelAwardedEvent
	block  chan struct{}
}

func (f *fakeGate) PublishLevelAwarded(_ context.Context, evt *event.LevelAwardedEvent) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeGate) published() []*event.LevelAwardedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*event.LevelAwardedEvent(nil), f.events...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*event.SessionGradedEvent
}

func (f *fakeNotifier) PublishGraded(_ context.Context, evt *event.SessionGradedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeNotifier) published() []*event.SessionGradedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*event.SessionGradedEvent(nil), f.events...)
}

// ─── fixture ────────────────────────────────────────────────────────

type fixture struct {
	svc      *SessionService
	store    *fakeSessionStore
	pool     *fakeQuestionPool
	sched    *fakeScheduler
	gate     *fakeGate
	notifier *fakeNotifier
	users    map[uuid.UUID]*model.User
	userID   uuid.UUID
}

// newFixture builds a service over 44 step-appropriate questions whose
// correct answer is always index 0.
func newFixture(t *testing.T, step int, questionCount int) *fixture {
	t.Helper()

	levels, ok := model.LevelsForStep(step)
	require.True(t, ok)

	questions := make([]model.Question, questionCount)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uuid.New(),
			Competency:    "Digital Communication",
			Level:         levels[i%len(levels)],
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			Options:       []string{"right", "wrong", "also wrong", "no"},
			CorrectAnswer: 0,
		}
	}

	userID := uuid.New()
	users := map[uuid.UUID]*model.User{
		userID: {ID: userID, Name: "Dana", Email: "dana@example.com", Role: model.RoleCandidate},
	}

	store := newFakeSessionStore(users)
	pool := &fakeQuestionPool{questions: questions}
	sched := &fakeScheduler{}
	gate := &fakeGate{}
	notifier := &fakeNotifier{}

	svc := NewSessionService(store, pool, &fakeUserStore{users: users}, sched, gate, notifier,
		questionCount, 1, zerolog.Nop())

	return &fixture{
		svc: svc, store: store, pool: pool, sched: sched,
		gate: gate, notifier: notifier, users: users, userID: userID,
	}
}

func (fx *fixture) start(t *testing.T, step int) *model.StartTestResponse {
	t.Helper()
	resp, err := fx.svc.Start(context.Background(), fx.userID, &model.StartTestRequest{Step: step})
	require.NoError(t, err)
	return resp
}

// waitForGradedEvent blocks until the detached announce goroutine has pushed
// the graded event. The notifier publish is the last step of announcing, so
// the gate state is settled once it lands.
func (fx *fixture) waitForGradedEvent(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(fx.notifier.published()) >= 1
	}, time.Second, 5*time.Millisecond)
}

// answers builds submissions answering the first n questions correctly and
// the rest with a wrong option.
func (fx *fixture) answers(resp *model.StartTestResponse, correctCount int) []model.AnswerSubmission {
	subs := make([]model.AnswerSubmission, len(resp.Questions))
	for i, q := range resp.Questions {
		idx := 1
		if i < correctCount {
			idx = 0
		}
		choice := idx
		subs[i] = model.AnswerSubmission{QuestionID: q.ID, SelectedIndex: &choice}
	}
	return subs
}

// ─── tests ──────────────────────────────────────────────────────────

func TestStartSamplesAndSchedules(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)

	assert.Len(t, resp.Questions, 44)
	assert.Equal(t, resp.StartedAt.Add(44*time.Minute), resp.EndTime)

	fireAt, ok := fx.sched.scheduled[resp.SessionID]
	require.True(t, ok, "deadline must be scheduled")
	assert.Equal(t, resp.EndTime, fireAt)

	sess, err := fx.store.GetByID(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, sess.Status)
	assert.Len(t, sess.Questions, 44)
}

func TestStartInvalidStep(t *testing.T) {
	fx := newFixture(t, 1, 44)

	_, err := fx.svc.Start(context.Background(), fx.userID, &model.StartTestRequest{Step: 4})
	assert.ErrorIs(t, err, model.ErrInvalidStep)
}

func TestStartInsufficientPoolCreatesNothing(t *testing.T) {
	fx := newFixture(t, 1, 44)
	fx.pool.questions = fx.pool.questions[:10]

	_, err := fx.svc.Start(context.Background(), fx.userID, &model.StartTestRequest{Step: 1})
	assert.ErrorIs(t, err, model.ErrInsufficientPool)
	assert.Empty(t, fx.store.sessions)
	assert.Empty(t, fx.sched.scheduled)
}

func TestStartBlockedStep1Retake(t *testing.T) {
	fx := newFixture(t, 1, 44)
	fx.users[fx.userID].BlockedFromRetakeStep1 = true

	_, err := fx.svc.Start(context.Background(), fx.userID, &model.StartTestRequest{Step: 1})
	assert.ErrorIs(t, err, model.ErrStep1RetakeBlocked)

	// Later steps stay open even for blocked users.
	_, err = fx.svc.Start(context.Background(), fx.userID, &model.StartTestRequest{Step: 2})
	assert.NoError(t, err)
}

func TestStartSchedulingFailureDoesNotAbort(t *testing.T) {
	fx := newFixture(t, 1, 44)
	fx.sched.err = fmt.Errorf("redis down")

	resp, err := fx.svc.Start(context.Background(), fx.userID, &model.StartTestRequest{Step: 1})
	require.NoError(t, err)

	_, err = fx.store.GetByID(context.Background(), resp.SessionID)
	assert.NoError(t, err)
}

func TestStartResponseCarriesNoAnswerKey(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)

	for _, q := range resp.Questions {
		assert.NotEmpty(t, q.Options)
	}
	// QuestionForCandidate has no answer field at all; the compile-time type
	// is the guarantee. This test pins the projection being used.
	assert.IsType(t, []model.QuestionForCandidate{}, resp.Questions)
}

func TestRecordAnswersLastWriteWins(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	first := fx.answers(resp, 5)
	require.NoError(t, fx.svc.RecordAnswers(ctx, fx.userID, resp.SessionID, first))

	second := fx.answers(resp, 20)[:10]
	require.NoError(t, fx.svc.RecordAnswers(ctx, fx.userID, resp.SessionID, second))

	sess, err := fx.store.GetByID(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Answers, 10, "save replaces the whole set")
}

func TestRecordAnswersUnknownQuestion(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	choice := 0

	err := fx.svc.RecordAnswers(context.Background(), fx.userID, resp.SessionID,
		[]model.AnswerSubmission{{QuestionID: uuid.New(), SelectedIndex: &choice}})
	assert.ErrorIs(t, err, model.ErrUnknownQuestion)
}

func TestRecordAnswersMissingSelectedIndex(t *testing.T) {
	// WebSocket payloads reach the service without binding validation, so a
	// submission naming a question but no option must be rejected, not
	// dereferenced.
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	err := fx.svc.RecordAnswers(ctx, fx.userID, resp.SessionID,
		[]model.AnswerSubmission{{QuestionID: resp.Questions[0].ID}})
	assert.ErrorIs(t, err, model.ErrMissingAnswerIndex)

	_, err = fx.svc.Submit(ctx, fx.userID, resp.SessionID,
		&model.SubmitTestRequest{Answers: []model.AnswerSubmission{{QuestionID: resp.Questions[0].ID}}})
	assert.ErrorIs(t, err, model.ErrMissingAnswerIndex)

	// Nothing landed and the session is still open.
	sess, err := fx.store.GetByID(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Empty(t, sess.Answers)
	assert.Equal(t, model.SessionStatusInProgress, sess.Status)
}

func TestRecordAnswersWrongOwner(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)

	err := fx.svc.RecordAnswers(context.Background(), uuid.New(), resp.SessionID, fx.answers(resp, 1))
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestSubmitGradesStep1Fail(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	out, err := fx.svc.Submit(ctx, fx.userID, resp.SessionID,
		&model.SubmitTestRequest{Answers: fx.answers(resp, 10)})
	require.NoError(t, err)

	assert.Equal(t, 22.73, out.ScorePercent)
	assert.Equal(t, model.AwardedFail, out.AwardedLevel)
	assert.False(t, out.AdvanceToNextStep)

	// Terminal fail blocks step-1 retakes but never touches current_level.
	u := fx.users[fx.userID]
	assert.True(t, u.BlockedFromRetakeStep1)
	assert.Nil(t, u.CurrentLevel)

	// A failed attempt goes nowhere near the certification gate.
	fx.waitForGradedEvent(t)
	assert.Empty(t, fx.gate.published())
	assert.Len(t, fx.notifier.published(), 1)
}

func TestSubmitGradesStep2Advance(t *testing.T) {
	fx := newFixture(t, 2, 44)
	resp := fx.start(t, 2)
	ctx := context.Background()

	out, err := fx.svc.Submit(ctx, fx.userID, resp.SessionID,
		&model.SubmitTestRequest{Answers: fx.answers(resp, 35)})
	require.NoError(t, err)

	assert.Equal(t, 79.55, out.ScorePercent)
	assert.Equal(t, string(model.LevelB2), out.AwardedLevel)
	assert.True(t, out.AdvanceToNextStep)

	u := fx.users[fx.userID]
	require.NotNil(t, u.CurrentLevel)
	assert.Equal(t, model.LevelB2, *u.CurrentLevel)
	assert.False(t, u.BlockedFromRetakeStep1)

	fx.waitForGradedEvent(t)
	gateEvents := fx.gate.published()
	require.Len(t, gateEvents, 1)
	evt := gateEvents[0]
	assert.Equal(t, resp.SessionID, evt.SessionID)
	assert.Equal(t, "B2", evt.Level)
	assert.Equal(t, 79.55, evt.ScorePercent)
}

func TestSubmitWithoutAnswersUsesAutosaved(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	require.NoError(t, fx.svc.RecordAnswers(ctx, fx.userID, resp.SessionID, fx.answers(resp, 33)))

	out, err := fx.svc.Submit(ctx, fx.userID, resp.SessionID, &model.SubmitTestRequest{})
	require.NoError(t, err)
	assert.Equal(t, 75.0, out.ScorePercent)
	assert.Equal(t, string(model.LevelA2), out.AwardedLevel)
	assert.True(t, out.AdvanceToNextStep)
}

func TestSubmitTwiceReturnsIdenticalOutcome(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	first, err := fx.svc.Submit(ctx, fx.userID, resp.SessionID,
		&model.SubmitTestRequest{Answers: fx.answers(resp, 30)})
	require.NoError(t, err)

	second, err := fx.svc.Submit(ctx, fx.userID, resp.SessionID,
		&model.SubmitTestRequest{Answers: fx.answers(resp, 44)})
	require.NoError(t, err)

	assert.True(t, second.AlreadyGraded)
	assert.Equal(t, first.ScorePercent, second.ScorePercent)
	assert.Equal(t, first.AwardedLevel, second.AwardedLevel)
	assert.Equal(t, first.GradedAt, second.GradedAt)

	// The second submit's answers never landed.
	sess, err := fx.store.GetByID(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 68.18, *sess.ScorePercent)

	// Gate and notifier heard about it exactly once.
	fx.waitForGradedEvent(t)
	assert.Len(t, fx.gate.published(), 1)
	assert.Len(t, fx.notifier.published(), 1)
}

func TestSubmitReturnsWhileAnnouncementIsStuck(t *testing.T) {
	// The grade is committed before announcing; a hung broker must not stall
	// the submit response.
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)

	release := make(chan struct{})
	fx.gate.block = release

	done := make(chan struct{})
	go func() {
		defer close(done)
		out, err := fx.svc.Submit(context.Background(), fx.userID, resp.SessionID,
			&model.SubmitTestRequest{Answers: fx.answers(resp, 30)})
		if assert.NoError(t, err) {
			assert.Equal(t, string(model.LevelA2), out.AwardedLevel)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit waited on the announcement")
	}

	close(release)
	fx.waitForGradedEvent(t)
	assert.Len(t, fx.gate.published(), 1)
}

func TestConcurrentManualAndDeadlineFinalize(t *testing.T) {
	fx := newFixture(t, 2, 44)
	resp := fx.start(t, 2)
	ctx := context.Background()

	require.NoError(t, fx.svc.RecordAnswers(ctx, fx.userID, resp.SessionID, fx.answers(resp, 35)))

	var wg sync.WaitGroup
	outcomes := make([]*model.GradeOutcome, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		outcomes[0], errs[0] = fx.svc.Submit(ctx, fx.userID, resp.SessionID, &model.SubmitTestRequest{})
	}()
	go func() {
		defer wg.Done()
		outcomes[1], errs[1] = fx.svc.Finalize(ctx, resp.SessionID, model.TriggerDeadline)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, outcomes[0].ScorePercent, outcomes[1].ScorePercent)
	assert.Equal(t, outcomes[0].AwardedLevel, outcomes[1].AwardedLevel)
	assert.Equal(t, outcomes[0].GradedAt, outcomes[1].GradedAt)

	// Exactly one winner published, and the user row moved exactly once.
	fx.waitForGradedEvent(t)
	assert.Len(t, fx.gate.published(), 1)
	u := fx.users[fx.userID]
	require.NotNil(t, u.CurrentLevel)
	assert.Equal(t, model.LevelB2, *u.CurrentLevel)
}

func TestDeadlineFinalizeAutoSubmits(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	require.NoError(t, fx.svc.RecordAnswers(ctx, fx.userID, resp.SessionID, fx.answers(resp, 25)))

	out, err := fx.svc.Finalize(ctx, resp.SessionID, model.TriggerDeadline)
	require.NoError(t, err)
	assert.Equal(t, 56.82, out.ScorePercent)
	assert.Equal(t, string(model.LevelA2), out.AwardedLevel)

	sess, err := fx.store.GetByID(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusGraded, sess.Status)
	require.NotNil(t, sess.FinalizedBy)
	assert.Equal(t, model.TriggerDeadline, *sess.FinalizedBy)
}

func TestFinalizeExpiredSession(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	ok, err := fx.store.SetStatus(ctx, resp.SessionID, model.SessionStatusInProgress, model.SessionStatusExpired)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = fx.svc.Finalize(ctx, resp.SessionID, model.TriggerDeadline)
	assert.ErrorIs(t, err, model.ErrSessionNotActive)
}

func TestSubmitStepDowngradeOverwritesLevel(t *testing.T) {
	// current_level is whatever the latest graded attempt awarded, even when
	// that is lower than what the user already held.
	fx := newFixture(t, 2, 44)
	b2 := model.LevelB2
	fx.users[fx.userID].CurrentLevel = &b2

	resp := fx.start(t, 2)
	out, err := fx.svc.Submit(context.Background(), fx.userID, resp.SessionID,
		&model.SubmitTestRequest{Answers: fx.answers(resp, 5)})
	require.NoError(t, err)

	assert.Equal(t, string(model.LevelA2), out.AwardedLevel)
	require.NotNil(t, fx.users[fx.userID].CurrentLevel)
	assert.Equal(t, model.LevelA2, *fx.users[fx.userID].CurrentLevel)
}

func TestGetForOwner(t *testing.T) {
	fx := newFixture(t, 1, 44)
	resp := fx.start(t, 1)
	ctx := context.Background()

	view, err := fx.svc.GetForOwner(ctx, fx.userID, resp.SessionID)
	require.NoError(t, err)
	assert.Len(t, view.Questions, 44)
	assert.Greater(t, view.RemainingSeconds, 0.0)

	// Sampled order survives the reload.
	for i, q := range view.Questions {
		assert.Equal(t, resp.Questions[i].ID, q.ID)
	}

	_, err = fx.svc.GetForOwner(ctx, uuid.New(), resp.SessionID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestSweepOverdue(t *testing.T) {
	fx := newFixture(t, 1, 44)
	ctx := context.Background()

	withAnswers := fx.start(t, 1)
	require.NoError(t, fx.svc.RecordAnswers(ctx, fx.userID, withAnswers.SessionID, fx.answers(withAnswers, 3)))
	untouched := fx.start(t, 1)

	// Force both past their deadline.
	fx.store.mu.Lock()
	for _, s := range fx.store.sessions {
		s.EndTime = time.Now().Add(-time.Hour)
	}
	fx.store.mu.Unlock()
	fx.sched.scheduled = nil

	n, err := fx.svc.SweepOverdue(ctx, time.Now().Add(-time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Answered session goes back through the scheduler for grading.
	_, rescheduled := fx.sched.scheduled[withAnswers.SessionID]
	assert.True(t, rescheduled)

	// Untouched session is expired outright.
	sess, err := fx.store.GetByID(ctx, untouched.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusExpired, sess.Status)
}
