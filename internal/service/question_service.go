package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/model"
)

// QuestionAdminStore is the pool maintenance surface used by admins.
type QuestionAdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	List(ctx context.Context, level *model.Level, competency string, page, perPage int) ([]model.Question, int64, error)
	Create(ctx context.Context, q *model.Question) error
	CreateBatch(ctx context.Context, questions []model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByLevels(ctx context.Context, levels []model.Level) (int64, error)
}

// QuestionService maintains the question pool. Pool edits never touch
// in-flight sessions, which grade against their sampled snapshot.
type QuestionService struct {
	store QuestionAdminStore
	log   zerolog.Logger
}

// NewQuestionService wires the pool maintenance service.
func NewQuestionService(store QuestionAdminStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store: store,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// Get returns one question with its answer key.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.store.GetByID(ctx, id)
}

// List returns pool questions filtered by level and competency.
func (s *QuestionService) List(ctx context.Context, level *model.Level, competency string, page, perPage int) ([]model.Question, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.List(ctx, level, competency, page, perPage)
}

// Create adds one question to the pool.
func (s *QuestionService) Create(ctx context.Context, adminID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	q := req.ToQuestion(adminID)
	if err := validateAnswerIndex(q); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	s.log.Info().Str("question_id", q.ID.String()).Str("level", string(q.Level)).Msg("Question created")
	return q, nil
}

// BulkCreate inserts a batch of questions in one transaction.
func (s *QuestionService) BulkCreate(ctx context.Context, adminID uuid.UUID, req *model.BulkUploadQuestionsRequest) ([]model.Question, error) {
	questions := make([]model.Question, len(req.Questions))
	for i := range req.Questions {
		q := req.Questions[i].ToQuestion(adminID)
		if err := validateAnswerIndex(q); err != nil {
			return nil, err
		}
		questions[i] = *q
	}
	if err := s.store.CreateBatch(ctx, questions); err != nil {
		return nil, err
	}
	s.log.Info().Int("count", len(questions)).Msg("Questions bulk uploaded")
	return questions, nil
}

// Update rewrites an existing question.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.ApplyTo(q)
	if err := validateAnswerIndex(q); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a question from the pool.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("question_id", id.String()).Msg("Question deleted")
	return nil
}

// PoolHealth reports per-step pool counts against the session size, so admins
// can see which steps would refuse to start.
func (s *QuestionService) PoolHealth(ctx context.Context, questionsPerSession int) ([]model.PoolHealthEntry, error) {
	entries := make([]model.PoolHealthEntry, 0, model.MaxStep)
	for step := model.MinStep; step <= model.MaxStep; step++ {
		levels, _ := model.LevelsForStep(step)
		n, err := s.store.CountByLevels(ctx, levels)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.PoolHealthEntry{
			Step:       step,
			Levels:     levels,
			Available:  n,
			Required:   int64(questionsPerSession),
			Sufficient: n >= int64(questionsPerSession),
		})
	}
	return entries, nil
}

func validateAnswerIndex(q *model.Question) error {
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return model.ErrAnswerOutOfRange
	}
	return nil
}
