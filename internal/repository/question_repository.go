package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillstage/skillstage-backend/internal/model"
)

// QuestionRepository handles question pool data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, competency, level, question_text, options, correct_answer, created_by, created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.Competency, &q.Level, &q.QuestionText,
		&q.Options, &q.CorrectAnswer, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// SampleForStep draws a uniform random sample without replacement of exactly
// count questions whose level is in levels. Returns ErrInsufficientPool when
// the pool holds fewer matching questions.
func (r *QuestionRepository) SampleForStep(ctx context.Context, levels []model.Level, count int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE level = ANY($1)
		 ORDER BY random()
		 LIMIT $2`, levels, count,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) < count {
		return nil, fmt.Errorf("%w: need %d, pool has %d for levels %v",
			model.ErrInsufficientPool, count, len(questions), levels)
	}
	return questions, nil
}

// GetByIDs retrieves questions including the correct-answer index. Grading
// only — candidate payloads go through GetCandidateViews.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetCandidateViews retrieves the stripped projection for client payloads.
// The correct_answer column is never selected here.
func (r *QuestionRepository) GetCandidateViews(ctx context.Context, ids []uuid.UUID) ([]model.QuestionForCandidate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, competency, level, question_text, options
		 FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []model.QuestionForCandidate
	for rows.Next() {
		var v model.QuestionForCandidate
		if err := rows.Scan(&v.ID, &v.Competency, &v.Level, &v.QuestionText, &v.Options); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// GetByID retrieves a single question with its answer key (admin view).
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return q, err
}

// List retrieves pool questions with optional level/competency filters,
// newest first, paginated.
func (r *QuestionRepository) List(ctx context.Context, level *model.Level, competency string, page, perPage int) ([]model.Question, int64, error) {
	baseQuery := ` FROM questions WHERE 1=1`
	args := []any{}

	if level != nil {
		args = append(args, *level)
		baseQuery += fmt.Sprintf(" AND level = $%d", len(args))
	}
	if competency != "" {
		args = append(args, "%"+competency+"%")
		baseQuery += fmt.Sprintf(" AND competency ILIKE $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		questionColumns, baseQuery, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// Create inserts a new pool question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (competency, level, question_text, options, correct_answer, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.Competency, q.Level, q.QuestionText, q.Options, q.CorrectAnswer, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// CreateBatch inserts questions in one transaction; all or nothing.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (competency, level, question_text, options, correct_answer, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at, updated_at`,
			q.Competency, q.Level, q.QuestionText, q.Options, q.CorrectAnswer, q.CreatedBy,
		).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Update rewrites a pool question. In-flight sessions are unaffected: they
// grade against their sampled snapshot and the key loaded at finalize time.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET competency = $2, level = $3, question_text = $4, options = $5,
		     correct_answer = $6, updated_at = NOW()
		 WHERE id = $1`,
		q.ID, q.Competency, q.Level, q.QuestionText, q.Options, q.CorrectAnswer,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes a question from the pool.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CountByLevels returns how many pool questions match the given levels.
func (r *QuestionRepository) CountByLevels(ctx context.Context, levels []model.Level) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE level = ANY($1)`, levels).Scan(&n)
	return n, err
}
