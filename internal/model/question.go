package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a pool entry tagged by competency and level. CorrectAnswer is
// the index into Options and must never appear in candidate-facing payloads.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	Competency    string     `json:"competency"`
	Level         Level      `json:"level"`
	QuestionText  string     `json:"question_text"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correct_answer"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// QuestionForCandidate is the stripped projection sent to test takers.
type QuestionForCandidate struct {
	ID           uuid.UUID `json:"id"`
	Competency   string    `json:"competency"`
	Level        Level     `json:"level"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
}

// ForCandidate strips the answer key from a question.
func (q *Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		ID:           q.ID,
		Competency:   q.Competency,
		Level:        q.Level,
		QuestionText: q.QuestionText,
		Options:      q.Options,
	}
}

// CreateQuestionRequest is the payload for adding a question to the pool.
type CreateQuestionRequest struct {
	Competency    string   `json:"competency" binding:"required,min=2,max=100"`
	Level         Level    `json:"level" binding:"required,oneof=A1 A2 B1 B2 C1 C2"`
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,max=8,dive,required,max=500"`
	CorrectAnswer *int     `json:"correct_answer" binding:"required,min=0"`
}

// UpdateQuestionRequest is the payload for editing a pool question. Edits do
// not affect in-flight sessions, which grade against their sampled snapshot.
type UpdateQuestionRequest struct {
	Competency    string   `json:"competency" binding:"omitempty,min=2,max=100"`
	Level         Level    `json:"level" binding:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	QuestionText  string   `json:"question_text" binding:"omitempty,min=1,max=2000"`
	Options       []string `json:"options" binding:"omitempty,min=2,max=8,dive,required,max=500"`
	CorrectAnswer *int     `json:"correct_answer" binding:"omitempty,min=0"`
}

// ToQuestion builds the pool entry for a create request.
func (r *CreateQuestionRequest) ToQuestion(createdBy uuid.UUID) *Question {
	return &Question{
		Competency:    r.Competency,
		Level:         r.Level,
		QuestionText:  r.QuestionText,
		Options:       r.Options,
		CorrectAnswer: *r.CorrectAnswer,
		CreatedBy:     &createdBy,
	}
}

// ApplyTo overlays the non-empty fields of an update request onto q.
func (r *UpdateQuestionRequest) ApplyTo(q *Question) {
	if r.Competency != "" {
		q.Competency = r.Competency
	}
	if r.Level != "" {
		q.Level = r.Level
	}
	if r.QuestionText != "" {
		q.QuestionText = r.QuestionText
	}
	if r.Options != nil {
		q.Options = r.Options
	}
	if r.CorrectAnswer != nil {
		q.CorrectAnswer = *r.CorrectAnswer
	}
}

// BulkUploadQuestionsRequest is the payload for bulk-importing questions.
type BulkUploadQuestionsRequest struct {
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// PoolHealthEntry reports whether one step's pool can fill a session.
type PoolHealthEntry struct {
	Step       int     `json:"step"`
	Levels     []Level `json:"levels"`
	Available  int64   `json:"available"`
	Required   int64   `json:"required"`
	Sufficient bool    `json:"sufficient"`
}
