package websocket

import "github.com/skillstage/skillstage-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionState    Action = "state"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest replaces the session's recorded answer set.
type AutosaveRequest struct {
	Action  Action                   `json:"action"`
	Answers []model.AnswerSubmission `json:"answers"`
}

// SubmitRequest finishes and grades the session. Answers are optional when
// the client has already autosaved.
type SubmitRequest struct {
	Action  Action                   `json:"action"`
	Answers []model.AnswerSubmission `json:"answers,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventState   Event = "state"
	EventPong    Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// GradedResponse carries the grading outcome. It is identical whether the
// session was finished by the client or the deadline fired first.
type GradedResponse struct {
	Event        Event   `json:"event"`
	SessionID    string  `json:"session_id"`
	ScorePercent float64 `json:"score_percent"`
	AwardedLevel string  `json:"awarded_level"`
	Advance      bool    `json:"advance_to_next_step"`
}

// StateResponse reports the session clock and status on request.
type StateResponse struct {
	Event            Event   `json:"event"`
	Status           string  `json:"status"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
