package model

import "errors"

// Domain errors shared between repositories, services and handlers.
// Callers match with errors.Is; services may wrap with additional context.
var (
	// ErrNotFound covers unknown session, question, user or certificate ids.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the requester does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStep rejects steps outside [MinStep, MaxStep].
	ErrInvalidStep = errors.New("invalid step")

	// ErrStep1RetakeBlocked rejects a step-1 start for a permanently blocked user.
	ErrStep1RetakeBlocked = errors.New("user is blocked from retaking step 1")

	// ErrInsufficientPool is returned when the question pool holds fewer
	// matching questions than a session needs. No session is created.
	ErrInsufficientPool = errors.New("not enough questions in pool for this step")

	// ErrSessionNotActive rejects writes against a session that already left
	// in_progress (or was swept to expired).
	ErrSessionNotActive = errors.New("session is not active")

	// ErrUnknownQuestion rejects an answer referencing a question id that is
	// not part of the session's sampled set.
	ErrUnknownQuestion = errors.New("answer references a question not in this session")

	// ErrGradingFailure marks a finalize attempt that failed before or during
	// the grading transaction. Nothing was committed; the caller may retry.
	ErrGradingFailure = errors.New("grading failure")

	// ErrAnswerOutOfRange rejects a correct-answer index outside the options
	// slice.
	ErrAnswerOutOfRange = errors.New("correct answer index out of range")

	// ErrMissingAnswerIndex rejects an answer submission that names a question
	// but carries no selected option.
	ErrMissingAnswerIndex = errors.New("answer is missing a selected option index")
)
