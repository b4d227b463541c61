package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes candidates from platform admins.
type UserRole string

const (
	RoleCandidate UserRole = "candidate"
	RoleAdmin     UserRole = "admin"
)

// User is the subset of the account record this service owns: certification
// progress. Credentials and profile data live in the identity service.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  UserRole  `json:"role"`
	// CurrentLevel is the most recently awarded level. It is overwritten on
	// every grading, including by a lower level.
	CurrentLevel *Level `json:"current_level,omitempty"`
	// BlockedFromRetakeStep1 is set permanently when a step-1 attempt scores
	// below the minimum threshold.
	BlockedFromRetakeStep1 bool      `json:"blocked_from_retake_step1"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
