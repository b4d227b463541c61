package config

import "fmt"

// CacheKeyStruct builds Redis key names used across services and workers.
type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionEventsChannel returns the PubSub channel for a session's live events
// (graded result pushed to connected clients).
func (r *CacheKeyStruct) SessionEventsChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

var CacheKey = NewCacheKeyStruct()

// WorkerKeyStruct names the Redis structures backing the deadline scheduler.
type WorkerKeyStruct struct {
	// DeadlineScheduleZSet is a sorted set of session ids scored by their
	// fire time (unix seconds).
	DeadlineScheduleZSet string
	// DeadlineAttemptsHash maps session id to delivery attempt count.
	DeadlineAttemptsHash string
	// DeadlineDeadLetterList holds session ids that exhausted their retries.
	DeadlineDeadLetterList string
}

var WorkerKey = &WorkerKeyStruct{
	DeadlineScheduleZSet:   "deadline:schedule",
	DeadlineAttemptsHash:   "deadline:attempts",
	DeadlineDeadLetterList: "deadline:dead_letter",
}
