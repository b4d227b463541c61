package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	base := 5 * time.Second

	assert.Equal(t, 5*time.Second, BackoffDelay(base, 1))
	assert.Equal(t, 10*time.Second, BackoffDelay(base, 2))
	assert.Equal(t, 20*time.Second, BackoffDelay(base, 3))
}

func TestBackoffDelayClampsLowAttempts(t *testing.T) {
	base := 5 * time.Second

	assert.Equal(t, base, BackoffDelay(base, 0))
	assert.Equal(t, base, BackoffDelay(base, -3))
}
