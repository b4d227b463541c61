package scoring

import (
	"testing"

	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreStepThresholds(t *testing.T) {
	tests := []struct {
		name    string
		step    int
		score   float64
		level   model.Level
		advance bool
		fail    bool
	}{
		// Step 1: boundary values on every band edge.
		{"step1 zero", 1, 0, "", false, true},
		{"step1 just below fail cutoff", 1, 24.99, "", false, true},
		{"step1 exactly 25", 1, 25, model.LevelA1, false, false},
		{"step1 just below 50", 1, 49.99, model.LevelA1, false, false},
		{"step1 exactly 50", 1, 50, model.LevelA2, false, false},
		{"step1 just below 75", 1, 74.99, model.LevelA2, false, false},
		{"step1 exactly 75", 1, 75, model.LevelA2, true, false},
		{"step1 full marks", 1, 100, model.LevelA2, true, false},

		// Step 2: floor is A2, never a terminal fail.
		{"step2 zero", 2, 0, model.LevelA2, false, false},
		{"step2 just below 25", 2, 24.99, model.LevelA2, false, false},
		{"step2 exactly 25", 2, 25, model.LevelB1, false, false},
		{"step2 just below 50", 2, 49.99, model.LevelB1, false, false},
		{"step2 exactly 50", 2, 50, model.LevelB2, false, false},
		{"step2 just below 75", 2, 74.99, model.LevelB2, false, false},
		{"step2 exactly 75", 2, 75, model.LevelB2, true, false},
		{"step2 full marks", 2, 100, model.LevelB2, true, false},

		// Step 3: no distinct >=75 tier, everything from 50 is C2.
		{"step3 zero", 3, 0, model.LevelB2, false, false},
		{"step3 just below 25", 3, 24.99, model.LevelB2, false, false},
		{"step3 exactly 25", 3, 25, model.LevelC1, false, false},
		{"step3 just below 50", 3, 49.99, model.LevelC1, false, false},
		{"step3 exactly 50", 3, 50, model.LevelC2, false, false},
		{"step3 exactly 75", 3, 75, model.LevelC2, false, false},
		{"step3 full marks", 3, 100, model.LevelC2, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ScoreStep(tt.step, tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.level, out.Level)
			assert.Equal(t, tt.advance, out.AdvanceToNextStep)
			assert.Equal(t, tt.fail, out.TerminalFail)
		})
	}
}

func TestScoreStepInvalidStep(t *testing.T) {
	for _, step := range []int{0, 4, -1, 99} {
		_, err := ScoreStep(step, 50)
		assert.ErrorIs(t, err, model.ErrInvalidStep, "step %d", step)
	}
}

func TestAwardedLevel(t *testing.T) {
	out, err := ScoreStep(1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.AwardedFail, out.AwardedLevel())

	out, err = ScoreStep(2, 80)
	require.NoError(t, err)
	assert.Equal(t, "B2", out.AwardedLevel())
}

func TestPercent(t *testing.T) {
	// Worked examples: 44-question sessions.
	assert.Equal(t, 22.73, Percent(10, 44))
	assert.Equal(t, 79.55, Percent(35, 44))
	assert.Equal(t, 0.0, Percent(0, 44))
	assert.Equal(t, 100.0, Percent(44, 44))
	assert.Equal(t, 0.0, Percent(0, 0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 22.73, Round2(22.727272))
	assert.Equal(t, 79.55, Round2(79.545454))
	assert.Equal(t, 50.0, Round2(50.0))
	assert.Equal(t, 0.01, Round2(0.005))
}
