// Package scoring holds the single authoritative mapping from a step's score
// percentage to the awarded level. Every trigger path (manual submit,
// WebSocket submit, deadline worker) grades through this table; there is no
// second copy anywhere in the codebase.
package scoring

import (
	"math"

	"github.com/skillstage/skillstage-backend/internal/model"
)

// Outcome is the result of applying the threshold table.
type Outcome struct {
	// Level is the awarded level. Empty when TerminalFail is set.
	Level model.Level
	// AdvanceToNextStep signals the candidate may start the next step.
	AdvanceToNextStep bool
	// TerminalFail marks a step-1 score below the minimum threshold. The
	// candidate is permanently blocked from retaking step 1.
	TerminalFail bool
}

// ScoreStep maps (step, scorePercent) to an awarded level. Intervals are
// half-open [lo, hi): a score of exactly 25 lands in the 25–49 band.
//
//	step | <25           | 25–49 | 50–74 | >=75
//	   1 | terminal fail | A1    | A2    | A2, advance
//	   2 | A2            | B1    | B2    | B2, advance
//	   3 | B2            | C1    | C2    | C2
func ScoreStep(step int, scorePercent float64) (Outcome, error) {
	switch step {
	case 1:
		switch {
		case scorePercent < 25:
			return Outcome{TerminalFail: true}, nil
		case scorePercent < 50:
			return Outcome{Level: model.LevelA1}, nil
		case scorePercent < 75:
			return Outcome{Level: model.LevelA2}, nil
		default:
			return Outcome{Level: model.LevelA2, AdvanceToNextStep: true}, nil
		}
	case 2:
		switch {
		case scorePercent < 25:
			return Outcome{Level: model.LevelA2}, nil
		case scorePercent < 50:
			return Outcome{Level: model.LevelB1}, nil
		case scorePercent < 75:
			return Outcome{Level: model.LevelB2}, nil
		default:
			return Outcome{Level: model.LevelB2, AdvanceToNextStep: true}, nil
		}
	case 3:
		// Step 3 has no distinct >=75 tier: everything from 50 up is C2.
		switch {
		case scorePercent < 25:
			return Outcome{Level: model.LevelB2}, nil
		case scorePercent < 50:
			return Outcome{Level: model.LevelC1}, nil
		default:
			return Outcome{Level: model.LevelC2}, nil
		}
	}
	return Outcome{}, model.ErrInvalidStep
}

// AwardedLevel is the string persisted in awarded_level for an outcome.
func (o Outcome) AwardedLevel() string {
	if o.TerminalFail {
		return model.AwardedFail
	}
	return string(o.Level)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percent computes the rounded score percentage for correct out of total.
// A zero total scores zero rather than dividing by it.
func Percent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(correct) / float64(total) * 100)
}
