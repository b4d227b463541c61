package model

// Level is one of the six CEFR-style proficiency tiers.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// AwardedFail is stored in awarded_level when a step-1 attempt scores below
// the minimum threshold. It is not a Level and never reaches current_level.
const AwardedFail = "Fail"

// Assessment step bounds. Each step covers two adjacent levels.
const (
	MinStep = 1
	MaxStep = 3
)

var levelsByStep = map[int][]Level{
	1: {LevelA1, LevelA2},
	2: {LevelB1, LevelB2},
	3: {LevelC1, LevelC2},
}

// LevelsForStep returns the two levels a step samples questions from.
// The second return is false for an out-of-range step.
func LevelsForStep(step int) ([]Level, bool) {
	levels, ok := levelsByStep[step]
	return levels, ok
}

// Valid reports whether l is one of the six real levels.
func (l Level) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}
