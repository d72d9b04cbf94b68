package risk

import (
	"fmt"
	"math"
)

// DefaultThreshold is the score at or above which a patient is high risk.
const DefaultThreshold = 75

type Level string

const (
	LevelHigh        Level = "HIGH"
	LevelLowToMedium Level = "LOW_TO_MEDIUM"
)

// Score is a risk percentage in [0,100].
type Score int

// ScoreFromProbability truncates the positive-class probability to a whole percent.
func ScoreFromProbability(p float64) (Score, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("probability %v outside [0,1]", p)
	}
	return Score(math.Floor(p * 100)), nil
}

// Classify maps a score to a level; a score equal to threshold is high.
func Classify(s Score, threshold int) Level {
	if int(s) >= threshold {
		return LevelHigh
	}
	return LevelLowToMedium
}

func (s Score) Percent() string {
	return fmt.Sprintf("%d%%", int(s))
}

func (l Level) High() bool {
	return l == LevelHigh
}
