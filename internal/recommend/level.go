package recommend

import "fmt"

// Level is a Situation Awareness cognitive level.
type Level string

const (
	LevelAcquire     Level = "Acquire"
	LevelMakeMeaning Level = "Make Meaning"
	LevelTransfer    Level = "Transfer"
)

const (
	levelScoreExact     = 1.0
	levelScoreSecondary = 0.5
	levelScoreMismatch  = 0.1
	levelScoreNeutral   = 0.5
)

// ParseLevel converts a stored label to a Level.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelAcquire, LevelMakeMeaning, LevelTransfer:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown SA level %q", ErrInvalidInput, s)
	}
}

// LevelForOrdinal maps a GDTA requirement level to its SA level.
// Values outside 1..3 fall back to Acquire.
func LevelForOrdinal(n int) Level {
	switch n {
	case 2:
		return LevelMakeMeaning
	case 3:
		return LevelTransfer
	default:
		return LevelAcquire
	}
}

// ScoreLevelMatch scores how well an item's declared levels fit the element's level.
// A full mismatch scores 0.1, not 0, so semantic similarity can still carry the item.
func ScoreLevelMatch(item ContentItem, element Element) float64 {
	if element.Level == 0 {
		return levelScoreNeutral
	}

	target := LevelForOrdinal(element.Level)
	if item.PrimaryLevel == target {
		return levelScoreExact
	}
	for _, l := range item.SecondaryLevels {
		if l == target {
			return levelScoreSecondary
		}
	}
	return levelScoreMismatch
}
