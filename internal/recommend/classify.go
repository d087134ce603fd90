package recommend

// MatchQuality is the human-facing tier of a relevance score.
type MatchQuality string

const (
	MatchPerfect MatchQuality = "Perfect Match"
	MatchGood    MatchQuality = "Good Match"
	MatchFair    MatchQuality = "Fair Match"
	MatchPoor    MatchQuality = "Poor Match"
)

// thresholds are the inclusive lower bounds for Perfect, Good and Fair.
type thresholds struct {
	perfect, good, fair float64
}

// The two modes have different score distributions, so each has its own table.
var qualityThresholds = map[ScoringMode]thresholds{
	ModeHybrid:       {perfect: 0.8, good: 0.6, fair: 0.4},
	ModeSemanticOnly: {perfect: 0.7, good: 0.5, fair: 0.3},
}

// Classify maps a score to its match tier for the given mode.
// Unknown modes use the semantic-only table.
func Classify(score float64, mode ScoringMode) MatchQuality {
	t, ok := qualityThresholds[mode]
	if !ok {
		t = qualityThresholds[ModeSemanticOnly]
	}

	switch {
	case score >= t.perfect:
		return MatchPerfect
	case score >= t.good:
		return MatchGood
	case score >= t.fair:
		return MatchFair
	default:
		return MatchPoor
	}
}
