package risk

// Penalty weights per violation severity.
const (
	weightHigh   = 10
	weightMedium = 5
	weightLow    = 2

	maxPenalty = 100
)

// Metrics is the headline security posture.
type Metrics struct {
	SecurityScore int      `json:"security_score"`
	RiskLevel     Severity `json:"risk_level"`
}

// Calculate derives the security score and risk level from a violation list.
// The penalty is capped at 100 so the score stays within [0, 100].
func Calculate(violations []Violation) Metrics {
	penalty := 0
	for _, v := range violations {
		switch v.Severity {
		case SeverityHigh:
			penalty += weightHigh
		case SeverityMedium:
			penalty += weightMedium
		case SeverityLow:
			penalty += weightLow
		}
		if penalty >= maxPenalty {
			penalty = maxPenalty
			break
		}
	}

	score := 100 - penalty
	return Metrics{SecurityScore: score, RiskLevel: LevelFor(score)}
}

// LevelFor maps a score to a risk level.
func LevelFor(score int) Severity {
	switch {
	case score >= 80:
		return SeverityLow
	case score >= 60:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// RiskColor is the display color for a score.
func RiskColor(score int) string {
	switch {
	case score >= 80:
		return "green"
	case score >= 60:
		return "orange"
	default:
		return "red"
	}
}
