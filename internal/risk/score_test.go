package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func violations(high, medium, low int) []Violation {
	var out []Violation
	id := 1
	add := func(n int, sev Severity) {
		for range n {
			out = append(out, Violation{ID: id, Severity: sev, Status: StatusOpen})
			id++
		}
	}
	add(high, SeverityHigh)
	add(medium, SeverityMedium)
	add(low, SeverityLow)
	return out
}

func TestCalculate_Empty(t *testing.T) {
	m := Calculate(nil)
	assert.Equal(t, 100, m.SecurityScore)
	assert.Equal(t, SeverityLow, m.RiskLevel)
}

func TestCalculate_Example(t *testing.T) {
	// 2 High + 1 Medium + 1 Low = 20 + 5 + 2 = 27
	m := Calculate(violations(2, 1, 1))
	assert.Equal(t, 73, m.SecurityScore)
	assert.Equal(t, SeverityMedium, m.RiskLevel)
}

func TestCalculate_FloorAtZero(t *testing.T) {
	m := Calculate(violations(15, 0, 0))
	assert.Equal(t, 0, m.SecurityScore)
	assert.Equal(t, SeverityHigh, m.RiskLevel)
}

func TestCalculate_UnknownSeverityIgnored(t *testing.T) {
	m := Calculate([]Violation{{ID: 1, Severity: "Critical"}})
	assert.Equal(t, 100, m.SecurityScore)
}

func TestCalculate_BoundsAndMonotonic(t *testing.T) {
	for h := 0; h <= 12; h++ {
		for md := 0; md <= 12; md++ {
			for l := 0; l <= 12; l++ {
				base := Calculate(violations(h, md, l)).SecurityScore
				assert.GreaterOrEqual(t, base, 0)
				assert.LessOrEqual(t, base, 100)

				assert.LessOrEqual(t, Calculate(violations(h+1, md, l)).SecurityScore, base)
				assert.LessOrEqual(t, Calculate(violations(h, md+1, l)).SecurityScore, base)
				assert.LessOrEqual(t, Calculate(violations(h, md, l+1)).SecurityScore, base)
			}
		}
	}
}

func TestLevelFor_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Severity
	}{
		{100, SeverityLow},
		{80, SeverityLow},
		{79, SeverityMedium},
		{60, SeverityMedium},
		{59, SeverityHigh},
		{0, SeverityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %d", tt.score)
	}
}

func TestRiskColor(t *testing.T) {
	assert.Equal(t, "green", RiskColor(80))
	assert.Equal(t, "orange", RiskColor(60))
	assert.Equal(t, "red", RiskColor(59))
}

func TestParseSeverityAndStatus(t *testing.T) {
	sev, err := ParseSeverity("High")
	assert.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	_, err = ParseSeverity("high")
	assert.Error(t, err)

	st, err := ParseStatus("In Progress")
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, st)

	_, err = ParseStatus("Closed")
	assert.Error(t, err)
}
