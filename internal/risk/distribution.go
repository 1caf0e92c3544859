package risk

// Severity colors, highest first.
var severityColors = []struct {
	sev   Severity
	color string
}{
	{SeverityHigh, "#dc2626"},
	{SeverityMedium, "#ea580c"},
	{SeverityLow, "#d97706"},
}

// Compliance colors by tone.
const (
	colorGood = "#16a34a"
	colorFair = "#facc15"
	colorPoor = "#dc2626"
)

// SeverityDistribution counts violations per severity, always High, Medium, Low.
func SeverityDistribution(violations []Violation) []ChartSlice {
	counts := make(map[Severity]int, len(severityColors))
	for _, v := range violations {
		counts[v.Severity]++
	}
	out := make([]ChartSlice, 0, len(severityColors))
	for _, sc := range severityColors {
		out = append(out, ChartSlice{Name: string(sc.sev), Value: counts[sc.sev], Color: sc.color})
	}
	return out
}

// ComplianceDistribution has one slice per framework colored by its tone.
func ComplianceDistribution(frameworks []ComplianceFramework) []ChartSlice {
	if len(frameworks) == 0 {
		return nil
	}
	out := make([]ChartSlice, 0, len(frameworks))
	for _, f := range frameworks {
		out = append(out, ChartSlice{Name: f.Framework, Value: f.Compliant, Color: ComplianceColor(f.Compliant)})
	}
	return out
}

// ComplianceTone classifies a compliance percentage: good >= 90, fair >= 75.
func ComplianceTone(percent int) string {
	switch {
	case percent >= 90:
		return "good"
	case percent >= 75:
		return "fair"
	default:
		return "poor"
	}
}

// ComplianceColor is the chart color for a compliance percentage.
func ComplianceColor(percent int) string {
	switch ComplianceTone(percent) {
	case "good":
		return colorGood
	case "fair":
		return colorFair
	default:
		return colorPoor
	}
}

// CountByStatus tallies violations per remediation status.
func CountByStatus(violations []Violation) map[Status]int {
	out := map[Status]int{StatusOpen: 0, StatusInProgress: 0, StatusResolved: 0}
	for _, v := range violations {
		out[v.Status]++
	}
	return out
}

// TotalCritical sums critical issues across frameworks.
func TotalCritical(frameworks []ComplianceFramework) int {
	var n int
	for _, f := range frameworks {
		n += f.Critical
	}
	return n
}

// BarWidths returns each slice's width as a percentage of the largest value.
func BarWidths(slices []ChartSlice) []int {
	maxVal := 1
	for _, s := range slices {
		if s.Value > maxVal {
			maxVal = s.Value
		}
	}
	out := make([]int, len(slices))
	for i, s := range slices {
		out[i] = s.Value * 100 / maxVal
	}
	return out
}

// PieShares returns each slice's fraction of the total. A zero total yields zeros.
func PieShares(slices []ChartSlice) []float64 {
	var total int
	for _, s := range slices {
		total += s.Value
	}
	out := make([]float64, len(slices))
	if total == 0 {
		return out
	}
	for i, s := range slices {
		out[i] = float64(s.Value) / float64(total)
	}
	return out
}
