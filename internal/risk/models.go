// Package risk holds the violation and compliance records shown on the
// dashboard and the pure calculations derived from them.
package risk

import "fmt"

// Severity grades a violation. It doubles as the overall risk level.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Status is the remediation state of a violation.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// Violation is a single security finding.
type Violation struct {
	ID          int      `json:"id" yaml:"id"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Status      Status   `json:"status" yaml:"status"`
	Age         string   `json:"age" yaml:"age"`
}

// ComplianceFramework summarizes the posture against one framework.
type ComplianceFramework struct {
	Framework string `json:"framework" yaml:"framework"`
	Compliant int    `json:"compliant" yaml:"compliant"` // percent, 0-100
	Critical  int    `json:"critical" yaml:"critical"`
	Major     int    `json:"major" yaml:"major"`
	Minor     int    `json:"minor" yaml:"minor"`
}

// ChartSlice is one bar or pie segment.
type ChartSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// ParseSeverity accepts only the three known severities.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// ParseStatus accepts only the three known statuses.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusResolved:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}
