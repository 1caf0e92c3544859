// Package dataset provides the violation and compliance data behind the
// dashboard: a built-in mock set, optional YAML files, and a source that
// simulates an asynchronous load.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/riskscorer/riskscorer/internal/risk"
)

// Snapshot is one complete dataset. Updates always replace a whole snapshot.
type Snapshot struct {
	Violations []risk.Violation           `json:"violations" yaml:"violations"`
	Frameworks []risk.ComplianceFramework `json:"frameworks" yaml:"frameworks"`
}

// Clone returns a copy that shares no backing arrays with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{}
	if s.Violations != nil {
		out.Violations = append([]risk.Violation(nil), s.Violations...)
	}
	if s.Frameworks != nil {
		out.Frameworks = append([]risk.ComplianceFramework(nil), s.Frameworks...)
	}
	return out
}

// Default returns the built-in mock dataset.
func Default() Snapshot {
	return Snapshot{
		Violations: []risk.Violation{
			{ID: 1, Severity: risk.SeverityHigh, Category: "Data Protection", Description: "Unencrypted PII data in staging environment", Status: risk.StatusOpen, Age: "3 days"},
			{ID: 2, Severity: risk.SeverityMedium, Category: "Access Control", Description: "Excessive admin privileges in production", Status: risk.StatusInProgress, Age: "1 week"},
			{ID: 3, Severity: risk.SeverityHigh, Category: "Infrastructure", Description: "Critical patches missing on web servers", Status: risk.StatusOpen, Age: "2 days"},
			{ID: 4, Severity: risk.SeverityLow, Category: "Policy", Description: "Password policy not enforced on test accounts", Status: risk.StatusResolved, Age: "2 weeks"},
			{ID: 5, Severity: risk.SeverityMedium, Category: "Network Security", Description: "Firewall rules too permissive on DMZ", Status: risk.StatusOpen, Age: "5 days"},
		},
		Frameworks: []risk.ComplianceFramework{
			{Framework: "GDPR", Compliant: 87, Critical: 2, Major: 5, Minor: 8},
			{Framework: "PCI DSS", Compliant: 92, Critical: 1, Major: 3, Minor: 5},
			{Framework: "HIPAA", Compliant: 79, Critical: 3, Major: 7, Minor: 12},
			{Framework: "SOC 2", Compliant: 84, Critical: 0, Major: 6, Minor: 9},
			{Framework: "ISO 27001", Compliant: 91, Critical: 1, Major: 4, Minor: 6},
		},
	}
}

// LoadFile reads and validates a YAML dataset file.
func LoadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, errors.New("dataset is empty")
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parsing dataset: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate checks enum fields, id uniqueness and percent ranges.
func (s Snapshot) Validate() error {
	seen := make(map[int]bool, len(s.Violations))
	for i, v := range s.Violations {
		if _, err := risk.ParseSeverity(string(v.Severity)); err != nil {
			return fmt.Errorf("violation %d: %w", i, err)
		}
		if _, err := risk.ParseStatus(string(v.Status)); err != nil {
			return fmt.Errorf("violation %d: %w", i, err)
		}
		if seen[v.ID] {
			return fmt.Errorf("violation %d: duplicate id %d", i, v.ID)
		}
		seen[v.ID] = true
	}
	for i, f := range s.Frameworks {
		if f.Framework == "" {
			return fmt.Errorf("framework %d: name is required", i)
		}
		if f.Compliant < 0 || f.Compliant > 100 {
			return fmt.Errorf("framework %s: compliant %d out of range 0-100", f.Framework, f.Compliant)
		}
		if f.Critical < 0 || f.Major < 0 || f.Minor < 0 {
			return fmt.Errorf("framework %s: issue counts must not be negative", f.Framework)
		}
	}
	return nil
}
