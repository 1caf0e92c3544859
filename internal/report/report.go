// Package report assembles the compliance report shown on the dashboard's
// print view and written by the report command.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/riskscorer/riskscorer/internal/dataset"
	"github.com/riskscorer/riskscorer/internal/risk"
)

// Organization is the letterhead printed on the report.
type Organization struct {
	Name              string `json:"name" yaml:"name"`
	SecurityContact   string `json:"security_contact" yaml:"security_contact"`
	ComplianceOfficer string `json:"compliance_officer" yaml:"compliance_officer"`
}

// DefaultOrganization is used when no organization is configured.
var DefaultOrganization = Organization{
	Name:              "Acme Corporation",
	SecurityContact:   "security@acmecorp.com",
	ComplianceOfficer: "Jane Smith",
}

// Framework is one framework section of the report.
type Framework struct {
	risk.ComplianceFramework
	Tone   string `json:"tone"`
	Color  string `json:"color"`
	Remark string `json:"remark"`
}

// Report is a rendered-ready compliance report.
type Report struct {
	Title         string       `json:"title"`
	Date          time.Time    `json:"date"`
	Organization  Organization `json:"organization"`
	Metrics       risk.Metrics `json:"metrics"`
	RiskColor     string       `json:"risk_color"`
	TotalCritical int          `json:"total_critical"`
	Summary       string       `json:"summary"`
	Frameworks    []Framework  `json:"frameworks"`
}

// Title is the document title used for the printed file name.
func Title(date time.Time) string {
	return "Compliance-Report-" + date.Format("2006-01-02")
}

// Build derives a report from a snapshot.
func Build(snap dataset.Snapshot, org Organization, now time.Time) Report {
	metrics := risk.Calculate(snap.Violations)
	r := Report{
		Title:         Title(now),
		Date:          now,
		Organization:  org,
		Metrics:       metrics,
		RiskColor:     risk.RiskColor(metrics.SecurityScore),
		TotalCritical: risk.TotalCritical(snap.Frameworks),
		Summary: fmt.Sprintf("The organization's overall security posture is at %s risk level. "+
			"Immediate attention is required for critical issues across compliance frameworks.", metrics.RiskLevel),
	}
	for _, fw := range snap.Frameworks {
		r.Frameworks = append(r.Frameworks, Framework{
			ComplianceFramework: fw,
			Tone:                risk.ComplianceTone(fw.Compliant),
			Color:               risk.ComplianceColor(fw.Compliant),
			Remark:              remark(fw),
		})
	}
	return r
}

func remark(fw risk.ComplianceFramework) string {
	s := fmt.Sprintf("%s compliance status is %d%%. ", fw.Framework, fw.Compliant)
	if fw.Critical > 0 {
		return s + fmt.Sprintf("%d critical issues require immediate remediation.", fw.Critical)
	}
	return s + "No critical compliance issues detected."
}

// WriteText writes the report as plain text.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", r.Title, strings.Repeat("=", len(r.Title)))
	fmt.Fprintf(&b, "Organization:        %s\n", r.Organization.Name)
	fmt.Fprintf(&b, "Report date:         %s\n", r.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Security contact:    %s\n", r.Organization.SecurityContact)
	fmt.Fprintf(&b, "Compliance officer:  %s\n\n", r.Organization.ComplianceOfficer)

	b.WriteString("Executive Summary\n-----------------\n")
	fmt.Fprintf(&b, "Security score:  %d/100\n", r.Metrics.SecurityScore)
	fmt.Fprintf(&b, "Risk level:      %s\n", r.Metrics.RiskLevel)
	fmt.Fprintf(&b, "Critical issues: %d\n\n%s\n\n", r.TotalCritical, r.Summary)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAMEWORK\tCOMPLIANT\tCRITICAL\tMAJOR\tMINOR")
	for _, fw := range r.Frameworks {
		fmt.Fprintf(tw, "%s\t%d%%\t%d\t%d\t%d\n", fw.Framework, fw.Compliant, fw.Critical, fw.Major, fw.Minor)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.Reset()
	b.WriteString("\n")
	for _, fw := range r.Frameworks {
		fmt.Fprintf(&b, "- %s\n", fw.Remark)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
