// Package view holds the dashboard's navigation and role-visibility rules
// and the per-session controller that tracks them.
package view

import "slices"

// Tab identifies a dashboard tab.
type Tab string

const (
	TabOverview     Tab = "overview"
	TabViolations   Tab = "violations"
	TabCompliance   Tab = "compliance"
	TabCathedral    Tab = "cathedral"
	TabSettings     Tab = "settings"
	TabIntegrations Tab = "integrations"
)

// Role is the viewer persona selected in the header.
type Role string

const (
	RoleExecutive         Role = "executive"
	RoleSecurityAnalyst   Role = "securityAnalyst"
	RoleComplianceOfficer Role = "complianceOfficer"
)

// Region names a role-gated part of the UI.
type Region string

const (
	RegionComplianceSummary    Region = "complianceSummary"
	RegionInvestmentPriorities Region = "investmentPriorities"
	RegionViolationActions     Region = "violationActions"
	RegionAdvancedSettings     Region = "advancedSettings"
)

// Option is a value with its display label.
type Option[T ~string] struct {
	Value T
	Label string
}

var tabs = []Option[Tab]{
	{TabOverview, "Overview"},
	{TabViolations, "Violations"},
	{TabCompliance, "Compliance"},
	{TabCathedral, "Cathedral"},
	{TabSettings, "Settings"},
	{TabIntegrations, "Integrations"},
}

var roles = []Option[Role]{
	{RoleExecutive, "Executive"},
	{RoleSecurityAnalyst, "Security Analyst"},
	{RoleComplianceOfficer, "Compliance Officer"},
}

// Regions missing from this table are visible to everyone.
var regionRoles = map[Region][]Role{
	RegionComplianceSummary:    {RoleSecurityAnalyst, RoleComplianceOfficer, RoleExecutive},
	RegionInvestmentPriorities: {RoleSecurityAnalyst, RoleComplianceOfficer},
	RegionViolationActions:     {RoleSecurityAnalyst},
	RegionAdvancedSettings:     {RoleSecurityAnalyst},
}

// Tabs lists the tabs in display order.
func Tabs() []Option[Tab] { return slices.Clone(tabs) }

// Roles lists the roles in picker order.
func Roles() []Option[Role] { return slices.Clone(roles) }

// ParseTab reports whether s names a known tab.
func ParseTab(s string) (Tab, bool) {
	for _, t := range tabs {
		if string(t.Value) == s {
			return t.Value, true
		}
	}
	return "", false
}

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	for _, r := range roles {
		if string(r.Value) == s {
			return r.Value, true
		}
	}
	return "", false
}

// Label returns the display label of a tab, or the raw id if unknown.
func (t Tab) Label() string {
	for _, o := range tabs {
		if o.Value == t {
			return o.Label
		}
	}
	return string(t)
}

// Label returns the display label of a role, or the raw id if unknown.
func (r Role) Label() string {
	for _, o := range roles {
		if o.Value == r {
			return o.Label
		}
	}
	return string(r)
}

// Visible reports whether role may see region.
func Visible(role Role, region Region) bool {
	allowed, gated := regionRoles[region]
	if !gated {
		return true
	}
	return slices.Contains(allowed, role)
}

// AllowedRoles returns the allow-list for region, nil when it is public.
func AllowedRoles(region Region) []Role {
	return slices.Clone(regionRoles[region])
}
