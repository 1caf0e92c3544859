// Package guard screens outbound Cathedral queries with the Aguara content
// scanner before they reach the bridge.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garagon/aguara"
)

// Verdict is the screening decision for one piece of text.
type Verdict string

const (
	VerdictClean Verdict = "clean"
	VerdictFlag  Verdict = "flag"
	VerdictHold  Verdict = "hold"
	VerdictBlock Verdict = "block"
)

// Blocking reports whether the verdict stops a query from being sent.
func (v Verdict) Blocking() bool {
	return v == VerdictHold || v == VerdictBlock
}

// Outcome holds the result of screening.
type Outcome struct {
	Verdict  Verdict   `json:"verdict"`
	Findings []Finding `json:"findings,omitempty"`
}

// Finding is a simplified scanner finding.
type Finding struct {
	RuleID   string `json:"rule_id"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Match    string `json:"match,omitempty"`
}

// BlockedError is returned by Screen when a query is not allowed out.
type BlockedError struct {
	Outcome *Outcome
}

func (e *BlockedError) Error() string {
	ids := make([]string, 0, len(e.Outcome.Findings))
	for _, f := range e.Outcome.Findings {
		ids = append(ids, f.RuleID)
	}
	return fmt.Sprintf("query %s by rules %s", e.Outcome.Verdict, strings.Join(ids, ", "))
}

// Guard wraps the Aguara engine.
type Guard struct {
	opts   []aguara.Option
	logger *slog.Logger
}

// New creates a guard with Aguara's built-in rules. If customRulesDir is
// non-empty, rules from that directory are loaded too.
func New(customRulesDir string, logger *slog.Logger, extraOpts ...aguara.Option) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{logger: logger.With("component", "guard")}
	if customRulesDir != "" {
		g.opts = append(g.opts, aguara.WithCustomRules(customRulesDir))
	}
	g.opts = append(g.opts, extraOpts...)
	return g
}

// Scan inspects text and escalates the verdict by the worst finding:
// critical blocks, high holds, medium flags.
func (g *Guard) Scan(ctx context.Context, text string) (*Outcome, error) {
	result, err := aguara.ScanContent(ctx, text, "query.md", g.opts...)
	if err != nil {
		return nil, fmt.Errorf("aguara scan: %w", err)
	}

	outcome := &Outcome{Verdict: VerdictClean}
	for _, f := range result.Findings {
		outcome.Findings = append(outcome.Findings, Finding{
			RuleID:   f.RuleID,
			Name:     f.RuleName,
			Severity: f.Severity.String(),
			Match:    truncate(f.MatchedText, 200),
		})

		switch {
		case f.Severity >= aguara.SeverityCritical:
			outcome.Verdict = VerdictBlock
		case f.Severity >= aguara.SeverityHigh && outcome.Verdict != VerdictBlock:
			outcome.Verdict = VerdictHold
		case f.Severity >= aguara.SeverityMedium && outcome.Verdict == VerdictClean:
			outcome.Verdict = VerdictFlag
		}
	}
	return outcome, nil
}

// Screen implements the bridge's outbound screening hook. Flagged queries
// pass with a warning; held or blocked ones return a *BlockedError. Scanner
// failures also reject the query.
func (g *Guard) Screen(ctx context.Context, query string) error {
	outcome, err := g.Scan(ctx, query)
	if err != nil {
		g.logger.Error("query screening failed", "error", err)
		return err
	}
	switch {
	case outcome.Verdict.Blocking():
		g.logger.Warn("query rejected", "verdict", outcome.Verdict, "findings", len(outcome.Findings))
		return &BlockedError{Outcome: outcome}
	case outcome.Verdict == VerdictFlag:
		g.logger.Info("query flagged", "findings", len(outcome.Findings))
	}
	return nil
}

// RulesCount returns the number of loaded rules.
func (g *Guard) RulesCount(ctx context.Context) int {
	result, err := aguara.ScanContent(ctx, "test", "test.md", g.opts...)
	if err != nil {
		return 0
	}
	return result.RulesLoaded
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
