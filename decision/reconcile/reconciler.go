// Package reconcile matches reference plan names to FTS API plans
// Reference spreadsheets and the API name plans differently, so matching runs
// an ordered chain of strategies and stops at the first hit
package reconcile

import (
	"gho-tracker/decision/fts"
)

// Strategy names the matcher that produced a match
type Strategy string

const (
	StrategyExact       Strategy = "exact"
	StrategyAlias       Strategy = "alias"
	StrategyFuzzyName   Strategy = "fuzzy-name"
	StrategyFuzzyPrefix Strategy = "fuzzy-prefix"
	StrategyNone        Strategy = "none"
)

// Matcher is one matching strategy
type Matcher interface {
	// Match returns the plan for name, and the strategy that matched, if any
	Match(name string, plans *fts.PlanIndex) (*fts.Plan, Strategy, bool)
}

// Match is the outcome of reconciling one reference plan name
type Match struct {
	Name     string    `json:"name"`
	Plan     *fts.Plan `json:"plan,omitempty"`
	Strategy Strategy  `json:"strategy"`
}

// Matched reports whether an API plan was found
func (m Match) Matched() bool {
	return m.Plan != nil
}

// Reconciler tries its matchers in registration order
type Reconciler struct {
	matchers []Matcher
}

// NewReconciler creates a reconciler with the standard chain:
// exact short name, alias table, then fuzzy name matching.
// Exact and alias must run first; the fuzzy substring test is permissive.
func NewReconciler(aliases map[string]string) *Reconciler {
	r := &Reconciler{}
	r.RegisterMatchers(
		ExactMatcher{},
		NewAliasMatcher(aliases),
		FuzzyMatcher{},
	)
	return r
}

// RegisterMatchers appends matchers to the chain
func (r *Reconciler) RegisterMatchers(matchers ...Matcher) {
	r.matchers = append(r.matchers, matchers...)
}

// Match reconciles one reference plan name. No match is not an error:
// the result has a nil Plan and StrategyNone.
func (r *Reconciler) Match(name string, plans *fts.PlanIndex) Match {
	for _, m := range r.matchers {
		if plan, strategy, ok := m.Match(name, plans); ok {
			return Match{Name: name, Plan: plan, Strategy: strategy}
		}
	}
	return Match{Name: name, Strategy: StrategyNone}
}

// MatchAll reconciles names in order
func (r *Reconciler) MatchAll(names []string, plans *fts.PlanIndex) []Match {
	out := make([]Match, 0, len(names))
	for _, name := range names {
		out = append(out, r.Match(name, plans))
	}
	return out
}
