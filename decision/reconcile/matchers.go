package reconcile

import (
	"strings"

	"gho-tracker/decision/fts"
)

// =============================================================================
// EXACT
// =============================================================================

// ExactMatcher matches a name equal to an API short name
type ExactMatcher struct{}

func (ExactMatcher) Match(name string, plans *fts.PlanIndex) (*fts.Plan, Strategy, bool) {
	if p, ok := plans.Get(name); ok {
		return p, StrategyExact, true
	}
	return nil, "", false
}

// =============================================================================
// ALIAS
// =============================================================================

// AliasMatcher maps known renamed or abbreviated plans to their API short name.
// The mapped name must exist among the API plans.
type AliasMatcher struct {
	aliases map[string]string
}

// NewAliasMatcher copies the alias table
func NewAliasMatcher(aliases map[string]string) AliasMatcher {
	table := make(map[string]string, len(aliases))
	for k, v := range aliases {
		table[k] = v
	}
	return AliasMatcher{aliases: table}
}

func (m AliasMatcher) Match(name string, plans *fts.PlanIndex) (*fts.Plan, Strategy, bool) {
	mapped, ok := m.aliases[name]
	if !ok || mapped == "" {
		return nil, "", false
	}
	if p, ok := plans.Get(mapped); ok {
		return p, StrategyAlias, true
	}
	return nil, "", false
}

// =============================================================================
// FUZZY
// =============================================================================

// FuzzyMatcher walks API plans in response order. A plan matches when the
// name appears in its full name (case-insensitive), or when the name and the
// short name agree before any parenthesised suffix, e.g. "Uganda" and "Uganda (RRP)".
type FuzzyMatcher struct{}

func (FuzzyMatcher) Match(name string, plans *fts.PlanIndex) (*fts.Plan, Strategy, bool) {
	if strings.TrimSpace(name) == "" {
		return nil, "", false
	}

	lower := strings.ToLower(name)
	stem := baseName(name)

	for _, p := range plans.Plans() {
		if strings.Contains(strings.ToLower(p.FullName), lower) {
			return p, StrategyFuzzyName, true
		}
		if stem == baseName(p.ShortName) {
			return p, StrategyFuzzyPrefix, true
		}
	}
	return nil, "", false
}

// baseName is the lower-cased text before the first "(", trimmed
func baseName(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
