package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gho-tracker/decision/fts"
)

func testIndex(plans ...fts.Plan) *fts.PlanIndex {
	idx := fts.NewPlanIndex()
	for _, p := range plans {
		idx.Add(p)
	}
	return idx
}

var defaultAliases = map[string]string{
	"Democratic Republic of the Congo":                  "DRC",
	"Occupied Palestinian Territory":                    "oPt",
	"Syrian Arab Republic":                              "Syria",
	"Sudan (RRP)":                                       "Sudan (RRP)",
	"Horn of Africa to Yemen and Southern Africa (MRP)": "Horn of Africa",
}

func TestReconcilerStrategies(t *testing.T) {
	plans := testIndex(
		fts.Plan{ShortName: "Chad", FullName: "Chad Humanitarian Response Plan 2026"},
		fts.Plan{ShortName: "DRC", FullName: "Democratic Republic of the Congo HRP 2026"},
		fts.Plan{ShortName: "Sudan (RRP)", FullName: "Sudan Regional Refugee Response Plan 2026"},
		fts.Plan{ShortName: "Uganda (RRP)", FullName: "Regional Refugee Plan for East Africa"},
		fts.Plan{ShortName: "Horn of Africa", FullName: "Horn of Africa and Yemen Migrant Response"},
		fts.Plan{ShortName: "Haiti", FullName: "Haïti Plan de réponse humanitaire"},
	)
	r := NewReconciler(defaultAliases)

	tests := []struct {
		name      string
		wantShort string
		strategy  Strategy
	}{
		{"Chad", "Chad", StrategyExact},
		{"Sudan (RRP)", "Sudan (RRP)", StrategyExact},
		{"Democratic Republic of the Congo", "DRC", StrategyAlias},
		{"Horn of Africa to Yemen and Southern Africa (MRP)", "Horn of Africa", StrategyAlias},
		{"Uganda", "Uganda (RRP)", StrategyFuzzyPrefix},
		{"uganda (MRP)", "Uganda (RRP)", StrategyFuzzyPrefix},
		{"sudan regional refugee", "Sudan (RRP)", StrategyFuzzyName},
		{"HAITI", "Haiti", StrategyFuzzyPrefix},
		{"Unknown Land", "", StrategyNone},
		{"", "", StrategyNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Match(tt.name, plans)
			assert.Equal(t, tt.strategy, m.Strategy)
			assert.Equal(t, tt.name, m.Name)
			if tt.wantShort == "" {
				assert.False(t, m.Matched())
				assert.Nil(t, m.Plan)
				return
			}
			require.True(t, m.Matched())
			assert.Equal(t, tt.wantShort, m.Plan.ShortName)
		})
	}
}

func TestIdentityAliasMatchesWithoutExactKey(t *testing.T) {
	// The alias chain alone must resolve an identity alias
	m := NewAliasMatcher(defaultAliases)
	plans := testIndex(fts.Plan{ShortName: "Sudan (RRP)"})

	plan, strategy, ok := m.Match("Sudan (RRP)", plans)
	require.True(t, ok)
	assert.Equal(t, StrategyAlias, strategy)
	assert.Equal(t, "Sudan (RRP)", plan.ShortName)
}

func TestAliasToMissingPlanFallsThrough(t *testing.T) {
	plans := testIndex(
		fts.Plan{ShortName: "Syria Crisis", FullName: "Syrian Arab Republic HNRP 2026"},
	)

	m := NewReconciler(defaultAliases).Match("Syrian Arab Republic", plans)
	require.True(t, m.Matched())
	assert.Equal(t, StrategyFuzzyName, m.Strategy)
	assert.Equal(t, "Syria Crisis", m.Plan.ShortName)
}

func TestExactBeatsFuzzy(t *testing.T) {
	// "Niger" is a substring of "Nigeria ..." which comes first in API order
	plans := testIndex(
		fts.Plan{ShortName: "Nigeria", FullName: "Nigeria Humanitarian Response Plan"},
		fts.Plan{ShortName: "Niger", FullName: "Niger Humanitarian Response Plan"},
	)

	m := NewReconciler(nil).Match("Niger", plans)
	assert.Equal(t, StrategyExact, m.Strategy)
	assert.Equal(t, "Niger", m.Plan.ShortName)
}

func TestFuzzyFirstPlanInOrderWins(t *testing.T) {
	plans := testIndex(
		fts.Plan{ShortName: "Niger (A)", FullName: "first"},
		fts.Plan{ShortName: "Niger (B)", FullName: "second"},
	)

	m := NewReconciler(nil).Match("Niger", plans)
	require.True(t, m.Matched())
	assert.Equal(t, "Niger (A)", m.Plan.ShortName)
}

func TestAliasTableIsCopied(t *testing.T) {
	aliases := map[string]string{"Syrian Arab Republic": "Syria"}
	r := NewReconciler(aliases)
	aliases["Syrian Arab Republic"] = "Elsewhere"

	m := r.Match("Syrian Arab Republic", testIndex(fts.Plan{ShortName: "Syria"}))
	assert.Equal(t, StrategyAlias, m.Strategy)
}

func TestMatchAllKeepsOrder(t *testing.T) {
	plans := testIndex(fts.Plan{ShortName: "Chad"}, fts.Plan{ShortName: "Mali"})

	matches := NewReconciler(nil).MatchAll([]string{"Mali", "Atlantis", "Chad"}, plans)
	require.Len(t, matches, 3)
	assert.Equal(t, "Mali", matches[0].Plan.ShortName)
	assert.False(t, matches[1].Matched())
	assert.Equal(t, "Chad", matches[2].Plan.ShortName)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Uganda (RRP)", "uganda"},
		{"  Uganda  ", "uganda"},
		{"Sudan (RRP) (2026)", "sudan"},
		{"(MRP)", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, baseName(tt.input))
		})
	}
}
