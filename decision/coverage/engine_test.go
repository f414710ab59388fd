package coverage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gho-tracker/decision/fts"
	"gho-tracker/decision/reconcile"
	"gho-tracker/decision/reference"
	trackererrors "gho-tracker/pkg/errors"
)

var defaultOverlaps = []Overlap{
	{Name: "Horn of Africa", Amount: decimal.NewFromInt(-19138004)},
	{Name: "Sudan (RRP)", Amount: decimal.NewFromInt(-575662771)},
}

func refPlan(name string, prioritized int64) reference.Plan {
	return reference.Plan{Name: name, PrioritizedRequirements: decimal.NewFromInt(prioritized)}
}

func apiIndex(plans ...fts.Plan) *fts.PlanIndex {
	idx := fts.NewPlanIndex()
	for _, p := range plans {
		idx.Add(p)
	}
	return idx
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestEngine(overlaps []Overlap) *Engine {
	clock := func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return NewEngine(reconcile.NewReconciler(nil), overlaps).WithClock(clock)
}

func TestChadCoverage(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{
		Plans: []reference.Plan{refPlan("Chad", 1000000000)},
		APIPlans: apiIndex(fts.Plan{
			ShortName:         "Chad",
			PlanType:          "HRP",
			Funding:           decimal.NewFromInt(250000000),
			TotalRequirements: decimal.NewFromInt(1360000000),
		}),
	})

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, "HRP", row.PlanType)
	assert.Equal(t, "1000000000", row.Prioritized.String())
	assert.Equal(t, "250000000", row.Funding.String())
	assert.Equal(t, "750000000", row.Unfunded.String())
	assert.Equal(t, "25.0", row.CoveragePct.StringFixed(1))
	assert.Equal(t, "1360000000", row.FullRequirements.String())
	assert.Equal(t, reconcile.StrategyExact, row.Match.Strategy)
	assert.Empty(t, result.Unmatched)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), result.GeneratedAt)
}

func TestUnmatchedPlanDegrades(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{
		Plans:    []reference.Plan{refPlan("Unknown Land", 500)},
		APIPlans: apiIndex(fts.Plan{ShortName: "Chad", FullName: "Chad HRP", Funding: decimal.NewFromInt(1)}),
	})

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.True(t, row.Funding.IsZero())
	assert.Equal(t, "", row.PlanType)
	assert.Equal(t, "0.0", row.CoveragePct.StringFixed(1))
	assert.Equal(t, "500", row.Unfunded.String())
	assert.True(t, row.FullRequirements.IsZero())
	assert.Equal(t, reconcile.StrategyNone, row.Match.Strategy)

	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, trackererrors.ErrCodePlanUnmatched, result.Unmatched[0].Code)
	assert.Equal(t, "Unknown Land", result.Unmatched[0].Subject)
}

func TestNilAPIPlans(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{Plans: []reference.Plan{refPlan("Chad", 10)}})

	require.Len(t, result.Rows, 1)
	assert.Len(t, result.Unmatched, 1)
}

func TestNonPositivePlansExcludedEverywhere(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{
		Plans: []reference.Plan{
			refPlan("Niger", 0),
			refPlan("Mali", 100),
			refPlan("Overlap", -50),
		},
		APIPlans: apiIndex(
			fts.Plan{ShortName: "Niger", Funding: decimal.NewFromInt(999)},
			fts.Plan{ShortName: "Mali", Funding: decimal.NewFromInt(40)},
		),
	})

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Mali", result.Rows[0].Plan)
	assert.Equal(t, []string{"Niger", "Overlap"}, result.Skipped)
	assert.Equal(t, 1, result.Totals.PlansCount)
	assert.Equal(t, "100", result.Totals.Prioritized.String())
	assert.Equal(t, "40", result.Totals.Funding.String())
}

func TestOverfundedPlanHasNoUnfunded(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{
		Plans:    []reference.Plan{refPlan("Chad", 100)},
		APIPlans: apiIndex(fts.Plan{ShortName: "Chad", Funding: decimal.NewFromInt(150)}),
	})

	row := result.Rows[0]
	assert.True(t, row.Unfunded.IsZero())
	assert.Equal(t, "150.0", row.CoveragePct.StringFixed(1))
}

func TestRoundingIsHalfToEven(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{
		Plans: []reference.Plan{refPlan("A", 3), refPlan("B", 3000)},
		APIPlans: apiIndex(
			fts.Plan{ShortName: "A", Funding: dec(t, "0.5"), TotalRequirements: dec(t, "2.5")},
			fts.Plan{ShortName: "B", Funding: dec(t, "1000.6")},
		),
	})

	byName := map[string]PlanRow{}
	for _, r := range result.Rows {
		byName[r.Plan] = r
	}

	a := byName["A"]
	assert.Equal(t, "0", a.Funding.String())
	assert.Equal(t, "2", a.FullRequirements.String())
	assert.Equal(t, "3", a.Unfunded.String())
	assert.Equal(t, "16.7", a.CoveragePct.StringFixed(1))

	b := byName["B"]
	assert.Equal(t, "1001", b.Funding.String())
	assert.Equal(t, "1999", b.Unfunded.String())
	assert.Equal(t, "33.4", b.CoveragePct.StringFixed(1))
}

func TestRowsSortedDescendingStable(t *testing.T) {
	result := newTestEngine(nil).Aggregate(Request{
		Plans: []reference.Plan{
			refPlan("Small", 10),
			refPlan("Tie-1", 50),
			refPlan("Big", 900),
			refPlan("Tie-2", 50),
		},
		APIPlans: apiIndex(),
	})

	var names []string
	for _, r := range result.Rows {
		names = append(names, r.Plan)
	}
	assert.Equal(t, []string{"Big", "Tie-1", "Tie-2", "Small"}, names)
}

func TestTotalsApplyOverlapsToPrioritizedOnly(t *testing.T) {
	result := newTestEngine(defaultOverlaps).Aggregate(Request{
		Plans: []reference.Plan{
			refPlan("Sudan (RRP)", 2000000000),
			refPlan("Horn of Africa", 100000000),
			refPlan("Chad", 1000000000),
		},
		APIPlans: apiIndex(
			fts.Plan{ShortName: "Sudan (RRP)", Funding: decimal.NewFromInt(300000000)},
			fts.Plan{ShortName: "Horn of Africa", Funding: decimal.NewFromInt(10000000)},
			fts.Plan{ShortName: "Chad", Funding: decimal.NewFromInt(250000000)},
		),
	})

	totals := result.Totals
	assert.Equal(t, "3100000000", totals.PrioritizedRaw.String())
	assert.Equal(t, "-594800775", totals.OverlapTotal.String())
	assert.Equal(t, "2505199225", totals.Prioritized.String())
	assert.Equal(t, "560000000", totals.Funding.String())
	assert.Equal(t, "1945199225", totals.Unfunded.String())
	assert.Equal(t, "22.4", totals.CoveragePct.StringFixed(1))
	assert.Equal(t, 3, totals.PlansCount)

	// Row sum plus corrections equals the adjusted total
	sum := decimal.Zero
	for _, r := range result.Rows {
		sum = sum.Add(r.Prioritized)
	}
	assert.True(t, sum.Add(totals.OverlapTotal).Equal(totals.Prioritized))
}

func TestTotalsCoverageGuardedWhenAdjustedNotPositive(t *testing.T) {
	result := newTestEngine(defaultOverlaps).Aggregate(Request{
		Plans:    []reference.Plan{refPlan("Chad", 1000)},
		APIPlans: apiIndex(fts.Plan{ShortName: "Chad", Funding: decimal.NewFromInt(500)}),
	})

	assert.True(t, result.Totals.Prioritized.IsNegative())
	assert.True(t, result.Totals.CoveragePct.IsZero())
	assert.True(t, result.Totals.Unfunded.IsZero())
	assert.False(t, result.Totals.HasCoverage())
}

func TestRowInvariants(t *testing.T) {
	plans := []reference.Plan{
		refPlan("A", 1234567),
		refPlan("B", 7),
		refPlan("C", 999999999),
		refPlan("D", 1),
	}
	api := apiIndex(
		fts.Plan{ShortName: "A", Funding: dec(t, "1234566.5")},
		fts.Plan{ShortName: "B", Funding: dec(t, "12.49")},
		fts.Plan{ShortName: "C", Funding: dec(t, "333333333.333")},
	)

	result := newTestEngine(defaultOverlaps).Aggregate(Request{Plans: plans, APIPlans: api})

	for i, row := range result.Rows {
		want := decimal.Max(decimal.Zero, row.Prioritized.Sub(row.Funding))
		assert.True(t, want.Equal(row.Unfunded), "row %s", row.Plan)
		if i > 0 {
			assert.False(t, row.Prioritized.GreaterThan(result.Rows[i-1].Prioritized))
		}
	}
	assert.Equal(t, len(result.Rows), result.Totals.PlansCount)
}
