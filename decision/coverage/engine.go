// Package coverage provides the Funding Coverage Engine
// Joins reference plans with live API funding and computes per-plan and global coverage
package coverage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gho-tracker/decision/fts"
	"gho-tracker/decision/reconcile"
	"gho-tracker/decision/reference"
	trackererrors "gho-tracker/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Engine is the Funding Coverage Engine
type Engine struct {
	reconciler *reconcile.Reconciler
	overlaps   []Overlap
	now        func() time.Time
}

// Overlap is a double-counted amount subtracted from the prioritized total
type Overlap struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"` // negative
}

// NewEngine creates a new coverage engine
func NewEngine(reconciler *reconcile.Reconciler, overlaps []Overlap) *Engine {
	return &Engine{
		reconciler: reconciler,
		overlaps:   append([]Overlap(nil), overlaps...),
		now:        time.Now,
	}
}

// WithClock overrides the clock used for GeneratedAt
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Request contains the inputs of one aggregation pass
type Request struct {
	Plans    []reference.Plan
	APIPlans *fts.PlanIndex
}

// Result contains the complete coverage output
type Result struct {
	// Per-plan rows, sorted by prioritized requirements (highest first)
	Rows []PlanRow `json:"rows"`

	// Global totals
	Totals Totals `json:"totals"`

	// Plans excluded for a non-positive prioritized requirement
	Skipped []string `json:"skipped"`

	// Included plans with no API counterpart (reported with zero funding)
	Unmatched []*trackererrors.TrackerError `json:"unmatched"`

	GeneratedAt time.Time `json:"generated_at"`
}

// PlanRow is one reference plan joined with at most one API plan.
// Currency fields are whole USD; CoveragePct has one decimal place.
type PlanRow struct {
	Plan     string `json:"plan"`
	PlanType string `json:"plan_type"`

	Prioritized      decimal.Decimal `json:"prioritized"`
	Funding          decimal.Decimal `json:"funding"`
	Unfunded         decimal.Decimal `json:"unfunded"`
	CoveragePct      decimal.Decimal `json:"coverage_pct"`
	FullRequirements decimal.Decimal `json:"full_requirements"`

	People reference.People `json:"people"`

	// Reconciliation
	Match reconcile.Match `json:"match"`
}

// Totals summarises all included plans
type Totals struct {
	PrioritizedRaw decimal.Decimal `json:"prioritized_raw"` // before overlap corrections
	OverlapTotal   decimal.Decimal `json:"overlap_total"`
	Prioritized    decimal.Decimal `json:"prioritized"` // adjusted
	Funding        decimal.Decimal `json:"funding"`
	Unfunded       decimal.Decimal `json:"unfunded"`
	CoveragePct    decimal.Decimal `json:"coverage_pct"`
	PlansCount     int             `json:"plans_count"`
}

// HasCoverage reports whether the adjusted total is positive, so that
// CoveragePct is a computed ratio rather than the zero fallback
func (t Totals) HasCoverage() bool {
	return t.Prioritized.IsPositive()
}

// Aggregate reconciles, computes and sorts. It never fails: unmatched plans
// degrade to zero funding and are listed in Result.Unmatched.
func (e *Engine) Aggregate(req Request) *Result {
	apiPlans := req.APIPlans
	if apiPlans == nil {
		apiPlans = fts.NewPlanIndex()
	}

	result := &Result{
		Rows:        make([]PlanRow, 0, len(req.Plans)),
		Skipped:     make([]string, 0),
		Unmatched:   make([]*trackererrors.TrackerError, 0),
		GeneratedAt: e.now().UTC(),
	}

	for _, plan := range req.Plans {
		if !plan.Included() {
			result.Skipped = append(result.Skipped, plan.Name)
			continue
		}

		match := e.reconciler.Match(plan.Name, apiPlans)
		if !match.Matched() {
			result.Unmatched = append(result.Unmatched, trackererrors.NewUnmatchedPlanError(plan.Name))
		}

		result.Rows = append(result.Rows, buildRow(plan, match))
	}

	// Sort rows by prioritized requirements (highest first), stable for ties
	sort.SliceStable(result.Rows, func(i, j int) bool {
		return result.Rows[i].Prioritized.GreaterThan(result.Rows[j].Prioritized)
	})

	result.Totals = e.totals(result.Rows)
	return result
}

// buildRow derives funding figures for one included plan
func buildRow(plan reference.Plan, match reconcile.Match) PlanRow {
	row := PlanRow{
		Plan:             plan.Name,
		Prioritized:      plan.PrioritizedRequirements,
		Funding:          decimal.Zero,
		FullRequirements: decimal.Zero,
		People:           plan.People,
		Match:            match,
	}

	funding := decimal.Zero
	if match.Matched() {
		funding = match.Plan.Funding
		row.PlanType = match.Plan.PlanType
		row.FullRequirements = match.Plan.TotalRequirements.RoundBank(0)
	}

	row.Funding = funding.RoundBank(0)
	row.Unfunded = decimal.Max(decimal.Zero, row.Prioritized.Sub(row.Funding))
	row.CoveragePct = percentage(funding, row.Prioritized)

	return row
}

// totals sums row figures and applies overlap corrections to the prioritized total only
func (e *Engine) totals(rows []PlanRow) Totals {
	t := Totals{
		PrioritizedRaw: decimal.Zero,
		OverlapTotal:   decimal.Zero,
		Funding:        decimal.Zero,
		PlansCount:     len(rows),
	}

	for _, row := range rows {
		t.PrioritizedRaw = t.PrioritizedRaw.Add(row.Prioritized)
		t.Funding = t.Funding.Add(row.Funding)
	}
	for _, o := range e.overlaps {
		t.OverlapTotal = t.OverlapTotal.Add(o.Amount)
	}

	t.Prioritized = t.PrioritizedRaw.Add(t.OverlapTotal).RoundBank(0)
	t.Unfunded = decimal.Max(decimal.Zero, t.Prioritized.Sub(t.Funding))
	t.CoveragePct = percentage(t.Funding, t.Prioritized)

	return t
}

// percentage is part/whole*100 to one decimal place, or 0 when whole <= 0
func percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).RoundBank(1)
}
