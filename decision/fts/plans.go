// Package fts provides the Financial Tracking Service API client
// Fetches the GHO plan overview and funding flows that every report is built from
package fts

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Plan is a GHO response plan as reported by the plan overview endpoint
type Plan struct {
	ID        string `json:"id"`
	ShortName string `json:"short_name"` // Lookup key, e.g. "DRC", "Sudan (RRP)"
	FullName  string `json:"full_name"`
	PlanType  string `json:"plan_type"` // HRP, RRP, FA, ...

	// Money
	Funding           decimal.Decimal `json:"funding"`            // Total funding received (USD)
	TotalRequirements decimal.Decimal `json:"total_requirements"` // Revised, unprioritized requirements (USD)
	Progress          decimal.Decimal `json:"progress"`           // Funding progress (%)
}

// PlanIndex keeps GHO plans keyed by short name, in API response order.
// Re-adding a short name replaces the plan but keeps its original position.
type PlanIndex struct {
	order []string
	plans map[string]*Plan
}

// NewPlanIndex creates an empty plan index
func NewPlanIndex() *PlanIndex {
	return &PlanIndex{
		plans: make(map[string]*Plan),
	}
}

// Add inserts or replaces a plan
func (i *PlanIndex) Add(p Plan) {
	if _, exists := i.plans[p.ShortName]; !exists {
		i.order = append(i.order, p.ShortName)
	}
	i.plans[p.ShortName] = &p
}

// Get looks up a plan by short name
func (i *PlanIndex) Get(shortName string) (*Plan, bool) {
	p, ok := i.plans[shortName]
	return p, ok
}

// Plans returns the plans in API response order
func (i *PlanIndex) Plans() []*Plan {
	out := make([]*Plan, 0, len(i.order))
	for _, key := range i.order {
		out = append(out, i.plans[key])
	}
	return out
}

// Len returns the number of indexed plans
func (i *PlanIndex) Len() int {
	return len(i.order)
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// Pointers let a missing or null data.plans be told apart from an empty list
type overviewResponse struct {
	Data *struct {
		Plans *[]overviewPlan `json:"plans"`
	} `json:"data"`
}

type overviewPlan struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	ShortName   string      `json:"shortName"`
	IsPartOfGHO bool        `json:"isPartOfGHO"`
	Funding     struct {
		TotalFunding decimal.Decimal `json:"totalFunding"`
		Progress     decimal.Decimal `json:"progress"`
	} `json:"funding"`
	Requirements struct {
		RevisedRequirements decimal.Decimal `json:"revisedRequirements"`
	} `json:"requirements"`
	PlanType struct {
		Code string `json:"code"`
	} `json:"planType"`
}

// indexOverview keeps only GHO plans, keyed by trimmed short name
// (falling back to the full name when the API has no short name).
// A document without data.plans is rejected.
func indexOverview(resp *overviewResponse) (*PlanIndex, error) {
	if resp.Data == nil {
		return nil, errors.New("overview has no data object")
	}
	if resp.Data.Plans == nil {
		return nil, errors.New("overview has no data.plans list")
	}

	idx := NewPlanIndex()
	for _, p := range *resp.Data.Plans {
		if !p.IsPartOfGHO {
			continue
		}

		short := p.ShortName
		if short == "" {
			short = p.Name
		}

		idx.Add(Plan{
			ID:                p.ID.String(),
			ShortName:         strings.TrimSpace(short),
			FullName:          p.Name,
			PlanType:          p.PlanType.Code,
			Funding:           p.Funding.TotalFunding,
			TotalRequirements: p.Requirements.RevisedRequirements,
			Progress:          p.Funding.Progress,
		})
	}
	return idx, nil
}
