package reference

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	trackererrors "gho-tracker/pkg/errors"
)

// Column names of the reference files
const (
	ColumnPlan                    = "plan"
	ColumnPrioritizedRequirements = "prioritized_requirements"
	ColumnPeopleInNeed            = "people_in_need"
	ColumnPeopleTargeted          = "people_targeted"
	ColumnPeoplePrioritized       = "people_prioritized"
)

// Plan is one response plan from the prioritized requirements file,
// joined with its people figures when the people file has the plan.
type Plan struct {
	Name                    string
	PrioritizedRequirements decimal.Decimal // whole USD
	People                  People
}

// People figures are passed through verbatim; empty when unknown.
type People struct {
	InNeed      string
	Targeted    string
	Prioritized string
}

// Included reports whether the plan takes part in the reports.
// Plans with a non-positive prioritized requirement are excluded everywhere.
func (p Plan) Included() bool {
	return p.PrioritizedRequirements.IsPositive()
}

// LoadPlans loads both reference files and joins them by plan name,
// in prioritized-file order
func LoadPlans(prioritizedPath, peoplePath string) ([]Plan, error) {
	prioritized, err := LoadTable(prioritizedPath, ColumnPlan)
	if err != nil {
		return nil, err
	}
	people, err := LoadTable(peoplePath, ColumnPlan)
	if err != nil {
		return nil, err
	}
	return JoinPlans(prioritized, people)
}

// JoinPlans parses prioritized requirements and attaches people figures.
// A requirement that is not a whole number is fatal.
func JoinPlans(prioritized, people *Table) ([]Plan, error) {
	if !prioritized.HasColumn(ColumnPrioritizedRequirements) {
		return nil, trackererrors.NewReferenceError(prioritized.Source,
			"missing column "+ColumnPrioritizedRequirements, nil)
	}

	plans := make([]Plan, 0, prioritized.Len())
	for _, name := range prioritized.Keys() {
		raw, _ := prioritized.Value(name, ColumnPrioritizedRequirements)
		amount, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, trackererrors.NewReferenceError(prioritized.Source,
				"invalid prioritized_requirements for "+name, err)
		}

		plan := Plan{
			Name:                    name,
			PrioritizedRequirements: decimal.NewFromInt(amount),
		}
		if people != nil {
			plan.People.InNeed, _ = people.Value(name, ColumnPeopleInNeed)
			plan.People.Targeted, _ = people.Value(name, ColumnPeopleTargeted)
			plan.People.Prioritized, _ = people.Value(name, ColumnPeoplePrioritized)
		}
		plans = append(plans, plan)
	}

	return plans, nil
}
