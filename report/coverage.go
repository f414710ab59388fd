package report

import (
	"fmt"
	"io"
	"strconv"

	"gho-tracker/decision/coverage"
	"gho-tracker/pkg/util"
)

// TimestampLayout formats the "Last Updated" metric
const TimestampLayout = "2006-01-02 15:04 UTC"

// TotalRowLabel names the synthetic last row of the per-plan report
const TotalRowLabel = "Total"

// Per-plan report columns
const (
	ColPlan              = "Plan"
	ColPlanType          = "Plan Type"
	ColPrioritized       = "Prioritized Requirements (USD)"
	ColFunding           = "Funding received (USD)"
	ColUnfunded          = "Unfunded (USD)"
	ColCoverage          = "Coverage (%)"
	ColFullRequirements  = "Full Requirements (USD)"
	ColPeopleInNeed      = "People in Need"
	ColPeopleTargeted    = "People Targeted"
	ColPeoplePrioritized = "People Prioritized"
)

// ByPlanFields is the per-plan report header, in order
var ByPlanFields = []string{
	ColPlan, ColPlanType,
	ColPrioritized, ColFunding,
	ColUnfunded, ColCoverage,
	ColFullRequirements,
	ColPeopleInNeed, ColPeopleTargeted, ColPeoplePrioritized,
}

// Totals report columns and metrics
const (
	ColMetric = "Metric"
	ColValue  = "Value"

	MetricPlansCount  = "Plans Count"
	MetricLastUpdated = "Last Updated"
)

// TotalsFields is the totals report header, in order
var TotalsFields = []string{ColMetric, ColValue}

// ByPlanRows renders one row per plan, in result order, then the Total row
func ByPlanRows(result *coverage.Result) []map[string]string {
	rows := make([]map[string]string, 0, len(result.Rows)+1)
	for _, r := range result.Rows {
		rows = append(rows, map[string]string{
			ColPlan:              r.Plan,
			ColPlanType:          r.PlanType,
			ColPrioritized:       util.FormatUSD(r.Prioritized),
			ColFunding:           util.FormatUSD(r.Funding),
			ColUnfunded:          util.FormatUSD(r.Unfunded),
			ColCoverage:          util.FormatPercent(r.CoveragePct),
			ColFullRequirements:  util.FormatUSD(r.FullRequirements),
			ColPeopleInNeed:      r.People.InNeed,
			ColPeopleTargeted:    r.People.Targeted,
			ColPeoplePrioritized: r.People.Prioritized,
		})
	}

	t := result.Totals
	rows = append(rows, map[string]string{
		ColPlan:              TotalRowLabel,
		ColPlanType:          "",
		ColPrioritized:       util.FormatUSD(t.Prioritized),
		ColFunding:           util.FormatUSD(t.Funding),
		ColUnfunded:          util.FormatUSD(t.Unfunded),
		ColCoverage:          totalsCoverage(t),
		ColFullRequirements:  "",
		ColPeopleInNeed:      "",
		ColPeopleTargeted:    "",
		ColPeoplePrioritized: "",
	})
	return rows
}

// totalsCoverage prints the zero fallback as a bare "0"
func totalsCoverage(t coverage.Totals) string {
	if !t.HasCoverage() {
		return "0"
	}
	return util.FormatPercent(t.CoveragePct)
}

// TotalsRows renders the six-metric totals report
func TotalsRows(result *coverage.Result) []map[string]string {
	t := result.Totals
	metric := func(name, value string) map[string]string {
		return map[string]string{ColMetric: name, ColValue: value}
	}
	return []map[string]string{
		metric(ColPrioritized, util.FormatUSD(t.Prioritized)),
		metric(ColFunding, util.FormatUSD(t.Funding)),
		metric(ColUnfunded, util.FormatUSD(t.Unfunded)),
		metric(ColCoverage, totalsCoverage(t)),
		metric(MetricPlansCount, strconv.Itoa(t.PlansCount)),
		metric(MetricLastUpdated, result.GeneratedAt.UTC().Format(TimestampLayout)),
	}
}

// Write renders both reports and writes them together
func Write(result *coverage.Result, byPlanPath, totalsPath string) error {
	return WriteAll(
		File{Path: byPlanPath, Fields: ByPlanFields, Rows: ByPlanRows(result)},
		File{Path: totalsPath, Fields: TotalsFields, Rows: TotalsRows(result)},
	)
}

// PrintSummary writes the plain-text run summary
func PrintSummary(w io.Writer, result *coverage.Result, outputs ...string) {
	t := result.Totals
	fmt.Fprintf(w, "Plans:                %d\n", t.PlansCount)
	fmt.Fprintf(w, "Prioritized Reqs:     %s\n", util.FormatBillions(t.Prioritized))
	fmt.Fprintf(w, "Funding:              %s\n", util.FormatBillions(t.Funding))
	fmt.Fprintf(w, "Coverage:             %s%%\n", totalsCoverage(t))
	for i, path := range outputs {
		label := "Output:"
		if i > 0 {
			label = ""
		}
		fmt.Fprintf(w, "%-22s%s\n", label, path)
	}
	fmt.Fprintln(w, "Done.")
}
