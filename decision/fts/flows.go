package fts

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FlowReport holds pledge totals from the funding-flow endpoint.
// Pledges are parsed for visibility but no report consumes them yet.
type FlowReport struct {
	HasReport bool                       // data.report2 was present
	Pledges   map[string]decimal.Decimal // funding object name -> pledged funding
}

type flowResponse struct {
	Data map[string]json.RawMessage `json:"data"`
}

type pledgeTotals struct {
	Objects []struct {
		SingleFundingObjects []struct {
			Name         string          `json:"name"`
			TotalFunding decimal.Decimal `json:"totalFunding"`
		} `json:"singleFundingObjects"`
	} `json:"objects"`
}

func parseFlows(resp *flowResponse) (*FlowReport, error) {
	report := &FlowReport{
		Pledges: make(map[string]decimal.Decimal),
	}

	if resp.Data == nil {
		return report, nil
	}
	if _, ok := resp.Data["report2"]; !ok {
		return report, nil
	}
	report.HasReport = true

	raw, ok := resp.Data["pledgeTotals"]
	if !ok || string(raw) == "null" {
		return report, nil
	}

	var totals pledgeTotals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode pledge totals: %w", err)
	}

	for _, obj := range totals.Objects {
		for _, item := range obj.SingleFundingObjects {
			report.Pledges[item.Name] = item.TotalFunding
		}
	}

	return report, nil
}
