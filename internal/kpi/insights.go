package kpi

// Insight thresholds
const (
	LowROIThreshold                = 0.10
	LowRevenuePerEmployeeThreshold = 50000.0
	HighMarketingIncrease          = 20.0
	LowProfitMarginThreshold       = 0.15
)

// Severity grades an insight
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityPositive Severity = "positive"
)

// Insight is one rule-based recommendation
type Insight struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type rule struct {
	insight Insight
	applies func(k KPIs, sim Simulation) bool
}

// rules are evaluated independently, in this order
var rules = []rule{
	{
		insight: Insight{
			Rule:     "low_roi",
			Severity: SeverityWarning,
			Message:  "ROI is below 10%. Review pricing and trim costs that do not drive revenue.",
		},
		applies: func(k KPIs, _ Simulation) bool { return k.ROI < LowROIThreshold },
	},
	{
		insight: Insight{
			Rule:     "low_revenue_per_employee",
			Severity: SeverityWarning,
			Message:  "Revenue per employee is below 50,000. Improve workforce productivity before adding headcount.",
		},
		applies: func(k KPIs, _ Simulation) bool { return k.RevenuePerEmployee < LowRevenuePerEmployeeThreshold },
	},
	{
		insight: Insight{
			Rule:     "high_marketing_increase",
			Severity: SeverityInfo,
			Message:  "A marketing increase above 20% is aggressive. Track campaign returns closely.",
		},
		applies: func(_ KPIs, sim Simulation) bool { return sim.Scenario.MarketingIncrease > HighMarketingIncrease },
	},
	{
		insight: Insight{
			Rule:     "low_profit_margin",
			Severity: SeverityWarning,
			Message:  "Profit margin is below 15%. Consider raising prices or renegotiating supplier costs.",
		},
		applies: func(k KPIs, _ Simulation) bool { return k.ProfitMargin < LowProfitMarginThreshold },
	},
	{
		insight: Insight{
			Rule:     "scenario_improves_roi",
			Severity: SeverityPositive,
			Message:  "The simulated scenario improves ROI over the current baseline.",
		},
		applies: func(k KPIs, sim Simulation) bool { return sim.SimulatedROI > k.ROI },
	},
}

// Insights returns the recommendations whose conditions hold. The result
// is never nil.
func Insights(k KPIs, sim Simulation) []Insight {
	out := make([]Insight, 0, len(rules))
	for _, r := range rules {
		if r.applies(k, sim) {
			out = append(out, r.insight)
		}
	}
	return out
}
