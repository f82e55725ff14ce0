package kpi

import (
	"errors"
	"fmt"
	"math"

	"bizpulse/internal/dataset"
)

// Model defaults
const (
	DefaultCostPerEmployee = 5000.0
	DefaultGrowthRate      = 0.05
	DefaultForecastPeriods = 3
)

// Scenario bounds
const (
	MinMarketingIncrease   = -100.0
	MaxMarketingIncrease   = 500.0
	MaxAdditionalEmployees = 10000
)

// ErrInvalidScenario is returned for out-of-range what-if inputs
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a what-if perturbation of the cost base
type Scenario struct {
	// MarketingIncrease is the percentage change applied to the cost base
	MarketingIncrease   float64 `json:"marketing_increase"`
	AdditionalEmployees int     `json:"additional_employees"`
}

// Validate checks the scenario bounds
func (s Scenario) Validate() error {
	if math.IsNaN(s.MarketingIncrease) || s.MarketingIncrease < MinMarketingIncrease || s.MarketingIncrease > MaxMarketingIncrease {
		return fmt.Errorf("%w: marketing increase %v outside [%v, %v]",
			ErrInvalidScenario, s.MarketingIncrease, MinMarketingIncrease, MaxMarketingIncrease)
	}
	if s.AdditionalEmployees < 0 || s.AdditionalEmployees > MaxAdditionalEmployees {
		return fmt.Errorf("%w: additional employees %d outside [0, %d]",
			ErrInvalidScenario, s.AdditionalEmployees, MaxAdditionalEmployees)
	}
	return nil
}

// Simulation is the outcome of a scenario
type Simulation struct {
	Scenario      Scenario `json:"scenario"`
	SimulatedCost float64  `json:"simulated_cost"`
	SimulatedROI  float64  `json:"simulated_roi"`
	ROIDelta      float64  `json:"roi_delta"`
}

// ForecastPoint is one projected period
type ForecastPoint struct {
	Period  int     `json:"period"`
	Revenue float64 `json:"revenue"`
	ROI     float64 `json:"roi"`
}

// Report bundles everything derived for one dataset and scenario
type Report struct {
	Totals     dataset.Totals  `json:"totals"`
	KPIs       KPIs            `json:"kpis"`
	Simulation Simulation      `json:"simulation"`
	Forecast   []ForecastPoint `json:"forecast"`
	Insights   []Insight       `json:"insights"`
}

// Model holds the constants of the what-if model
type Model struct {
	CostPerEmployee float64
	GrowthRate      float64
	ForecastPeriods int
}

// DefaultModel returns the standard model constants
func DefaultModel() Model {
	return Model{
		CostPerEmployee: DefaultCostPerEmployee,
		GrowthRate:      DefaultGrowthRate,
		ForecastPeriods: DefaultForecastPeriods,
	}
}

// Simulate applies s to the cost base of k.
//
//	simulated_cost = cost * (1 + marketing_increase/100) + additional_employees * cost_per_employee
func (m Model) Simulate(k KPIs, s Scenario) Simulation {
	simCost := k.Cost*(1+s.MarketingIncrease/100) + float64(s.AdditionalEmployees)*m.CostPerEmployee
	simROI := ratio(k.Revenue-simCost, simCost)

	return Simulation{
		Scenario:      s,
		SimulatedCost: simCost,
		SimulatedROI:  simROI,
		ROIDelta:      simROI - k.ROI,
	}
}

// Forecast projects revenue with linear growth per period and ROI against
// the simulated cost. periods <= 0 uses the model default.
func (m Model) Forecast(k KPIs, sim Simulation, periods int) []ForecastPoint {
	if periods <= 0 {
		periods = m.ForecastPeriods
	}

	points := make([]ForecastPoint, periods)
	for i := range points {
		revenue := k.Revenue * (1 + m.GrowthRate*float64(i+1))
		points[i] = ForecastPoint{
			Period:  i + 1,
			Revenue: revenue,
			ROI:     ratio(revenue-sim.SimulatedCost, sim.SimulatedCost),
		}
	}
	return points
}

// Analyze computes the full report for totals under scenario s
func (m Model) Analyze(t dataset.Totals, s Scenario) Report {
	k := Compute(t)
	sim := m.Simulate(k, s)

	return Report{
		Totals:     t,
		KPIs:       k,
		Simulation: sim,
		Forecast:   m.Forecast(k, sim, 0),
		Insights:   Insights(k, sim),
	}
}

// Simulate applies s using the default model
func Simulate(k KPIs, s Scenario) Simulation {
	return DefaultModel().Simulate(k, s)
}

// Forecast projects using the default model
func Forecast(k KPIs, sim Simulation, periods int) []ForecastPoint {
	return DefaultModel().Forecast(k, sim, periods)
}

// Analyze computes the full report using the default model
func Analyze(t dataset.Totals, s Scenario) Report {
	return DefaultModel().Analyze(t, s)
}
