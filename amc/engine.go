package amc

import (
	"time"
)

// =============================================================================
// ENGINE - Policy-bound entry point
// =============================================================================

// Engine applies a Policy to the allocator, calculators and classifier.
// It holds no state besides the policy and is safe for concurrent use.
type Engine struct {
	Policy Policy
}

func NewEngine(p Policy) *Engine {
	return &Engine{Policy: p}
}

// ClientReport is everything derived for one client at one instant.
type ClientReport struct {
	Client      Client
	HoursSource HourAllocationSource
	Allocation  HourAllocation
	Utilization UtilizationResult
	Financial   FinancialResult
	Risk        RiskVerdict
}

// HourAllocationSource tells the presentation layer where the yearly budget
// came from.
type HourAllocationSource string

const (
	SourceConfigured HourAllocationSource = "configured"
	SourceDefault    HourAllocationSource = "default"
)

// Result projects the report onto the aggregator input.
func (r ClientReport) Result() ClientResult {
	risk := r.Risk
	return ClientResult{
		ClientID:    r.Client.ID,
		Financial:   r.Financial,
		Utilization: r.Utilization,
		Risk:        &risk,
	}
}

// Evaluate runs the full pipeline for one snapshot:
//
//	annual hours -> allocation -> utilization -> financials -> risk
func (e *Engine) Evaluate(s Snapshot, asOf time.Time) (ClientReport, error) {
	if err := s.Client.Validate(); err != nil {
		return ClientReport{}, err
	}

	source := SourceConfigured
	if s.Client.HoursAssignedYear == nil {
		source = SourceDefault
	}
	hours := e.Policy.AnnualHours(s.Client)

	allocation, err := e.Allocate(hours, s.Client.PaymentTerm)
	if err != nil {
		return ClientReport{}, err
	}

	utilization, err := e.ComputeUtilization(s.WorkLogs, allocation, s.Client.PaymentTerm)
	if err != nil {
		return ClientReport{}, err
	}

	return ClientReport{
		Client:      s.Client,
		HoursSource: source,
		Allocation:  allocation,
		Utilization: utilization,
		Financial:   ComputeFinancials(s.Payments, s.Client.CostForYear),
		Risk:        e.ClassifyRisk(s.Client, utilization, asOf),
	}, nil
}
