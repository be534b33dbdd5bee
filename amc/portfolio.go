package amc

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PORTFOLIO - Dashboard roll-ups across clients
// =============================================================================

// ClientResult is the per-client input to Aggregate.
type ClientResult struct {
	ClientID    ClientID
	Financial   FinancialResult
	Utilization UtilizationResult

	// Risk is optional; when present it feeds AtRiskCount.
	Risk *RiskVerdict
}

// PortfolioSummary totals per-client results.
type PortfolioSummary struct {
	TotalPaid      decimal.Decimal
	TotalConsumed  decimal.Decimal
	TotalRemaining decimal.Decimal
	ClientCount    int
	AtRiskCount    int
}

// Aggregate sums per-client results component-wise. TotalRemaining is the sum
// of each client's HoursRemaining as given, so any clamping a caller applied
// per client is preserved. Empty input yields an all-zero summary.
func Aggregate(perClient []ClientResult) PortfolioSummary {
	s := PortfolioSummary{
		TotalPaid:      decimal.Zero,
		TotalConsumed:  decimal.Zero,
		TotalRemaining: decimal.Zero,
	}
	for _, r := range perClient {
		s.TotalPaid = s.TotalPaid.Add(r.Financial.AmountPaid)
		s.TotalConsumed = s.TotalConsumed.Add(r.Utilization.HoursConsumed)
		s.TotalRemaining = s.TotalRemaining.Add(r.Utilization.HoursRemaining)
		s.ClientCount++
		if r.Risk != nil && r.Risk.IsAtRisk {
			s.AtRiskCount++
		}
	}
	return s
}
