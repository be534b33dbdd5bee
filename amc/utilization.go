package amc

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// UTILIZATION - Consumed vs allocated hours
// =============================================================================

// UtilizationResult compares consumed hours against the period allocation.
// HoursRemaining may be negative: over-consumption is reported, not hidden.
type UtilizationResult struct {
	HoursConsumed    decimal.Decimal
	HoursAllocated   decimal.Decimal
	HoursRemaining   decimal.Decimal
	UtilizationRatio decimal.Decimal
}

// IsOverConsumed reports whether more hours were used than allocated.
func (u UtilizationResult) IsOverConsumed() bool {
	return u.HoursRemaining.IsNegative()
}

// Clamped returns a copy with HoursRemaining floored at zero, for display.
func (u UtilizationResult) Clamped() UtilizationResult {
	if u.HoursRemaining.IsNegative() {
		u.HoursRemaining = decimal.Zero
	}
	return u
}

// SumHours totals HoursConsumed across entries. Empty input sums to zero.
func SumHours(logs []WorkLogEntry) decimal.Decimal {
	total := decimal.Zero
	for _, l := range logs {
		total = total.Add(l.HoursConsumed)
	}
	return total
}

// ComputeUtilization sums the work logs against the allocation with the
// strict default policy. Logs must already be scoped to one client.
func ComputeUtilization(logs []WorkLogEntry, allocation HourAllocation, term PaymentTerm) (UtilizationResult, error) {
	return computeUtilization(logs, allocation, term, false)
}

// ComputeUtilization honors the engine's payment-term policy.
func (e *Engine) ComputeUtilization(logs []WorkLogEntry, allocation HourAllocation, term PaymentTerm) (UtilizationResult, error) {
	return computeUtilization(logs, allocation, term, e.Policy.LenientPaymentTerms)
}

func computeUtilization(logs []WorkLogEntry, allocation HourAllocation, term PaymentTerm, lenient bool) (UtilizationResult, error) {
	allocated, err := activeFor(allocation, term, lenient)
	if err != nil {
		return UtilizationResult{}, err
	}

	consumed := SumHours(logs)

	ratio := decimal.Zero
	if allocated.IsPositive() {
		ratio = consumed.Div(allocated)
	}

	return UtilizationResult{
		HoursConsumed:    consumed,
		HoursAllocated:   allocated,
		HoursRemaining:   allocated.Sub(consumed),
		UtilizationRatio: ratio,
	}, nil
}
