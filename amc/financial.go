package amc

import (
	"github.com/shopspring/decimal"
)

// FinancialResult compares payments received against the yearly cost.
// AmountRemaining is negative when the client overpaid.
type FinancialResult struct {
	CostForYear     decimal.Decimal
	AmountPaid      decimal.Decimal
	AmountRemaining decimal.Decimal

	// PaidRatio is AmountPaid/CostForYear, zero when no cost is set.
	PaidRatio decimal.Decimal
}

// SumPayments totals AmountPaid across records. Empty input sums to zero.
func SumPayments(payments []PaymentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}

// ComputeFinancials reconciles payments against the contracted yearly cost.
// Payments must already be scoped to one client.
func ComputeFinancials(payments []PaymentRecord, costForYear decimal.Decimal) FinancialResult {
	paid := SumPayments(payments)

	ratio := decimal.Zero
	if costForYear.IsPositive() {
		ratio = paid.Div(costForYear)
	}

	return FinancialResult{
		CostForYear:     costForYear,
		AmountPaid:      paid,
		AmountRemaining: costForYear.Sub(paid),
		PaidRatio:       ratio,
	}
}
