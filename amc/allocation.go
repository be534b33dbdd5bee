/*
allocation.go - Term allocator

PURPOSE:
  Pro-rates a client's yearly hour budget into the budget of one billing
  period. A Monthly client with 1200 hours/year may use 100 hours per month;
  a Quarterly client with the same budget may use 300 per quarter.

DIVISOR TABLE:
  Monthly      12
  Quarterly     4
  Half-Yearly   2
  Yearly        1

  Every breakdown value is the yearly budget divided by its divisor, so the
  breakdown is linear in the budget and PerMonth*12 == PerYear.

ERRORS:
  - Negative budget: InvalidAllocationError
  - Unknown term: UnrecognizedTermError, unless the policy opts into the
    lenient monthly fallback

SEE ALSO:
  - policy.go: DefaultAnnualHours substitution happens before allocation
  - utilization.go: Consumes HourAllocation
*/
package amc

import (
	"github.com/shopspring/decimal"
)

// HourAllocation is the yearly budget broken down per billing period.
type HourAllocation struct {
	PerMonth    decimal.Decimal
	PerQuarter  decimal.Decimal
	PerHalfYear decimal.Decimal
	PerYear     decimal.Decimal

	// Term is the payment term the allocation was computed for.
	Term PaymentTerm

	// Active is the breakdown value for Term.
	Active decimal.Decimal
}

// For returns the breakdown value for a term, false if the term is unknown.
func (a HourAllocation) For(term PaymentTerm) (decimal.Decimal, bool) {
	switch term {
	case TermMonthly:
		return a.PerMonth, true
	case TermQuarterly:
		return a.PerQuarter, true
	case TermHalfYearly:
		return a.PerHalfYear, true
	case TermYearly:
		return a.PerYear, true
	default:
		return decimal.Zero, false
	}
}

// breakdown divides the yearly budget by the divisor table.
func breakdown(hoursAssignedYear decimal.Decimal) HourAllocation {
	per := func(term PaymentTerm) decimal.Decimal {
		d, _ := term.Divisor()
		return hoursAssignedYear.Div(decimal.NewFromInt(d))
	}
	return HourAllocation{
		PerMonth:    per(TermMonthly),
		PerQuarter:  per(TermQuarterly),
		PerHalfYear: per(TermHalfYearly),
		PerYear:     hoursAssignedYear,
	}
}

// Allocate computes the allocation with the strict default policy.
func Allocate(hoursAssignedYear decimal.Decimal, term PaymentTerm) (HourAllocation, error) {
	return allocate(hoursAssignedYear, term, false)
}

// Allocate computes the allocation honoring the engine's payment-term policy.
func (e *Engine) Allocate(hoursAssignedYear decimal.Decimal, term PaymentTerm) (HourAllocation, error) {
	return allocate(hoursAssignedYear, term, e.Policy.LenientPaymentTerms)
}

func allocate(hoursAssignedYear decimal.Decimal, term PaymentTerm, lenient bool) (HourAllocation, error) {
	if hoursAssignedYear.IsNegative() {
		return HourAllocation{}, &InvalidAllocationError{HoursAssignedYear: hoursAssignedYear}
	}

	a := breakdown(hoursAssignedYear)
	a.Term = term

	active, ok := a.For(term)
	if !ok {
		if !lenient {
			return HourAllocation{}, &UnrecognizedTermError{Term: term}
		}
		active = a.PerMonth
	}
	a.Active = active
	return a, nil
}

// activeFor resolves the allocated hours for a term under the given policy.
func activeFor(a HourAllocation, term PaymentTerm, lenient bool) (decimal.Decimal, error) {
	v, ok := a.For(term)
	if ok {
		return v, nil
	}
	if lenient {
		return a.PerMonth, nil
	}
	return decimal.Zero, &UnrecognizedTermError{Term: term}
}
