package amc

// =============================================================================
// PERIOD - Billing period boundaries
// =============================================================================

// Period is an inclusive range of days [Start, End].
//
// Examples:
//   - Monthly client anchored on Mar 15: Mar 15 - Apr 14
//   - Quarterly client without an AMC start: Jan 1 - Mar 31
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of days in the period, both ends included.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// NextPeriod returns the period following this one with the same length in months.
// Month-end starts are clamped like Date.AddMonths.
func (p Period) NextPeriod(term PaymentTerm) Period {
	months := term.Months()
	start := p.End.AddDays(1)
	return Period{Start: start, End: start.AddMonths(months).AddDays(-1)}
}

// =============================================================================
// BILLING PERIOD CALCULATOR
// =============================================================================

// BillingPeriodFor returns the billing period of term that contains asOf.
// Periods are anchored on the AMC start date when given and on January 1 of
// asOf's year otherwise.
func BillingPeriodFor(term PaymentTerm, anchor *Date, asOf Date) (Period, error) {
	months := term.Months()
	if months == 0 {
		return Period{}, &UnrecognizedTermError{Term: term}
	}

	a := StartOfYear(asOf.Year())
	if anchor != nil {
		a = *anchor
	}

	// Months from the anchor to the last anchor day on or before asOf.
	elapsed := (asOf.Year()-a.Year())*12 + int(asOf.Month()) - int(a.Month())
	if asOf.Before(a.AddMonths(elapsed)) {
		elapsed--
	}
	k := floorDiv(elapsed, months)

	return Period{
		Start: a.AddMonths(k * months),
		End:   a.AddMonths((k + 1) * months).AddDays(-1),
	}, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FilterWorkLogs keeps the logs dated within p. The engine itself always
// works lifetime-to-date; period scoping is an explicit caller choice.
func FilterWorkLogs(logs []WorkLogEntry, p Period) []WorkLogEntry {
	out := make([]WorkLogEntry, 0, len(logs))
	for _, l := range logs {
		if p.Contains(l.Date) {
			out = append(out, l)
		}
	}
	return out
}

// FilterPayments keeps the payments dated within p.
func FilterPayments(payments []PaymentRecord, p Period) []PaymentRecord {
	out := make([]PaymentRecord, 0, len(payments))
	for _, pay := range payments {
		if p.Contains(pay.PaymentDate) {
			out = append(out, pay)
		}
	}
	return out
}
