package amc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-portal/amc"
)

func datePtr(year int, month time.Month, day int) *amc.Date {
	d := amc.NewDate(year, month, day)
	return &d
}

func TestBillingPeriodFor(t *testing.T) {
	cases := []struct {
		name   string
		term   amc.PaymentTerm
		anchor *amc.Date
		asOf   amc.Date
		start  string
		end    string
	}{
		{"monthly mid-month anchor", amc.TermMonthly, datePtr(2025, time.March, 15), amc.NewDate(2025, time.April, 20), "2025-04-15", "2025-05-14"},
		{"monthly before anchor day", amc.TermMonthly, datePtr(2025, time.March, 15), amc.NewDate(2025, time.April, 10), "2025-03-15", "2025-04-14"},
		{"quarterly calendar year", amc.TermQuarterly, nil, amc.NewDate(2025, time.February, 10), "2025-01-01", "2025-03-31"},
		{"half-yearly second half", amc.TermHalfYearly, datePtr(2025, time.January, 1), amc.NewDate(2025, time.July, 1), "2025-07-01", "2025-12-31"},
		{"yearly across calendar years", amc.TermYearly, datePtr(2024, time.July, 1), amc.NewDate(2025, time.March, 1), "2024-07-01", "2025-06-30"},
		{"asOf before anchor", amc.TermMonthly, datePtr(2025, time.July, 1), amc.NewDate(2025, time.May, 20), "2025-05-01", "2025-05-31"},
		{"month-end anchor on clamped day", amc.TermMonthly, datePtr(2025, time.January, 31), amc.NewDate(2025, time.February, 28), "2025-02-28", "2025-03-30"},
		{"month-end anchor early March", amc.TermMonthly, datePtr(2025, time.January, 31), amc.NewDate(2025, time.March, 1), "2025-02-28", "2025-03-30"},
		{"month-end anchor Mar 2", amc.TermMonthly, datePtr(2025, time.January, 31), amc.NewDate(2025, time.March, 2), "2025-02-28", "2025-03-30"},
		{"month-end anchor Nov 30", amc.TermMonthly, datePtr(2025, time.January, 31), amc.NewDate(2025, time.November, 30), "2025-11-30", "2025-12-30"},
		{"Aug 31 anchor in February", amc.TermMonthly, datePtr(2024, time.August, 31), amc.NewDate(2025, time.February, 28), "2025-02-28", "2025-03-30"},
		{"Aug 31 anchor Mar 1", amc.TermMonthly, datePtr(2024, time.August, 31), amc.NewDate(2025, time.March, 1), "2025-02-28", "2025-03-30"},
		{"Aug 31 anchor Mar 2 quarterly", amc.TermQuarterly, datePtr(2024, time.August, 31), amc.NewDate(2025, time.March, 2), "2025-02-28", "2025-05-30"},
		{"Aug 31 anchor Nov 30", amc.TermMonthly, datePtr(2024, time.August, 31), amc.NewDate(2025, time.November, 30), "2025-11-30", "2025-12-30"},
		{"leap-day anchor yearly", amc.TermYearly, datePtr(2024, time.February, 29), amc.NewDate(2025, time.March, 1), "2025-02-28", "2026-02-27"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := amc.BillingPeriodFor(c.term, c.anchor, c.asOf)
			require.NoError(t, err)

			assert.Equal(t, c.start, p.Start.String())
			assert.Equal(t, c.end, p.End.String())
			assert.True(t, p.Contains(c.asOf))
		})
	}
}

func TestBillingPeriodFor_MonthEndAnchorCoversEveryDay(t *testing.T) {
	// GIVEN: A monthly contract starting on the last day of January
	anchor := datePtr(2025, time.January, 31)
	var prev amc.Period

	// WHEN: Walking every day of the year
	for d := *anchor; d.Year() == 2025; d = d.AddDays(1) {
		p, err := amc.BillingPeriodFor(amc.TermMonthly, anchor, d)
		require.NoError(t, err)

		// THEN: The period holds the day and follows the previous one without gaps
		require.True(t, p.Contains(d), "%s not in %s", d, p)
		if !prev.Start.IsZero() && !p.Start.Equal(prev.Start) {
			require.Equal(t, prev.End.AddDays(1), p.Start, "gap after %s", prev)
		}
		prev = p
	}
}

func TestDate_AddMonthsClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		from   amc.Date
		months int
		want   string
	}{
		{amc.NewDate(2025, time.January, 31), 1, "2025-02-28"},
		{amc.NewDate(2024, time.January, 31), 1, "2024-02-29"},
		{amc.NewDate(2025, time.August, 31), 3, "2025-11-30"},
		{amc.NewDate(2025, time.March, 31), -1, "2025-02-28"},
		{amc.NewDate(2025, time.January, 15), 13, "2026-02-15"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.from.AddMonths(c.months).String(), "%s %+d", c.from, c.months)
	}

	assert.Equal(t, "2025-02-28", amc.NewDate(2024, time.February, 29).AddYears(1).String())
	assert.Equal(t, "2024-02-29", amc.EndOfMonth(2024, time.February).String())
}

func TestBillingPeriodFor_UnknownTerm(t *testing.T) {
	_, err := amc.BillingPeriodFor(amc.PaymentTerm("Weekly"), nil, amc.NewDate(2025, time.May, 1))
	assert.ErrorIs(t, err, amc.ErrUnrecognizedPaymentTerm)
}

func TestPeriod_DaysAndNext(t *testing.T) {
	p, err := amc.BillingPeriodFor(amc.TermQuarterly, nil, amc.NewDate(2025, time.February, 10))
	require.NoError(t, err)

	assert.Equal(t, 90, p.Days())
	assert.Equal(t, "[2025-01-01, 2025-03-31]", p.String())

	next := p.NextPeriod(amc.TermQuarterly)
	assert.Equal(t, "2025-04-01", next.Start.String())
	assert.Equal(t, "2025-06-30", next.End.String())
}

func TestFilterByPeriod(t *testing.T) {
	p := amc.Period{Start: amc.NewDate(2025, time.April, 1), End: amc.NewDate(2025, time.April, 30)}

	entries := []amc.WorkLogEntry{
		{ID: "before", Date: amc.NewDate(2025, time.March, 31), HoursConsumed: dec("1")},
		{ID: "first", Date: amc.NewDate(2025, time.April, 1), HoursConsumed: dec("2")},
		{ID: "last", Date: amc.NewDate(2025, time.April, 30), HoursConsumed: dec("3")},
		{ID: "after", Date: amc.NewDate(2025, time.May, 1), HoursConsumed: dec("4")},
	}
	kept := amc.FilterWorkLogs(entries, p)
	require.Len(t, kept, 2)
	assert.Equal(t, amc.WorkLogID("first"), kept[0].ID)
	assert.Equal(t, amc.WorkLogID("last"), kept[1].ID)

	pays := []amc.PaymentRecord{
		{ID: "in", PaymentDate: amc.NewDate(2025, time.April, 15), AmountPaid: dec("100")},
		{ID: "out", PaymentDate: amc.NewDate(2025, time.June, 1), AmountPaid: dec("100")},
	}
	keptPays := amc.FilterPayments(pays, p)
	require.Len(t, keptPays, 1)
	assert.Equal(t, amc.PaymentID("in"), keptPays[0].ID)
}
