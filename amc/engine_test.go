package amc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-portal/amc"
)

func hoursPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// =============================================================================
// END-TO-END SCENARIO
// =============================================================================

func TestEngineEvaluate_ExpiringClientWithHealthyHours(t *testing.T) {
	// GIVEN: A Monthly client with 1200 hours/year and a 120000 contract
	//        85 hours logged, 50000 paid, AMC ending 45 days from asOf
	// WHEN: Evaluating with the default policy
	// THEN: 100 allocated, 15 remaining, 70000 due, expiring soon but not low

	asOf := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	end := amc.DateOf(asOf).AddDays(45)

	snap := amc.Snapshot{
		Client: amc.Client{
			ID:                "acme",
			ProjectName:       "Acme Storefront",
			CostForYear:       dec("120000"),
			HoursAssignedYear: hoursPtr("1200"),
			PaymentTerm:       amc.TermMonthly,
			AMCEndDate:        &end,
		},
		WorkLogs: logs("50", "35"),
		Payments: payments("20000", "30000"),
	}

	report, err := amc.NewEngine(amc.DefaultPolicy()).Evaluate(snap, asOf)
	require.NoError(t, err)

	assert.Equal(t, amc.SourceConfigured, report.HoursSource)
	assertDecimal(t, "100", report.Allocation.PerMonth)

	assertDecimal(t, "85", report.Utilization.HoursConsumed)
	assertDecimal(t, "15", report.Utilization.HoursRemaining)
	assertDecimal(t, "0.85", report.Utilization.UtilizationRatio)

	assertDecimal(t, "50000", report.Financial.AmountPaid)
	assertDecimal(t, "70000", report.Financial.AmountRemaining)

	assert.True(t, report.Risk.IsExpiringSoon)
	assert.Equal(t, 45, *report.Risk.DaysUntilExpiry)
	assertDecimal(t, "0.15", report.Risk.HoursRemainingRatio)
	assert.False(t, report.Risk.IsLowHours)
	assert.True(t, report.Risk.IsAtRisk)
	assert.Equal(t, amc.SeverityWarning, report.Risk.Severity)
}

func TestEngineEvaluate_MissingHours_UsesDefaultAnnualHours(t *testing.T) {
	snap := amc.Snapshot{
		Client: amc.Client{ID: "c1", PaymentTerm: amc.TermQuarterly, CostForYear: dec("1000")},
	}

	report, err := amc.NewEngine(amc.DefaultPolicy()).Evaluate(snap, march1)
	require.NoError(t, err)

	assert.Equal(t, amc.SourceDefault, report.HoursSource)
	assertDecimal(t, "2000", report.Allocation.PerYear)
	assertDecimal(t, "500", report.Utilization.HoursAllocated)
}

func TestEngineEvaluate_InvalidClient(t *testing.T) {
	snap := amc.Snapshot{
		Client: amc.Client{ID: "c1", PaymentTerm: amc.TermMonthly, CostForYear: dec("-5")},
	}

	_, err := amc.NewEngine(amc.DefaultPolicy()).Evaluate(snap, march1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, amc.ErrInvalidRecord))

	var recErr *amc.RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, "cost_for_year", recErr.Field)
}

func TestEngineEvaluate_UnknownTerm(t *testing.T) {
	snap := amc.Snapshot{
		Client: amc.Client{ID: "c1", PaymentTerm: amc.PaymentTerm("Weekly"), HoursAssignedYear: hoursPtr("1200")},
	}

	_, err := amc.NewEngine(amc.DefaultPolicy()).Evaluate(snap, march1)
	assert.True(t, errors.Is(err, amc.ErrUnrecognizedPaymentTerm))

	lenient := amc.DefaultPolicy()
	lenient.LenientPaymentTerms = true
	report, err := amc.NewEngine(lenient).Evaluate(snap, march1)
	require.NoError(t, err)
	assertDecimal(t, "100", report.Utilization.HoursAllocated)
}

func TestClientReport_Result(t *testing.T) {
	snap := amc.Snapshot{
		Client:   amc.Client{ID: "c1", PaymentTerm: amc.TermYearly, HoursAssignedYear: hoursPtr("10")},
		WorkLogs: logs("9.5"),
	}

	report, err := amc.NewEngine(amc.DefaultPolicy()).Evaluate(snap, march1)
	require.NoError(t, err)

	r := report.Result()
	assert.Equal(t, amc.ClientID("c1"), r.ClientID)
	require.NotNil(t, r.Risk)
	assert.True(t, r.Risk.IsLowHours)
	assertDecimal(t, "0.5", r.Utilization.HoursRemaining)
}

// =============================================================================
// DAY ARITHMETIC
// =============================================================================

func TestDaysUntil_Ceiling(t *testing.T) {
	end := amc.NewDate(2025, time.March, 11)

	assert.Equal(t, 10, amc.DaysUntil(end, march1))
	assert.Equal(t, 10, amc.DaysUntil(end, march1.Add(time.Hour)))
	assert.Equal(t, 1, amc.DaysUntil(end, end.Time.Add(-time.Minute)))
	assert.Equal(t, 0, amc.DaysUntil(end, end.Time))
	assert.Equal(t, 0, amc.DaysUntil(end, end.Time.Add(time.Hour)))
	assert.Equal(t, -1, amc.DaysUntil(end, end.Time.Add(25*time.Hour)))
}

func TestParseOptionalDate(t *testing.T) {
	d, err := amc.ParseOptionalDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = amc.ParseOptionalDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", amc.FormatOptional(d))

	_, err = amc.ParseOptionalDate("28/02/2025")
	assert.Error(t, err)
}
