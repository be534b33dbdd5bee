package amc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/amc/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestReporter(t *testing.T) (*amc.Reporter, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return amc.NewReporter(mem, amc.NewEngine(amc.DefaultPolicy())), mem
}

func seedClient(t *testing.T, mem *store.Memory, c amc.Client) {
	t.Helper()
	require.NoError(t, mem.PutClient(context.Background(), c))
}

func seedLog(t *testing.T, mem *store.Memory, id string, client amc.ClientID, date amc.Date, hours string) {
	t.Helper()
	require.NoError(t, mem.AddWorkLog(context.Background(), amc.WorkLogEntry{
		ID:            amc.WorkLogID(id),
		ClientID:      client,
		Date:          date,
		HoursConsumed: dec(hours),
		Status:        amc.WorkCompleted,
	}))
}

func seedPayment(t *testing.T, mem *store.Memory, id string, client amc.ClientID, date amc.Date, amount string) {
	t.Helper()
	require.NoError(t, mem.AddPayment(context.Background(), amc.PaymentRecord{
		ID:          amc.PaymentID(id),
		ClientID:    client,
		PaymentDate: date,
		AmountPaid:  dec(amount),
		PaymentTerm: amc.TermMonthly,
	}))
}

// =============================================================================
// CLIENT REPORT TESTS
// =============================================================================

func TestReporter_ClientReport_OnlyOwnRecords(t *testing.T) {
	// GIVEN: Two clients with their own logs and payments
	// WHEN: Reporting on one of them
	// THEN: The other client's records do not leak in

	reporter, mem := newTestReporter(t)
	ctx := context.Background()

	seedClient(t, mem, amc.Client{ID: "a", ProjectName: "A", PaymentTerm: amc.TermMonthly, HoursAssignedYear: hoursPtr("1200"), CostForYear: dec("1000")})
	seedClient(t, mem, amc.Client{ID: "b", ProjectName: "B", PaymentTerm: amc.TermMonthly, HoursAssignedYear: hoursPtr("1200"), CostForYear: dec("1000")})

	seedLog(t, mem, "l1", "a", amc.NewDate(2025, time.February, 3), "10")
	seedLog(t, mem, "l2", "b", amc.NewDate(2025, time.February, 3), "99")
	seedPayment(t, mem, "p1", "a", amc.NewDate(2025, time.January, 10), "400")
	seedPayment(t, mem, "p2", "b", amc.NewDate(2025, time.January, 10), "999")

	report, err := reporter.ClientReport(ctx, "a", march1)
	require.NoError(t, err)

	assertDecimal(t, "10", report.Utilization.HoursConsumed)
	assertDecimal(t, "400", report.Financial.AmountPaid)
	assertDecimal(t, "600", report.Financial.AmountRemaining)
}

func TestReporter_ClientReport_NotFound(t *testing.T) {
	reporter, _ := newTestReporter(t)

	_, err := reporter.ClientReport(context.Background(), "ghost", march1)

	assert.True(t, amc.IsNotFound(err))
	var nf *amc.ClientNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, amc.ClientID("ghost"), nf.ClientID)
}

func TestReporter_ScopedClientReport_PeriodFiltersRecords(t *testing.T) {
	// GIVEN: A Monthly client anchored on Jan 15 with logs in two periods
	// WHEN: Reporting for Mar 1 with period scope
	// THEN: Only the Feb 15 - Mar 14 records count

	reporter, mem := newTestReporter(t)
	ctx := context.Background()

	seedClient(t, mem, amc.Client{
		ID:                "a",
		PaymentTerm:       amc.TermMonthly,
		HoursAssignedYear: hoursPtr("1200"),
		CostForYear:       dec("1200"),
		AMCStartDate:      datePtr(2025, time.January, 15),
	})
	seedLog(t, mem, "old", "a", amc.NewDate(2025, time.February, 10), "40")
	seedLog(t, mem, "cur", "a", amc.NewDate(2025, time.February, 20), "30")
	seedPayment(t, mem, "p-old", "a", amc.NewDate(2025, time.January, 20), "100")
	seedPayment(t, mem, "p-cur", "a", amc.NewDate(2025, time.March, 1), "100")

	scoped, err := reporter.ScopedClientReport(ctx, "a", march1, amc.ScopePeriod)
	require.NoError(t, err)

	require.NotNil(t, scoped.Period)
	assert.Equal(t, "2025-02-15", scoped.Period.Start.String())
	assert.Equal(t, "2025-03-14", scoped.Period.End.String())
	assertDecimal(t, "30", scoped.Utilization.HoursConsumed)
	assertDecimal(t, "70", scoped.Utilization.HoursRemaining)
	assertDecimal(t, "100", scoped.Financial.AmountPaid)

	lifetime, err := reporter.ScopedClientReport(ctx, "a", march1, amc.ScopeLifetime)
	require.NoError(t, err)
	assert.Nil(t, lifetime.Period)
	assertDecimal(t, "70", lifetime.Utilization.HoursConsumed)
	assertDecimal(t, "200", lifetime.Financial.AmountPaid)
}

func TestParseScope(t *testing.T) {
	s, err := amc.ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, amc.ScopeLifetime, s)

	s, err = amc.ParseScope("period")
	require.NoError(t, err)
	assert.Equal(t, amc.ScopePeriod, s)

	_, err = amc.ParseScope("decade")
	assert.True(t, amc.IsClientError(err))
}

// =============================================================================
// PORTFOLIO TESTS
// =============================================================================

func TestReporter_Portfolio_SkipsBadClients(t *testing.T) {
	// GIVEN: Two healthy clients and one with an unknown payment term
	// WHEN: Building the portfolio
	// THEN: The bad client is skipped, the others are totalled

	reporter, mem := newTestReporter(t)
	ctx := context.Background()

	seedClient(t, mem, amc.Client{ID: "a", ProjectName: "Alpha", PaymentTerm: amc.TermMonthly, HoursAssignedYear: hoursPtr("1200"), CostForYear: dec("1000")})
	seedClient(t, mem, amc.Client{ID: "b", ProjectName: "Beta", PaymentTerm: amc.TermYearly, HoursAssignedYear: hoursPtr("100"), CostForYear: dec("500")})
	seedClient(t, mem, amc.Client{ID: "c", ProjectName: "Gamma", PaymentTerm: amc.PaymentTerm("Weekly"), CostForYear: dec("10")})

	seedLog(t, mem, "l1", "a", amc.NewDate(2025, time.February, 1), "20")
	seedLog(t, mem, "l2", "b", amc.NewDate(2025, time.February, 1), "95")
	seedPayment(t, mem, "p1", "a", amc.NewDate(2025, time.January, 5), "250")
	seedPayment(t, mem, "p2", "b", amc.NewDate(2025, time.January, 5), "500")

	p, err := reporter.Portfolio(ctx, march1)
	require.NoError(t, err)

	require.Len(t, p.Clients, 2)
	assert.Equal(t, amc.ClientID("a"), p.Clients[0].Client.ID)
	assert.Equal(t, amc.ClientID("b"), p.Clients[1].Client.ID)

	require.Len(t, p.Skipped, 1)
	assert.Equal(t, amc.ClientID("c"), p.Skipped[0].ClientID)
	assert.ErrorIs(t, p.Skipped[0].Err, amc.ErrUnrecognizedPaymentTerm)

	assertDecimal(t, "750", p.Summary.TotalPaid)
	assertDecimal(t, "115", p.Summary.TotalConsumed)
	assertDecimal(t, "85", p.Summary.TotalRemaining) // 80 + 5
	assert.Equal(t, 2, p.Summary.ClientCount)
	assert.Equal(t, 1, p.Summary.AtRiskCount) // b has 5% left
}

func TestReporter_Portfolio_Empty(t *testing.T) {
	reporter, _ := newTestReporter(t)

	p, err := reporter.Portfolio(context.Background(), march1)
	require.NoError(t, err)

	assert.Empty(t, p.Clients)
	assert.Equal(t, 0, p.Summary.ClientCount)
	assert.True(t, p.Summary.TotalPaid.IsZero())
}

func TestReporter_Portfolio_CancelledContext(t *testing.T) {
	reporter, mem := newTestReporter(t)
	seedClient(t, mem, amc.Client{ID: "a", PaymentTerm: amc.TermMonthly})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reporter.Portfolio(ctx, march1)
	assert.ErrorIs(t, err, context.Canceled)
}
