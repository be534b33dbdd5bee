package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) amc.Date {
	return amc.NewDate(year, month, day)
}

func testClient(id string) amc.Client {
	hours := dec("1200")
	start := date(2025, time.January, 1)
	end := date(2025, time.December, 31)
	return amc.Client{
		ID:                amc.ClientID(id),
		ProjectName:       "Project " + id,
		ProjectSlug:       "project-" + id,
		ContactEmail:      id + "@example.com",
		CostForYear:       dec("120000.50"),
		HoursAssignedYear: &hours,
		PaymentTerm:       amc.TermMonthly,
		AMCStartDate:      &start,
		AMCEndDate:        &end,
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestClient_SaveAndGet_RoundTripsDecimalsAndDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveClient(ctx, testClient("acme")))

	got, err := store.GetClient(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Project acme", got.ProjectName)
	assert.True(t, dec("120000.50").Equal(got.CostForYear))
	require.NotNil(t, got.HoursAssignedYear)
	assert.True(t, dec("1200").Equal(*got.HoursAssignedYear))
	assert.Equal(t, amc.TermMonthly, got.PaymentTerm)
	assert.Equal(t, "2025-12-31", amc.FormatOptional(got.AMCEndDate))
	assert.Nil(t, got.PrimaryPOC)
}

func TestClient_Get_Missing_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetClient(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_Save_UpdatesInPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := testClient("acme")
	require.NoError(t, store.SaveClient(ctx, c))

	c.PaymentTerm = amc.TermQuarterly
	c.HoursAssignedYear = nil
	require.NoError(t, store.SaveClient(ctx, c))

	got, err := store.GetClient(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, amc.TermQuarterly, got.PaymentTerm)
	assert.Nil(t, got.HoursAssignedYear)

	all, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClient_Save_DuplicateSlug(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testClient("a")
	b := testClient("b")
	b.ProjectSlug = a.ProjectSlug

	require.NoError(t, store.SaveClient(ctx, a))
	err := store.SaveClient(ctx, b)

	assert.True(t, errors.Is(err, sqlite.ErrDuplicate))
}

func TestClient_Save_RejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	c := testClient("bad")
	c.CostForYear = dec("-1")

	err := store.SaveClient(context.Background(), c)
	assert.True(t, amc.IsClientError(err))
}

func TestClient_Delete_CascadesRecords(t *testing.T) {
	// GIVEN: A client with a work log and a payment
	// WHEN: The client is deleted
	// THEN: Its records are gone too

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveClient(ctx, testClient("acme")))
	require.NoError(t, store.SaveWorkLog(ctx, amc.WorkLogEntry{
		ID: "w1", ClientID: "acme", Date: date(2025, time.March, 1), HoursConsumed: dec("3"),
	}))
	require.NoError(t, store.SavePayment(ctx, amc.PaymentRecord{
		ID: "p1", ClientID: "acme", PaymentDate: date(2025, time.March, 1), AmountPaid: dec("100"),
	}))

	deleted, err := store.DeleteClient(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, deleted)

	logs, err := store.WorkLogsForClient(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, logs)

	pays, err := store.PaymentsForClient(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, pays)

	deleted, err = store.DeleteClient(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, deleted)
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestAdmin_RolesAndAssignment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAdmin(ctx, sqlite.Admin{ID: "adm-1", Name: "Priya", Email: "priya@example.com"}))
	require.NoError(t, store.SaveAdmin(ctx, sqlite.Admin{ID: "adm-2", Name: "Omar", Email: "omar@example.com"}))

	primary := amc.AdminID("adm-1")
	secondary := amc.AdminID("adm-2")
	c := testClient("acme")
	c.PrimaryPOC = &primary
	c.SecondaryPOC = &secondary
	require.NoError(t, store.SaveClient(ctx, c))

	roles, err := store.AdminRoles(ctx, "adm-1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "primary", roles[0].Role)
	assert.Equal(t, amc.ClientID("acme"), roles[0].ClientID)

	require.NoError(t, store.AssignAdmin(ctx, "acme", "adm-2"))
	require.NoError(t, store.AssignAdmin(ctx, "acme", "adm-2"), "assigning twice is a no-op")

	linked, err := store.ListClientAdmins(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "Omar", linked[0].Name)

	removed, err := store.UnassignAdmin(ctx, "acme", "adm-2")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestAdmin_Delete_ClearsPointOfContact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAdmin(ctx, sqlite.Admin{ID: "adm-1", Name: "Priya", Email: "priya@example.com"}))
	primary := amc.AdminID("adm-1")
	c := testClient("acme")
	c.PrimaryPOC = &primary
	require.NoError(t, store.SaveClient(ctx, c))

	deleted, err := store.DeleteAdmin(ctx, "adm-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := store.GetClient(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.PrimaryPOC)
}

func TestAdmin_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAdmin(ctx, sqlite.Admin{ID: "a", Name: "A", Email: "same@example.com"}))
	err := store.SaveAdmin(ctx, sqlite.Admin{ID: "b", Name: "B", Email: "same@example.com"})

	assert.True(t, errors.Is(err, sqlite.ErrDuplicate))
}

// =============================================================================
// WORK LOG TESTS
// =============================================================================

func TestWorkLog_UnknownClient_ReferenceNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveWorkLog(context.Background(), amc.WorkLogEntry{
		ID: "w1", ClientID: "ghost", Date: date(2025, time.March, 1), HoursConsumed: dec("1"),
	})

	assert.True(t, errors.Is(err, sqlite.ErrReferenceNotFound))
}

func TestWorkLog_OrderedByDate_DefaultsToPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))

	require.NoError(t, store.SaveWorkLog(ctx, amc.WorkLogEntry{ID: "late", ClientID: "acme", Date: date(2025, time.May, 1), HoursConsumed: dec("2.5")}))
	require.NoError(t, store.SaveWorkLog(ctx, amc.WorkLogEntry{ID: "early", ClientID: "acme", Date: date(2025, time.April, 1), HoursConsumed: dec("1.25"), Description: "setup"}))

	logs, err := store.WorkLogsForClient(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, amc.WorkLogID("early"), logs[0].ID)
	assert.Equal(t, "setup", logs[0].Description)
	assert.Equal(t, amc.WorkPending, logs[0].Status)
	assert.True(t, amc.SumHours(logs).Equal(dec("3.75")))
}

func TestWorkLog_UpdateStatus_FollowsMachine(t *testing.T) {
	// GIVEN: A pending work log
	// WHEN: Moving it to in_progress, completed, then back to pending
	// THEN: The first two persist, the last is rejected

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))
	require.NoError(t, store.SaveWorkLog(ctx, amc.WorkLogEntry{ID: "w1", ClientID: "acme", Date: date(2025, time.April, 1), HoursConsumed: dec("1")}))

	w, err := store.UpdateWorkLogStatus(ctx, "w1", amc.WorkInProgress)
	require.NoError(t, err)
	assert.Equal(t, amc.WorkInProgress, w.Status)

	w, err = store.UpdateWorkLogStatus(ctx, "w1", amc.WorkCompleted)
	require.NoError(t, err)
	assert.Equal(t, amc.WorkCompleted, w.Status)

	_, err = store.UpdateWorkLogStatus(ctx, "w1", amc.WorkPending)
	assert.True(t, amc.IsConflict(err))

	stored, err := store.GetWorkLog(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, amc.WorkCompleted, stored.Status)

	missing, err := store.UpdateWorkLogStatus(ctx, "nope", amc.WorkCompleted)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// =============================================================================
// PAYMENT TESTS
// =============================================================================

func TestPayment_Between(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))

	for i, d := range []amc.Date{date(2024, time.December, 31), date(2025, time.January, 1), date(2025, time.June, 30)} {
		require.NoError(t, store.SavePayment(ctx, amc.PaymentRecord{
			ID:          amc.PaymentID(string(rune('a' + i))),
			ClientID:    "acme",
			PaymentDate: d,
			AmountPaid:  dec("1000.10"),
			PaymentTerm: amc.TermMonthly,
		}))
	}

	ytd, err := store.PaymentsBetween(ctx, amc.StartOfYear(2025), date(2025, time.June, 30))
	require.NoError(t, err)

	assert.Len(t, ytd, 2)
	assert.True(t, amc.SumPayments(ytd).Equal(dec("2000.20")))
}

// =============================================================================
// HOUR REQUEST TESTS
// =============================================================================

func TestHourRequest_DecideOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))

	require.NoError(t, store.SaveHourRequest(ctx, sqlite.HourRequestRecord{
		HourRequest: amc.HourRequest{ID: "hr-1", ClientID: "acme", RequestedHours: dec("20")},
		Reason:      "launch week",
	}))

	pending, err := store.ListHourRequests(ctx, amc.ApprovalPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "launch week", pending[0].Reason)

	r, err := store.DecideHourRequest(ctx, "hr-1", amc.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, amc.ApprovalApproved, r.Status)
	assert.NotNil(t, r.DecidedAt)

	_, err = store.DecideHourRequest(ctx, "hr-1", amc.ApprovalRejected)
	assert.True(t, amc.IsConflict(err))

	pending, err = store.ListHourRequests(ctx, amc.ApprovalPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := store.ListHourRequests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// =============================================================================
// ATTACHMENT TESTS
// =============================================================================

func TestAttachments_SaveListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))

	require.NoError(t, store.SaveInvoice(ctx, sqlite.Invoice{
		ID: "inv-1", ClientID: "acme", InvoiceNumber: "INV-001",
		InvoiceDate: date(2025, time.February, 1), Amount: dec("10000"), FilePath: "acme/x.pdf",
	}))
	require.NoError(t, store.SaveContract(ctx, sqlite.Contract{
		ID: "con-1", ClientID: "acme", Title: "AMC 2025", ContractDate: date(2025, time.January, 1),
	}))
	require.NoError(t, store.SaveDocument(ctx, sqlite.Document{
		ID: "doc-1", ClientID: "acme", Type: sqlite.DocNDA, Title: "Mutual NDA", UploadDate: date(2025, time.January, 2),
	}))

	invoices, err := store.ListInvoices(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.True(t, dec("10000").Equal(invoices[0].Amount))
	assert.Equal(t, "acme/x.pdf", invoices[0].FilePath)

	contract, err := store.GetContract(ctx, "con-1")
	require.NoError(t, err)
	require.NotNil(t, contract)
	assert.Equal(t, "AMC 2025", contract.Title)

	docs, err := store.ListDocuments(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, sqlite.DocNDA, docs[0].Type)

	deleted, err := store.DeleteInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	missing, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDocument_RejectsUnknownType(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveDocument(context.Background(), sqlite.Document{
		ID: "d", ClientID: "acme", Type: "Memo", Title: "x", UploadDate: date(2025, time.January, 1),
	})
	assert.True(t, amc.IsClientError(err))
}

// =============================================================================
// amc.Store INTEGRATION
// =============================================================================

func TestStore_BacksReporter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))
	require.NoError(t, store.SaveWorkLog(ctx, amc.WorkLogEntry{ID: "w1", ClientID: "acme", Date: date(2025, time.March, 3), HoursConsumed: dec("85")}))
	require.NoError(t, store.SavePayment(ctx, amc.PaymentRecord{ID: "p1", ClientID: "acme", PaymentDate: date(2025, time.March, 3), AmountPaid: dec("50000")}))

	reporter := amc.NewReporter(store, amc.NewEngine(amc.DefaultPolicy()))
	report, err := reporter.ClientReport(ctx, "acme", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, dec("15").Equal(report.Utilization.HoursRemaining))
	assert.True(t, dec("70000.50").Equal(report.Financial.AmountRemaining))

	require.NoError(t, store.Reset(ctx))
	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestScan_CorruptColumnsAreReported(t *testing.T) {
	// GIVEN: A file-backed store with a client, a work log and a payment
	path := filepath.Join(t.TempDir(), "amc.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, testClient("acme")))
	require.NoError(t, store.SaveWorkLog(ctx, amc.WorkLogEntry{
		ID: "w1", ClientID: "acme", Date: date(2025, time.March, 1), HoursConsumed: dec("3"),
	}))
	require.NoError(t, store.SavePayment(ctx, amc.PaymentRecord{
		ID: "p1", ClientID: "acme", PaymentDate: date(2025, time.March, 1), AmountPaid: dec("100"),
	}))

	// WHEN: Another writer leaves unparseable values behind
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer raw.Close()
	for _, stmt := range []string{
		"UPDATE clients SET cost_for_year = 'twelve thousand' WHERE id = 'acme'",
		"UPDATE work_logs SET hours_consumed = '' WHERE id = 'w1'",
		"UPDATE payments SET payment_date = '01/03/2025' WHERE id = 'p1'",
	} {
		_, err := raw.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	// THEN: Reads fail instead of returning zero values
	_, err = store.GetClient(ctx, "acme")
	assert.ErrorIs(t, err, sqlite.ErrCorruptColumn)
	assert.ErrorContains(t, err, "cost_for_year")

	_, err = store.ListClients(ctx)
	assert.ErrorIs(t, err, sqlite.ErrCorruptColumn)

	_, err = store.WorkLogsForClient(ctx, "acme")
	assert.ErrorIs(t, err, sqlite.ErrCorruptColumn)
	assert.ErrorContains(t, err, "hours_consumed")

	_, err = store.PaymentsForClient(ctx, "acme")
	assert.ErrorIs(t, err, sqlite.ErrCorruptColumn)
	assert.ErrorContains(t, err, "payment_date")
}
