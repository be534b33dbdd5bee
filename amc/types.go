/*
Package amc provides the contract-health computation engine.

PURPOSE:
  This package derives everything the portal shows about an Annual
  Maintenance Contract from raw records: how many hours a billing period
  allows, how many were consumed, how much of the yearly cost has been
  paid, and whether the contract is about to expire or run dry.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client: The contract holder with its yearly cost, hour budget and cadence
  - WorkLogEntry: Hours consumed on a client's behalf
  - PaymentRecord: Money received from a client
  - PaymentTerm: Billing cadence that pro-rates the yearly hour budget
  - Identifiers: Type-safe IDs for clients, admins and records

DESIGN PRINCIPLES:
  1. Purity: Every computation is a function of its inputs. No clock, no I/O.
  2. Precision: Hours and currency use decimal.Decimal, never float64
  3. Strictness: Bad inputs (negative budgets, unknown terms) are errors,
     not silently repaired values
  4. Snapshots in, results out: the engine never mutates its inputs

USAGE:
  engine := amc.NewEngine(amc.DefaultPolicy())
  report, err := engine.Evaluate(amc.Snapshot{
      Client:   client,
      WorkLogs: logs,
      Payments: payments,
  }, time.Now())

SEE ALSO:
  - allocation.go: Term allocator
  - utilization.go: Consumed vs allocated hours
  - financial.go: Paid vs contracted cost
  - risk.go: Expiry and low-hours classification
  - portfolio.go: Roll-ups for the dashboard
*/
package amc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID string
type AdminID string
type WorkLogID string
type PaymentID string
type HourRequestID string

// =============================================================================
// PAYMENT TERM - Billing cadence
// =============================================================================

type PaymentTerm string

const (
	TermMonthly    PaymentTerm = "Monthly"
	TermQuarterly  PaymentTerm = "Quarterly"
	TermHalfYearly PaymentTerm = "Half-Yearly"
	TermYearly     PaymentTerm = "Yearly"
)

// termDivisors is the fixed divisor table applied to the yearly hour budget.
var termDivisors = map[PaymentTerm]int64{
	TermMonthly:    12,
	TermQuarterly:  4,
	TermHalfYearly: 2,
	TermYearly:     1,
}

// PaymentTerms lists the known terms in cadence order.
func PaymentTerms() []PaymentTerm {
	return []PaymentTerm{TermMonthly, TermQuarterly, TermHalfYearly, TermYearly}
}

// Divisor returns how many billing periods of this term fit in a year.
func (t PaymentTerm) Divisor() (int64, bool) {
	d, ok := termDivisors[t]
	return d, ok
}

// IsValid reports whether t is one of the four known terms.
func (t PaymentTerm) IsValid() bool {
	_, ok := termDivisors[t]
	return ok
}

// Months returns the length of one billing period in months (0 if unknown).
func (t PaymentTerm) Months() int {
	d, ok := termDivisors[t]
	if !ok {
		return 0
	}
	return int(12 / d)
}

// ParsePaymentTerm accepts the canonical names and the spellings found in
// older records ("monthly", "half_yearly", "HalfYearly", ...).
func ParsePaymentTerm(s string) (PaymentTerm, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)

	switch normalized {
	case "monthly":
		return TermMonthly, nil
	case "quarterly":
		return TermQuarterly, nil
	case "halfyearly":
		return TermHalfYearly, nil
	case "yearly", "annual", "annually":
		return TermYearly, nil
	}
	return PaymentTerm(s), &UnrecognizedTermError{Term: PaymentTerm(s)}
}

// =============================================================================
// CLIENT - The contract holder
// =============================================================================

// Client is a read-only snapshot of an AMC client.
// Presentation fields are carried along so the persistence layer can use the
// same type; the engine only reads the contract fields.
type Client struct {
	ID          ClientID
	ProjectName string
	ProjectSlug string
	ProjectURL  string
	Domain      string
	LogoURL     string

	// Client-side point of contact
	ContactName   string
	ContactEmail  string
	ContactNumber string

	// Internal points of contact (admins)
	PrimaryPOC   *AdminID
	SecondaryPOC *AdminID

	// Contract terms
	CostForYear       decimal.Decimal
	HoursAssignedYear *decimal.Decimal // nil = not configured, see Policy.AnnualHours
	PaymentTerm       PaymentTerm
	AMCStartDate      *Date
	AMCEndDate        *Date
}

// Validate checks the contract fields for upstream data errors.
func (c Client) Validate() error {
	if c.CostForYear.IsNegative() {
		return &RecordError{Field: "cost_for_year", Message: "must not be negative"}
	}
	if c.HoursAssignedYear != nil && c.HoursAssignedYear.IsNegative() {
		return &RecordError{Field: "hours_assigned_year", Message: "must not be negative"}
	}
	if c.AMCStartDate != nil && c.AMCEndDate != nil && c.AMCEndDate.Before(*c.AMCStartDate) {
		return &RecordError{Field: "amc_end_date", Message: "must not be before amc_start_date"}
	}
	return nil
}

// =============================================================================
// WORK LOG - Hours consumed for a client
// =============================================================================

type WorkLogEntry struct {
	ID            WorkLogID
	ClientID      ClientID
	Description   string
	HoursConsumed decimal.Decimal
	Date          Date  // when the work happened; reporting only
	StartDate     *Date // optional span for multi-day work
	EndDate       *Date
	Status        WorkStatus
}

// Validate checks a work log before it is persisted.
func (w WorkLogEntry) Validate() error {
	if w.ClientID == "" {
		return &RecordError{Field: "client_id", Message: "is required"}
	}
	if w.HoursConsumed.IsNegative() {
		return &RecordError{Field: "hours_consumed", Message: "must not be negative"}
	}
	if w.StartDate != nil && w.EndDate != nil && w.EndDate.Before(*w.StartDate) {
		return &RecordError{Field: "end_date", Message: "must not be before start_date"}
	}
	if w.Status != "" && !w.Status.IsValid() {
		return &RecordError{Field: "status", Message: "unknown status " + string(w.Status)}
	}
	return nil
}

// =============================================================================
// PAYMENT - Money received from a client
// =============================================================================

type PaymentRecord struct {
	ID          PaymentID
	ClientID    ClientID
	AmountPaid  decimal.Decimal
	PaymentDate Date
	PaymentTerm PaymentTerm
}

// Validate checks a payment before it is persisted.
func (p PaymentRecord) Validate() error {
	if p.ClientID == "" {
		return &RecordError{Field: "client_id", Message: "is required"}
	}
	if p.AmountPaid.IsNegative() {
		return &RecordError{Field: "amount_paid", Message: "must not be negative"}
	}
	if p.PaymentDate.IsZero() {
		return &RecordError{Field: "payment_date", Message: "is required"}
	}
	return nil
}

// =============================================================================
// SNAPSHOT - One consistent read of a client's records
// =============================================================================

// Snapshot groups the records for one client. WorkLogs and Payments are
// assumed to belong to Client already; the engine does not filter them.
type Snapshot struct {
	Client   Client
	WorkLogs []WorkLogEntry
	Payments []PaymentRecord
}
