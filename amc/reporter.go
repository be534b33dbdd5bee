package amc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// REPORTER - Store-backed evaluation
// =============================================================================

// Scope selects which records feed a report.
type Scope string

const (
	// ScopeLifetime uses every record on file.
	ScopeLifetime Scope = "lifetime"
	// ScopePeriod uses only records dated within the current billing period.
	ScopePeriod Scope = "period"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeLifetime:
		return ScopeLifetime, nil
	case ScopePeriod:
		return ScopePeriod, nil
	}
	return "", &RecordError{Field: "scope", Message: fmt.Sprintf("unknown scope %q", s)}
}

// Reporter loads snapshots from a Store and runs them through the Engine.
type Reporter struct {
	Store  Store
	Engine *Engine
}

func NewReporter(store Store, engine *Engine) *Reporter {
	return &Reporter{Store: store, Engine: engine}
}

// Snapshot reads a client and its records. Work logs and payments are
// fetched concurrently.
func (r *Reporter) Snapshot(ctx context.Context, id ClientID) (Snapshot, error) {
	client, err := r.Store.GetClient(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load client %s: %w", id, err)
	}
	if client == nil {
		return Snapshot{}, &ClientNotFoundError{ClientID: id}
	}

	var (
		wg              sync.WaitGroup
		logs            []WorkLogEntry
		payments        []PaymentRecord
		logsErr, payErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		logs, logsErr = r.Store.WorkLogsForClient(ctx, id)
	}()
	go func() {
		defer wg.Done()
		payments, payErr = r.Store.PaymentsForClient(ctx, id)
	}()
	wg.Wait()

	if logsErr != nil {
		return Snapshot{}, fmt.Errorf("failed to load work logs for %s: %w", id, logsErr)
	}
	if payErr != nil {
		return Snapshot{}, fmt.Errorf("failed to load payments for %s: %w", id, payErr)
	}

	return Snapshot{Client: *client, WorkLogs: logs, Payments: payments}, nil
}

// ScopedReport is a client report together with the period it covers.
type ScopedReport struct {
	ClientReport
	Scope  Scope
	Period *Period // nil for lifetime reports
}

// ClientReport evaluates one client with lifetime records.
func (r *Reporter) ClientReport(ctx context.Context, id ClientID, asOf time.Time) (ClientReport, error) {
	rep, err := r.ScopedClientReport(ctx, id, asOf, ScopeLifetime)
	if err != nil {
		return ClientReport{}, err
	}
	return rep.ClientReport, nil
}

// ScopedClientReport evaluates one client, optionally narrowing work logs and
// payments to the billing period containing asOf.
func (r *Reporter) ScopedClientReport(ctx context.Context, id ClientID, asOf time.Time, scope Scope) (ScopedReport, error) {
	snap, err := r.Snapshot(ctx, id)
	if err != nil {
		return ScopedReport{}, err
	}

	out := ScopedReport{Scope: scope}
	if scope == ScopePeriod {
		term := snap.Client.PaymentTerm
		if !term.IsValid() && r.Engine.Policy.LenientPaymentTerms {
			term = TermMonthly
		}
		period, err := BillingPeriodFor(term, snap.Client.AMCStartDate, DateOf(asOf))
		if err != nil {
			return ScopedReport{}, err
		}
		snap.WorkLogs = FilterWorkLogs(snap.WorkLogs, period)
		snap.Payments = FilterPayments(snap.Payments, period)
		out.Period = &period
	}

	report, err := r.Engine.Evaluate(snap, asOf)
	if err != nil {
		return ScopedReport{}, err
	}
	out.ClientReport = report
	return out, nil
}

// SkippedClient is a client left out of the portfolio because its records
// could not be evaluated.
type SkippedClient struct {
	ClientID ClientID
	Err      error
}

// PortfolioReport is the dashboard view across all clients.
type PortfolioReport struct {
	Summary PortfolioSummary
	Clients []ClientReport
	Skipped []SkippedClient
}

// Portfolio evaluates every client. A client with bad data is reported in
// Skipped instead of failing the whole portfolio; store errors still fail.
func (r *Reporter) Portfolio(ctx context.Context, asOf time.Time) (PortfolioReport, error) {
	clients, err := r.Store.ListClients(ctx)
	if err != nil {
		return PortfolioReport{}, fmt.Errorf("failed to list clients: %w", err)
	}

	var out PortfolioReport
	results := make([]ClientResult, 0, len(clients))
	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return PortfolioReport{}, err
		}

		report, err := r.ClientReport(ctx, c.ID, asOf)
		if err != nil {
			if IsClientError(err) || errors.Is(err, ErrClientNotFound) {
				out.Skipped = append(out.Skipped, SkippedClient{ClientID: c.ID, Err: err})
				continue
			}
			return PortfolioReport{}, err
		}
		out.Clients = append(out.Clients, report)
		results = append(results, report.Result())
	}

	out.Summary = Aggregate(results)
	return out, nil
}
