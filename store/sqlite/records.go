package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
)

// =============================================================================
// WORK LOG STORE
// =============================================================================

const workLogColumns = `id, client_id, date, start_date, end_date, hours_consumed, status, work_description`

// SaveWorkLog inserts or updates a work log. Status changes go through
// UpdateWorkLogStatus; an update here keeps the stored status.
func (s *Store) SaveWorkLog(ctx context.Context, w amc.WorkLogEntry) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.Status == "" {
		w.Status = amc.WorkPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO work_logs (` + workLogColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			hours_consumed = excluded.hours_consumed,
			work_description = excluded.work_description
	`

	_, err := s.db.ExecContext(ctx, query,
		w.ID, w.ClientID, w.Date.String(), nullDate(w.StartDate), nullDate(w.EndDate),
		w.HoursConsumed.String(), string(w.Status), nullString(w.Description),
		now(),
	)
	return mapError("failed to save work log", err)
}

// GetWorkLog retrieves a work log by ID.
func (s *Store) GetWorkLog(ctx context.Context, id amc.WorkLogID) (*amc.WorkLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getWorkLog(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getWorkLog(ctx context.Context, db queryRower, id amc.WorkLogID) (*amc.WorkLogEntry, error) {
	row := db.QueryRowContext(ctx, "SELECT "+workLogColumns+" FROM work_logs WHERE id = ?", id)
	w, err := scanWorkLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// WorkLogsForClient returns a client's work logs ordered by date.
func (s *Store) WorkLogsForClient(ctx context.Context, id amc.ClientID) ([]amc.WorkLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+workLogColumns+" FROM work_logs WHERE client_id = ? ORDER BY date ASC, created_at ASC",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query work logs: %w", err)
	}
	defer rows.Close()

	logs := []amc.WorkLogEntry{}
	for rows.Next() {
		w, err := scanWorkLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, w)
	}
	return logs, rows.Err()
}

// UpdateWorkLogStatus moves a work log through the status machine and
// persists the new status. Returns (nil, nil) when the log doesn't exist.
func (s *Store) UpdateWorkLogStatus(ctx context.Context, id amc.WorkLogID, to amc.WorkStatus) (*amc.WorkLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	w, err := s.getWorkLog(ctx, tx, id)
	if err != nil || w == nil {
		return nil, err
	}

	next, err := amc.AdvanceWorkStatus(id, w.Status, to)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE work_logs SET status = ? WHERE id = ?", string(next), id); err != nil {
		return nil, fmt.Errorf("failed to update work log status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit work log status: %w", err)
	}

	w.Status = next
	return w, nil
}

// DeleteWorkLog removes a work log.
func (s *Store) DeleteWorkLog(ctx context.Context, id amc.WorkLogID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "work_logs", string(id))
}

func scanWorkLog(row rowScanner) (amc.WorkLogEntry, error) {
	var (
		w           amc.WorkLogEntry
		date        string
		start, end  sql.NullString
		hours       string
		status      string
		description sql.NullString
	)

	err := row.Scan(&w.ID, &w.ClientID, &date, &start, &end, &hours, &status, &description)
	if err != nil {
		if err == sql.ErrNoRows {
			return w, err
		}
		return w, fmt.Errorf("failed to scan work log: %w", err)
	}

	cols := columns{record: "work log " + string(w.ID)}
	w.Date = cols.date("date", date)
	w.StartDate = cols.optionalDate("start_date", start)
	w.EndDate = cols.optionalDate("end_date", end)
	w.HoursConsumed = cols.decimal("hours_consumed", hours)
	w.Status = amc.WorkStatus(status)
	w.Description = description.String
	return w, cols.err
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

const paymentColumns = `id, client_id, amount_paid, payment_date, payment_term`

// SavePayment inserts a payment.
func (s *Store) SavePayment(ctx context.Context, p amc.PaymentRecord) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO payments ("+paymentColumns+", created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.ClientID, p.AmountPaid.String(), p.PaymentDate.String(),
		nullString(string(p.PaymentTerm)), now(),
	)
	return mapError("failed to save payment", err)
}

// PaymentsForClient returns a client's payments ordered by date.
func (s *Store) PaymentsForClient(ctx context.Context, id amc.ClientID) ([]amc.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE client_id = ? ORDER BY payment_date ASC, created_at ASC",
		id,
	)
}

// PaymentsBetween returns every payment dated within [from, to].
func (s *Store) PaymentsBetween(ctx context.Context, from, to amc.Date) ([]amc.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE payment_date >= ? AND payment_date <= ? ORDER BY payment_date ASC",
		from.String(), to.String(),
	)
}

// DeletePayment removes a payment.
func (s *Store) DeletePayment(ctx context.Context, id amc.PaymentID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "payments", string(id))
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]amc.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []amc.PaymentRecord{}
	for rows.Next() {
		var (
			p      amc.PaymentRecord
			amount string
			date   string
			term   sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.ClientID, &amount, &date, &term); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		cols := columns{record: "payment " + string(p.ID)}
		p.AmountPaid = cols.decimal("amount_paid", amount)
		p.PaymentDate = cols.date("payment_date", date)
		if cols.err != nil {
			return nil, cols.err
		}
		p.PaymentTerm = amc.PaymentTerm(term.String)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// HOUR REQUEST STORE
// =============================================================================

// HourRequestRecord is a stored hour request with its timestamps.
type HourRequestRecord struct {
	amc.HourRequest
	Reason    string
	CreatedAt time.Time
	DecidedAt *time.Time
}

const hourRequestColumns = `id, client_id, requested_hours, reason, status, created_at, decided_at`

// SaveHourRequest inserts a new pending hour request.
func (s *Store) SaveHourRequest(ctx context.Context, r HourRequestRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO hour_requests ("+hourRequestColumns+") VALUES (?, ?, ?, ?, ?, ?, NULL)",
		r.ID, r.ClientID, r.RequestedHours.String(), nullString(r.Reason),
		string(amc.ApprovalPending), createdAt.Format(time.RFC3339),
	)
	return mapError("failed to save hour request", err)
}

// GetHourRequest retrieves an hour request by ID.
func (s *Store) GetHourRequest(ctx context.Context, id amc.HourRequestID) (*HourRequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getHourRequest(ctx, s.db, id)
}

func (s *Store) getHourRequest(ctx context.Context, db queryRower, id amc.HourRequestID) (*HourRequestRecord, error) {
	row := db.QueryRowContext(ctx, "SELECT "+hourRequestColumns+" FROM hour_requests WHERE id = ?", id)
	r, err := scanHourRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListHourRequests returns hour requests, newest first. An empty status
// returns all of them.
func (s *Store) ListHourRequests(ctx context.Context, status amc.ApprovalStatus) ([]HourRequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + hourRequestColumns + " FROM hour_requests"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hour requests: %w", err)
	}
	defer rows.Close()

	requests := []HourRequestRecord{}
	for rows.Next() {
		r, err := scanHourRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// DecideHourRequest approves or rejects a pending request. Returns (nil, nil)
// when the request doesn't exist.
func (s *Store) DecideHourRequest(ctx context.Context, id amc.HourRequestID, to amc.ApprovalStatus) (*HourRequestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := s.getHourRequest(ctx, tx, id)
	if err != nil || r == nil {
		return nil, err
	}

	next, err := r.Status.Decide(to)
	if err != nil {
		return nil, err
	}

	decidedAt := time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx,
		"UPDATE hour_requests SET status = ?, decided_at = ? WHERE id = ?",
		string(next), decidedAt.Format(time.RFC3339), id,
	); err != nil {
		return nil, fmt.Errorf("failed to update hour request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit hour request: %w", err)
	}

	r.Status = next
	r.DecidedAt = &decidedAt
	return r, nil
}

func scanHourRequest(row rowScanner) (HourRequestRecord, error) {
	var (
		r         HourRequestRecord
		hours     string
		reason    sql.NullString
		status    string
		createdAt string
		decidedAt sql.NullString
	)

	err := row.Scan(&r.ID, &r.ClientID, &hours, &reason, &status, &createdAt, &decidedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return r, err
		}
		return r, fmt.Errorf("failed to scan hour request: %w", err)
	}

	cols := columns{record: "hour request " + string(r.ID)}
	r.RequestedHours = cols.decimal("requested_hours", hours)
	r.Reason = reason.String
	r.Status = amc.ApprovalStatus(status)
	r.CreatedAt = cols.timestamp("created_at", createdAt)
	if decidedAt.Valid {
		t := cols.timestamp("decided_at", decidedAt.String)
		r.DecidedAt = &t
	}
	return r, cols.err
}

// =============================================================================
// ATTACHMENT STORES - Invoices, contracts, documents
// =============================================================================

// Invoice is billing paperwork sent to a client.
type Invoice struct {
	ID            string
	ClientID      amc.ClientID
	InvoiceNumber string
	InvoiceDate   amc.Date
	Amount        decimal.Decimal
	Description   string
	FilePath      string // bucket key, empty when no file was uploaded
}

// Contract is a signed AMC agreement.
type Contract struct {
	ID           string
	ClientID     amc.ClientID
	Title        string
	ContractDate amc.Date
	FilePath     string
}

// DocumentType classifies a client document.
type DocumentType string

const (
	DocSOW             DocumentType = "SOW"
	DocNDA             DocumentType = "NDA"
	DocBrandGuidelines DocumentType = "Brand Guidelines"
	DocOther           DocumentType = "Other"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocSOW, DocNDA, DocBrandGuidelines, DocOther:
		return true
	}
	return false
}

// Document is any other file kept for a client.
type Document struct {
	ID         string
	ClientID   amc.ClientID
	Type       DocumentType
	Title      string
	UploadDate amc.Date
	FilePath   string
}

// SaveInvoice inserts an invoice.
func (s *Store) SaveInvoice(ctx context.Context, inv Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, client_id, invoice_number, invoice_date, amount, description, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.ClientID, inv.InvoiceNumber, inv.InvoiceDate.String(), inv.Amount.String(),
		nullString(inv.Description), nullString(inv.FilePath), now())
	return mapError("failed to save invoice", err)
}

// ListInvoices returns a client's invoices, newest first.
func (s *Store) ListInvoices(ctx context.Context, clientID amc.ClientID) ([]Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx, "WHERE client_id = ? ORDER BY invoice_date DESC, id", clientID)
}

// GetInvoice retrieves an invoice by ID.
func (s *Store) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices, err := s.queryInvoices(ctx, "WHERE id = ?", id)
	if err != nil || len(invoices) == 0 {
		return nil, err
	}
	return &invoices[0], nil
}

// DeleteInvoice removes an invoice row. The caller removes the file.
func (s *Store) DeleteInvoice(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "invoices", id)
}

func (s *Store) queryInvoices(ctx context.Context, where string, args ...any) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_id, invoice_number, invoice_date, amount, description, file_path FROM invoices "+where,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		var (
			inv         Invoice
			date        string
			amount      string
			description sql.NullString
			path        sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.InvoiceNumber, &date, &amount, &description, &path); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		cols := columns{record: "invoice " + inv.ID}
		inv.InvoiceDate = cols.date("invoice_date", date)
		inv.Amount = cols.decimal("amount", amount)
		if cols.err != nil {
			return nil, cols.err
		}
		inv.Description = description.String
		inv.FilePath = path.String
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// SaveContract inserts a contract.
func (s *Store) SaveContract(ctx context.Context, c Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (id, client_id, contract_title, contract_date, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.ClientID, c.Title, c.ContractDate.String(), nullString(c.FilePath), now())
	return mapError("failed to save contract", err)
}

// ListContracts returns a client's contracts, newest first.
func (s *Store) ListContracts(ctx context.Context, clientID amc.ClientID) ([]Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx, "WHERE client_id = ? ORDER BY contract_date DESC, id", clientID)
}

// GetContract retrieves a contract by ID.
func (s *Store) GetContract(ctx context.Context, id string) (*Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contracts, err := s.queryContracts(ctx, "WHERE id = ?", id)
	if err != nil || len(contracts) == 0 {
		return nil, err
	}
	return &contracts[0], nil
}

// DeleteContract removes a contract row.
func (s *Store) DeleteContract(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "contracts", id)
}

func (s *Store) queryContracts(ctx context.Context, where string, args ...any) ([]Contract, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_id, contract_title, contract_date, file_path FROM contracts "+where,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	contracts := []Contract{}
	for rows.Next() {
		var (
			c    Contract
			date string
			path sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Title, &date, &path); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		cols := columns{record: "contract " + c.ID}
		if c.ContractDate = cols.date("contract_date", date); cols.err != nil {
			return nil, cols.err
		}
		c.FilePath = path.String
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// SaveDocument inserts a document.
func (s *Store) SaveDocument(ctx context.Context, d Document) error {
	if !d.Type.IsValid() {
		return &amc.RecordError{Field: "doc_type", Message: "unknown document type " + string(d.Type)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, client_id, doc_type, doc_title, upload_date, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.ClientID, string(d.Type), d.Title, d.UploadDate.String(), nullString(d.FilePath), now())
	return mapError("failed to save document", err)
}

// ListDocuments returns a client's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, clientID amc.ClientID) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryDocuments(ctx, "WHERE client_id = ? ORDER BY upload_date DESC, id", clientID)
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.queryDocuments(ctx, "WHERE id = ?", id)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return &docs[0], nil
}

// DeleteDocument removes a document row.
func (s *Store) DeleteDocument(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "documents", id)
}

func (s *Store) queryDocuments(ctx context.Context, where string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_id, doc_type, doc_title, upload_date, file_path FROM documents "+where,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			d        Document
			docType  string
			date     string
			filePath sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.ClientID, &docType, &d.Title, &date, &filePath); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Type = DocumentType(docType)
		cols := columns{record: "document " + d.ID}
		if d.UploadDate = cols.date("upload_date", date); cols.err != nil {
			return nil, cols.err
		}
		d.FilePath = filePath.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
