/*
Package sqlite provides a SQLite-backed implementation of the portal's storage.

PURPOSE:
  Persists admins, clients and every per-client record (work logs, payments,
  hour requests, invoices, contracts, documents) and serves the read side the
  computation engine needs (amc.Store).

INTERFACES IMPLEMENTED:
  amc.Store: GetClient, ListClients, WorkLogsForClient, PaymentsForClient

KEY TABLES:
  admins:        Internal staff who act as points of contact
  clients:       AMC contract holders (cost, hours, term, AMC dates)
  client_admins: Many-to-many link between clients and admins
  work_logs:     Hours consumed per client, with workflow status
  payments:      Money received per client
  hour_requests: Requests for extra hours with an approval status
  invoices, contracts, documents: File metadata; bytes live in the bucket

DECIMALS:
  Hours and money are stored as TEXT and parsed with shopspring/decimal.
  REAL columns would lose cents on sums.

CASCADES:
  Deleting a client deletes all of its records (ON DELETE CASCADE).
  Deleting an admin clears it as a point of contact (ON DELETE SET NULL).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Reads share the lock so the reporter
  can fetch work logs and payments in parallel.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on.

USAGE:
  store, err := sqlite.New("./data/amc.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  reporter := amc.NewReporter(store, amc.NewEngine(amc.DefaultPolicy()))

SEE ALSO:
  - amc/store.go: Read interface used by the reporter
  - amc/store/memory.go: In-memory implementation for testing
  - records.go: Work logs, payments, hour requests and attachments
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
)

var (
	// ErrDuplicate is returned when a unique column (email, slug) collides.
	ErrDuplicate = errors.New("record already exists")

	// ErrReferenceNotFound is returned when a foreign key points nowhere.
	ErrReferenceNotFound = errors.New("referenced record not found")

	// ErrCorruptColumn is returned when a stored decimal or date does not parse.
	ErrCorruptColumn = errors.New("corrupt column")
)

// Store implements amc.Store and the portal CRUD using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		contact_number TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		project_name TEXT NOT NULL,
		project_slug TEXT UNIQUE,
		project_url TEXT,
		domain TEXT,
		logo_url TEXT,
		client_poc_name TEXT,
		poc_email TEXT,
		client_poc_contact_number TEXT,
		cost_for_year TEXT NOT NULL DEFAULT '0',
		hours_assigned_year TEXT,
		payment_term TEXT NOT NULL,
		primary_poc_id TEXT REFERENCES admins(id) ON DELETE SET NULL,
		secondary_poc_id TEXT REFERENCES admins(id) ON DELETE SET NULL,
		amc_start_date TEXT,
		amc_end_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clients_amc_end_date
		ON clients(amc_end_date);

	CREATE TABLE IF NOT EXISTS client_admins (
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		admin_id TEXT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (client_id, admin_id)
	);

	CREATE TABLE IF NOT EXISTS work_logs (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		hours_consumed TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		work_description TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: per-client snapshot
	CREATE INDEX IF NOT EXISTS idx_work_logs_client_date
		ON work_logs(client_id, date);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		amount_paid TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		payment_term TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_client_date
		ON payments(client_id, payment_date);
	CREATE INDEX IF NOT EXISTS idx_payments_date
		ON payments(payment_date);

	CREATE TABLE IF NOT EXISTS hour_requests (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		requested_hours TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_hour_requests_status
		ON hour_requests(status);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		invoice_number TEXT NOT NULL,
		invoice_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		file_path TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		contract_title TEXT NOT NULL,
		contract_date TEXT NOT NULL,
		file_path TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		doc_type TEXT NOT NULL,
		doc_title TEXT NOT NULL,
		upload_date TEXT NOT NULL,
		file_path TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_client ON contracts(client_id);
	CREATE INDEX IF NOT EXISTS idx_documents_client ON documents(client_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ADMIN STORE
// =============================================================================

// Admin is an internal staff member.
type Admin struct {
	ID            amc.AdminID
	Name          string
	Email         string
	ContactNumber string
	CreatedAt     time.Time
}

// AdminRole is a client an admin is a point of contact for.
type AdminRole struct {
	ClientID    amc.ClientID
	ProjectName string
	Role        string // "primary" or "secondary"
}

// SaveAdmin inserts or updates an admin.
func (s *Store) SaveAdmin(ctx context.Context, a Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO admins (id, name, email, contact_number, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			contact_number = excluded.contact_number
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, nullString(a.ContactNumber), now(),
	)
	return mapError("failed to save admin", err)
}

// GetAdmin retrieves an admin by ID.
func (s *Store) GetAdmin(ctx context.Context, id amc.AdminID) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a Admin
	var contact sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, contact_number, created_at FROM admins WHERE id = ?",
		id,
	).Scan(&a.ID, &a.Name, &a.Email, &contact, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	cols := columns{record: "admin " + string(a.ID)}
	a.ContactNumber = contact.String
	a.CreatedAt = cols.timestamp("created_at", createdAt)
	if cols.err != nil {
		return nil, cols.err
	}
	return &a, nil
}

// ListAdmins returns all admins ordered by name.
func (s *Store) ListAdmins(ctx context.Context) ([]Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAdmins(ctx,
		"SELECT id, name, email, contact_number, created_at FROM admins ORDER BY name, id")
}

// ListClientAdmins returns the admins linked to a client.
func (s *Store) ListClientAdmins(ctx context.Context, clientID amc.ClientID) ([]Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAdmins(ctx, `
		SELECT a.id, a.name, a.email, a.contact_number, a.created_at
		FROM admins a
		JOIN client_admins ca ON ca.admin_id = a.id
		WHERE ca.client_id = ?
		ORDER BY a.name, a.id
	`, clientID)
}

func (s *Store) queryAdmins(ctx context.Context, query string, args ...any) ([]Admin, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	admins := []Admin{}
	for rows.Next() {
		var a Admin
		var contact sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &contact, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		cols := columns{record: "admin " + string(a.ID)}
		a.ContactNumber = contact.String
		if a.CreatedAt = cols.timestamp("created_at", createdAt); cols.err != nil {
			return nil, cols.err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// AdminRoles returns the clients an admin is primary or secondary POC for.
func (s *Store) AdminRoles(ctx context.Context, id amc.AdminID) ([]AdminRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_name, 'primary' FROM clients WHERE primary_poc_id = ?
		UNION ALL
		SELECT id, project_name, 'secondary' FROM clients WHERE secondary_poc_id = ?
		ORDER BY 2, 3
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin roles: %w", err)
	}
	defer rows.Close()

	roles := []AdminRole{}
	for rows.Next() {
		var r AdminRole
		if err := rows.Scan(&r.ClientID, &r.ProjectName, &r.Role); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// DeleteAdmin removes an admin. Clients keep their records; the POC fields
// are cleared.
func (s *Store) DeleteAdmin(ctx context.Context, id amc.AdminID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "admins", string(id))
}

// AssignAdmin links an admin to a client. Linking twice is a no-op.
func (s *Store) AssignAdmin(ctx context.Context, clientID amc.ClientID, adminID amc.AdminID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_admins (client_id, admin_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(client_id, admin_id) DO NOTHING
	`, clientID, adminID, now())
	return mapError("failed to assign admin", err)
}

// UnassignAdmin removes a client/admin link.
func (s *Store) UnassignAdmin(ctx context.Context, clientID amc.ClientID, adminID amc.AdminID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM client_admins WHERE client_id = ? AND admin_id = ?", clientID, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to unassign admin: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// =============================================================================
// CLIENT STORE (amc.Store interface)
// =============================================================================

const clientColumns = `
	id, project_name, project_slug, project_url, domain, logo_url,
	client_poc_name, poc_email, client_poc_contact_number,
	cost_for_year, hours_assigned_year, payment_term,
	primary_poc_id, secondary_poc_id, amc_start_date, amc_end_date`

// SaveClient inserts or updates a client.
func (s *Store) SaveClient(ctx context.Context, c amc.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO clients (` + clientColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_name = excluded.project_name,
			project_slug = excluded.project_slug,
			project_url = excluded.project_url,
			domain = excluded.domain,
			logo_url = excluded.logo_url,
			client_poc_name = excluded.client_poc_name,
			poc_email = excluded.poc_email,
			client_poc_contact_number = excluded.client_poc_contact_number,
			cost_for_year = excluded.cost_for_year,
			hours_assigned_year = excluded.hours_assigned_year,
			payment_term = excluded.payment_term,
			primary_poc_id = excluded.primary_poc_id,
			secondary_poc_id = excluded.secondary_poc_id,
			amc_start_date = excluded.amc_start_date,
			amc_end_date = excluded.amc_end_date
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.ProjectName, nullString(c.ProjectSlug), nullString(c.ProjectURL),
		nullString(c.Domain), nullString(c.LogoURL),
		nullString(c.ContactName), nullString(c.ContactEmail), nullString(c.ContactNumber),
		c.CostForYear.String(), nullDecimal(c.HoursAssignedYear), string(c.PaymentTerm),
		nullAdmin(c.PrimaryPOC), nullAdmin(c.SecondaryPOC),
		nullDate(c.AMCStartDate), nullDate(c.AMCEndDate),
		now(),
	)
	return mapError("failed to save client", err)
}

// GetClient retrieves a client by ID. Returns (nil, nil) when missing.
func (s *Store) GetClient(ctx context.Context, id amc.ClientID) (*amc.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns all clients ordered by project name.
func (s *Store) ListClients(ctx context.Context) ([]amc.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY project_name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := []amc.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client and, by cascade, all of its records.
func (s *Store) DeleteClient(ctx context.Context, id amc.ClientID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "clients", string(id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (amc.Client, error) {
	var (
		c                                  amc.Client
		slug, url, domain, logo            sql.NullString
		contactName, contactEmail, contact sql.NullString
		cost                               string
		hours                              sql.NullString
		term                               string
		primary, secondary                 sql.NullString
		start, end                         sql.NullString
	)

	err := row.Scan(
		&c.ID, &c.ProjectName, &slug, &url, &domain, &logo,
		&contactName, &contactEmail, &contact,
		&cost, &hours, &term,
		&primary, &secondary, &start, &end,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return c, err
		}
		return c, fmt.Errorf("failed to scan client: %w", err)
	}

	cols := columns{record: "client " + string(c.ID)}
	c.ProjectSlug = slug.String
	c.ProjectURL = url.String
	c.Domain = domain.String
	c.LogoURL = logo.String
	c.ContactName = contactName.String
	c.ContactEmail = contactEmail.String
	c.ContactNumber = contact.String
	c.CostForYear = cols.decimal("cost_for_year", cost)
	c.HoursAssignedYear = cols.optionalDecimal("hours_assigned_year", hours)
	c.PaymentTerm = amc.PaymentTerm(term)
	c.PrimaryPOC = parseOptionalAdmin(primary)
	c.SecondaryPOC = parseOptionalAdmin(secondary)
	c.AMCStartDate = cols.optionalDate("amc_start_date", start)
	c.AMCEndDate = cols.optionalDate("amc_end_date", end)
	return c, cols.err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"documents", "contracts", "invoices", "hour_requests",
		"payments", "work_logs", "client_admins", "clients", "admins",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// deleteByID deletes one row and reports whether it existed. Callers hold
// the write lock; table names are constants.
func (s *Store) deleteByID(ctx context.Context, table, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDate(d *amc.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullAdmin(id *amc.AdminID) sql.NullString {
	if id == nil || *id == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

// columns parses the TEXT columns of one scanned row. Only the first
// failure is kept; scan helpers return it through err.
type columns struct {
	record string
	err    error
}

func (c *columns) fail(name, value string, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: %s.%s %q: %w", ErrCorruptColumn, c.record, name, value, err)
	}
}

func (c *columns) decimal(name, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		c.fail(name, s, err)
		return decimal.Zero
	}
	return d
}

func (c *columns) optionalDecimal(name string, s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d := c.decimal(name, s.String)
	return &d
}

func (c *columns) date(name, s string) amc.Date {
	d, err := amc.ParseDate(s)
	if err != nil {
		c.fail(name, s, err)
	}
	return d
}

func (c *columns) optionalDate(name string, s sql.NullString) *amc.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d := c.date(name, s.String)
	return &d
}

func (c *columns) timestamp(name, s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		c.fail(name, s, err)
	}
	return t
}

func parseOptionalAdmin(s sql.NullString) *amc.AdminID {
	if !s.Valid || s.String == "" {
		return nil
	}
	id := amc.AdminID(s.String)
	return &id
}

// mapError turns driver constraint failures into package sentinels.
func mapError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", msg, ErrDuplicate)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", msg, ErrReferenceNotFound)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

var _ amc.Store = (*Store)(nil)
