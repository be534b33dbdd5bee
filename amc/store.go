/*
store.go - Read interface for client records

PURPOSE:
  The reporter needs one consistent read of a client's contract, work logs
  and payments. Store is that boundary. Writes belong to the concrete
  implementations (SQLite, memory) and never pass through the engine.

CONTRACT:
  - GetClient returns (nil, nil) when the client doesn't exist
  - WorkLogsForClient/PaymentsForClient return only that client's records,
    ordered by date, and an empty slice for an unknown client
  - ListClients returns every client ordered by project name

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - amc/store/memory.go: In-memory for testing

SEE ALSO:
  - reporter.go: Builds snapshots from a Store
*/
package amc

import "context"

// Store provides read access to the records the engine evaluates.
type Store interface {
	GetClient(ctx context.Context, id ClientID) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	WorkLogsForClient(ctx context.Context, id ClientID) ([]WorkLogEntry, error)
	PaymentsForClient(ctx context.Context, id ClientID) ([]PaymentRecord, error)
}
