// Package store provides amc.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/amc-portal/amc"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	clients  map[amc.ClientID]amc.Client
	workLogs map[amc.ClientID][]amc.WorkLogEntry
	payments map[amc.ClientID][]amc.PaymentRecord
}

func NewMemory() *Memory {
	return &Memory{
		clients:  make(map[amc.ClientID]amc.Client),
		workLogs: make(map[amc.ClientID][]amc.WorkLogEntry),
		payments: make(map[amc.ClientID][]amc.PaymentRecord),
	}
}

// PutClient inserts or replaces a client.
func (m *Memory) PutClient(_ context.Context, c amc.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

// AddWorkLog appends a work log, keeping the client's logs ordered by date.
func (m *Memory) AddWorkLog(_ context.Context, w amc.WorkLogEntry) error {
	if err := w.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := m.workLogs[w.ClientID]
	i := sort.Search(len(logs), func(i int) bool {
		return logs[i].Date.After(w.Date)
	})
	logs = append(logs, amc.WorkLogEntry{})
	copy(logs[i+1:], logs[i:])
	logs[i] = w
	m.workLogs[w.ClientID] = logs
	return nil
}

// AddPayment appends a payment, keeping the client's payments ordered by date.
func (m *Memory) AddPayment(_ context.Context, p amc.PaymentRecord) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	payments := m.payments[p.ClientID]
	i := sort.Search(len(payments), func(i int) bool {
		return payments[i].PaymentDate.After(p.PaymentDate)
	})
	payments = append(payments, amc.PaymentRecord{})
	copy(payments[i+1:], payments[i:])
	payments[i] = p
	m.payments[p.ClientID] = payments
	return nil
}

func (m *Memory) GetClient(_ context.Context, id amc.ClientID) (*amc.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListClients(_ context.Context) ([]amc.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]amc.Client, 0, len(m.clients))
	for _, c := range m.clients {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ProjectName != result[j].ProjectName {
			return result[i].ProjectName < result[j].ProjectName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) WorkLogsForClient(_ context.Context, id amc.ClientID) ([]amc.WorkLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]amc.WorkLogEntry, len(m.workLogs[id]))
	copy(result, m.workLogs[id])
	return result, nil
}

func (m *Memory) PaymentsForClient(_ context.Context, id amc.ClientID) ([]amc.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]amc.PaymentRecord, len(m.payments[id]))
	copy(result, m.payments[id])
	return result, nil
}

var _ amc.Store = (*Memory)(nil)
