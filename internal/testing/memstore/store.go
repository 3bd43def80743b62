// Package memstore is an in-memory stand-in for the Postgres repositories.
// Every WithTx call holds one store-wide lock and restores a snapshot when
// the callback fails, so rollback behaviour is observable in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/sales"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

type posKey struct {
	warehouseID int64
	productID   int64
}

type state struct {
	positions   map[posKey]inventory.Position
	txns        []inventory.Transaction
	invoices    map[int64]sales.Invoice
	lines       []sales.Line
	idempotency map[string]time.Time
	credits     map[int64]credit.Sale
	payments    []credit.Payment
	logs        []production.Log
	orders      map[int64]production.Order
}

func newState() state {
	return state{
		positions:   map[posKey]inventory.Position{},
		invoices:    map[int64]sales.Invoice{},
		idempotency: map[string]time.Time{},
		credits:     map[int64]credit.Sale{},
		orders:      map[int64]production.Order{},
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.positions {
		out.positions[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = v
	}
	for k, v := range s.idempotency {
		out.idempotency[k] = v
	}
	for k, v := range s.credits {
		out.credits[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	out.txns = append([]inventory.Transaction(nil), s.txns...)
	out.lines = append([]sales.Line(nil), s.lines...)
	out.payments = append([]credit.Payment(nil), s.payments...)
	out.logs = append([]production.Log(nil), s.logs...)
	return out
}

// Store holds every table the ledger touches plus the master data.
type Store struct {
	mu    sync.Mutex
	data  state
	seq   map[string]int64
	fails map[string]error
	nth   map[string]*countdown

	md         sync.RWMutex
	products   map[int64]masterdata.Product
	warehouses map[int64]masterdata.Warehouse
	branches   map[int64]masterdata.Branch
	customers  map[int64]masterdata.Customer
	centers    map[int64]masterdata.ProductionCenter

	audit []shared.AuditLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data:       newState(),
		seq:        map[string]int64{},
		fails:      map[string]error{},
		nth:        map[string]*countdown{},
		products:   map[int64]masterdata.Product{},
		warehouses: map[int64]masterdata.Warehouse{},
		branches:   map[int64]masterdata.Branch{},
		customers:  map[int64]masterdata.Customer{},
		centers:    map[int64]masterdata.ProductionCenter{},
	}
}

// next mimics a Postgres sequence: values are never handed out twice, even
// after a rollback.
func (s *Store) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

// FailOn makes the named write return err until cleared with a nil err.
// Names are "<module>.<Method>", e.g. "production.InsertLog".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

type countdown struct {
	calls int
	err   error
}

// FailOnce makes only the next call of the named write return err.
func (s *Store) FailOnce(op string, err error) {
	s.FailNth(op, 1, err)
}

// FailNth makes the n-th next call of the named write return err.
func (s *Store) FailNth(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nth[op] = &countdown{calls: n, err: err}
}

func (s *Store) injected(op string) error {
	if c, ok := s.nth[op]; ok {
		c.calls--
		if c.calls == 0 {
			delete(s.nth, op)
			return c.err
		}
	}
	return s.fails[op]
}

// withTx runs fn under the store lock and restores the snapshot on error or
// when ctx is already cancelled at commit time.
func (s *Store) withTx(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) read() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// Record implements shared.AuditRecorder.
func (s *Store) Record(_ context.Context, entry shared.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("audit.Record"); err != nil {
		return err
	}
	s.audit = append(s.audit, entry)
	return nil
}

// AuditLogs returns the recorded audit entries.
func (s *Store) AuditLogs() []shared.AuditLog {
	defer s.read()()
	return append([]shared.AuditLog(nil), s.audit...)
}

// Transactions returns every stock ledger row in insertion order.
func (s *Store) Transactions() []inventory.Transaction {
	defer s.read()()
	return append([]inventory.Transaction(nil), s.data.txns...)
}

// Quantity returns the position quantity and whether the position exists.
func (s *Store) Quantity(warehouseID, productID int64) (inventory.Position, bool) {
	defer s.read()()
	pos, ok := s.data.positions[posKey{warehouseID, productID}]
	return pos, ok
}

// Counts summarises row counts per table for rollback assertions.
type Counts struct {
	Transactions int
	Invoices     int
	Lines        int
	Credits      int
	Payments     int
	Logs         int
	Orders       int
}

// Counts returns the current row counts.
func (s *Store) Counts() Counts {
	defer s.read()()
	return Counts{
		Transactions: len(s.data.txns),
		Invoices:     len(s.data.invoices),
		Lines:        len(s.data.lines),
		Credits:      len(s.data.credits),
		Payments:     len(s.data.payments),
		Logs:         len(s.data.logs),
		Orders:       len(s.data.orders),
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
