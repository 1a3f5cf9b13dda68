package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/events"
)

// SeriesScope selects which instances of a recurrence series an edit or
// deletion touches, relative to a pivot date. Before and After compare on
// calendar day and both exclude the pivot day itself.
type SeriesScope int

const (
	ScopeAll SeriesScope = iota
	ScopeBefore
	ScopeAfter
)

// TransactionPatch is a partial update applied to every instance selected by
// a series scope. Nil fields are left untouched.
type TransactionPatch struct {
	Type        *core.TransactionType
	Amount      *core.Money
	AccountID   *string
	CategoryID  *string
	Description *string
}

func (p TransactionPatch) apply(t core.Transaction) core.Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}

// TransactionStore owns the transaction collection. Alongside the primary id
// map it maintains an (account, day) index so the credit-card invoice guard
// is a lookup rather than a full scan.
type TransactionStore struct {
	mu           sync.RWMutex
	byID         map[string]core.Transaction
	byAccountDay map[string]map[string]struct{}
	loaded       bool

	persister Persister
	queue     *writeQueue
	notifier  events.Notifier
}

func NewTransactionStore(p Persister, n events.Notifier) *TransactionStore {
	return &TransactionStore{
		byID:         make(map[string]core.Transaction),
		byAccountDay: make(map[string]map[string]struct{}),
		persister:    p,
		queue:        newWriteQueue(p, collectionTransactions),
		notifier:     n,
	}
}

// Load reads the persisted collection. It must complete before the credit
// card scanner is allowed to run; a partial set would defeat the duplicate
// invoice check.
func (s *TransactionStore) Load(ctx context.Context) error {
	payload, err := s.persister.Load(ctx, collectionTransactions)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	var txs []core.Transaction
	if payload != nil {
		if err := json.Unmarshal(payload, &txs); err != nil {
			return fmt.Errorf("decode transactions: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]core.Transaction, len(txs))
	s.byAccountDay = make(map[string]map[string]struct{})
	for _, t := range txs {
		s.byID[t.ID] = t
		s.index(t)
	}
	s.loaded = true

	slog.InfoContext(ctx, "Transactions loaded", "count", len(txs))
	return nil
}

// Loaded reports whether the initial load has completed.
func (s *TransactionStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Close drains the write queue.
func (s *TransactionStore) Close() {
	s.queue.Close()
}

func accountDayKey(accountID string, d core.Date) string {
	return accountID + "|" + d.Key()
}

// index and unindex maintain the (account, day) lookup. Callers hold the lock.
func (s *TransactionStore) index(t core.Transaction) {
	key := accountDayKey(t.AccountID, t.Date)
	ids := s.byAccountDay[key]
	if ids == nil {
		ids = make(map[string]struct{})
		s.byAccountDay[key] = ids
	}
	ids[t.ID] = struct{}{}
}

func (s *TransactionStore) unindex(t core.Transaction) {
	key := accountDayKey(t.AccountID, t.Date)
	if ids := s.byAccountDay[key]; ids != nil {
		delete(ids, t.ID)
		if len(ids) == 0 {
			delete(s.byAccountDay, key)
		}
	}
}

// persist snapshots the collection and hands it to the write queue.
// Callers hold the lock.
func (s *TransactionStore) persist(ctx context.Context) {
	snapshot := s.snapshotLocked()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode transactions", "error", err)
		return
	}
	s.queue.enqueue(payload)
}

func (s *TransactionStore) snapshotLocked() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Add appends a single transaction. The caller has already validated it.
func (s *TransactionStore) Add(ctx context.Context, t core.Transaction) {
	s.mu.Lock()
	s.byID[t.ID] = t
	s.index(t)
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionTransactions, events.OpAdd, t.ID)
}

// AddRecurring expands the base transaction into its full series and appends
// every instance. The generated instances are returned in date order.
func (s *TransactionStore) AddRecurring(ctx context.Context, base core.Transaction, rec core.Recurrence) []core.Transaction {
	instances := ExpandSeries(base, rec)

	s.mu.Lock()
	ids := make([]string, 0, len(instances))
	for _, t := range instances {
		s.byID[t.ID] = t
		s.index(t)
		ids = append(ids, t.ID)
	}
	s.persist(ctx)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Recurring series created",
		"recurrence_id", instances[0].RecurrenceID,
		"count", len(instances),
		"unit", rec.Unit)

	notify(ctx, s.notifier, collectionTransactions, events.OpAdd, ids...)
	return instances
}

// Update replaces the record matching the id. Unknown ids are ignored. It
// never fans out to sibling series instances; use UpdateSeries for that.
func (s *TransactionStore) Update(ctx context.Context, t core.Transaction) {
	s.mu.Lock()
	old, ok := s.byID[t.ID]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.unindex(old)
	s.byID[t.ID] = t
	s.index(t)
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionTransactions, events.OpUpdate, t.ID)
}

// UpdateMany replaces every listed record in one mutation. Unknown ids are
// skipped.
func (s *TransactionStore) UpdateMany(ctx context.Context, txs []core.Transaction) {
	s.mu.Lock()
	ids := make([]string, 0, len(txs))
	for _, t := range txs {
		old, ok := s.byID[t.ID]
		if !ok {
			continue
		}
		s.unindex(old)
		s.byID[t.ID] = t
		s.index(t)
		ids = append(ids, t.ID)
	}
	if len(ids) > 0 {
		s.persist(ctx)
	}
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionTransactions, events.OpUpdate, ids...)
}

// Remove deletes exactly one record, whether or not it belongs to a series.
func (s *TransactionStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	t, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.unindex(t)
	delete(s.byID, id)
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionTransactions, events.OpRemove, id)
}

// RemoveByAccount drops every transaction referencing the account and returns
// how many were removed. AccountStore's cascade calls this before deleting
// the account itself.
func (s *TransactionStore) RemoveByAccount(ctx context.Context, accountID string) int {
	return s.removeWhere(ctx, func(t core.Transaction) bool {
		return t.AccountID == accountID
	})
}

// RemoveByCategory drops every transaction referencing the category.
func (s *TransactionStore) RemoveByCategory(ctx context.Context, categoryID string) int {
	return s.removeWhere(ctx, func(t core.Transaction) bool {
		return t.CategoryID == categoryID
	})
}

// RemoveSeries deletes the instances of a recurrence series selected by
// scope. The pivot is only consulted for ScopeBefore and ScopeAfter.
func (s *TransactionStore) RemoveSeries(ctx context.Context, recurrenceID string, scope SeriesScope, pivot core.Date) int {
	return s.removeWhere(ctx, func(t core.Transaction) bool {
		return t.RecurrenceID == recurrenceID && inScope(t, scope, pivot)
	})
}

// UpdateSeries applies a patch to the instances of a recurrence series
// selected by scope and returns how many were touched.
func (s *TransactionStore) UpdateSeries(ctx context.Context, recurrenceID string, scope SeriesScope, pivot core.Date, patch TransactionPatch) int {
	s.mu.Lock()
	var ids []string
	for id, t := range s.byID {
		if t.RecurrenceID != recurrenceID || !inScope(t, scope, pivot) {
			continue
		}
		s.unindex(t)
		updated := patch.apply(t)
		s.byID[id] = updated
		s.index(updated)
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		s.persist(ctx)
	}
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionTransactions, events.OpUpdate, ids...)
	return len(ids)
}

func inScope(t core.Transaction, scope SeriesScope, pivot core.Date) bool {
	switch scope {
	case ScopeBefore:
		return t.Date.DayBefore(pivot)
	case ScopeAfter:
		return t.Date.DayAfter(pivot)
	default:
		return true
	}
}

func (s *TransactionStore) removeWhere(ctx context.Context, match func(core.Transaction) bool) int {
	s.mu.Lock()
	var ids []string
	for id, t := range s.byID {
		if match(t) {
			s.unindex(t)
			delete(s.byID, id)
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		s.persist(ctx)
	}
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionTransactions, events.OpRemove, ids...)
	return len(ids)
}

// Series returns the instances sharing a recurrence id, in date order.
func (s *TransactionStore) Series(recurrenceID string) []core.Transaction {
	s.mu.RLock()
	var out []core.Transaction
	for _, t := range s.byID {
		if t.RecurrenceID == recurrenceID {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// TotalBalance sums all transactions dated on or before now, income positive
// and expense negative. Future-dated entries are excluded: this is the
// as-of-today balance, not a whole-history sum.
func (s *TransactionStore) TotalBalance(now time.Time) core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cents int64
	for _, t := range s.byID {
		if t.Date.OnOrBefore(now) {
			cents += t.Signed()
		}
	}
	return core.Money{Cents: cents}
}

// AccountBalance is the as-of-now signed sum for one account.
func (s *TransactionStore) AccountBalance(accountID string, now time.Time) core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cents int64
	for _, t := range s.byID {
		if t.AccountID == accountID && t.Date.OnOrBefore(now) {
			cents += t.Signed()
		}
	}
	return core.Money{Cents: cents}
}

// AccountMonthTotal is the signed sum for one account restricted to one
// month+year, regardless of today's date. Used for the credit card
// used-limit display.
func (s *TransactionStore) AccountMonthTotal(accountID string, month, year int) core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cents int64
	for _, t := range s.byID {
		if t.AccountID == accountID && t.Date.Month() == month && t.Date.Year() == year {
			cents += t.Signed()
		}
	}
	return core.Money{Cents: cents}
}

// HasTransactionOn reports whether any transaction exists for the account on
// that calendar day. The invoice scanner uses it as its idempotence guard.
func (s *TransactionStore) HasTransactionOn(accountID string, day core.Date) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byAccountDay[accountDayKey(accountID, day)]) > 0
}

// Get returns one transaction by id.
func (s *TransactionStore) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}

// All returns the collection sorted by date, then id.
func (s *TransactionStore) All() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}
