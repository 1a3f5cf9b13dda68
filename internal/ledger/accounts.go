package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/events"
)

// AccountStore owns the account collection. Creation is idempotent by name,
// and deletion cascades into the TransactionStore before the account record
// disappears, so no transaction is ever left pointing at a removed account.
type AccountStore struct {
	mu     sync.RWMutex
	byID   map[string]core.Account
	byName map[string]string
	loaded bool

	persister    Persister
	queue        *writeQueue
	notifier     events.Notifier
	transactions *TransactionStore
}

func NewAccountStore(p Persister, n events.Notifier, txs *TransactionStore) *AccountStore {
	return &AccountStore{
		byID:         make(map[string]core.Account),
		byName:       make(map[string]string),
		persister:    p,
		queue:        newWriteQueue(p, collectionAccounts),
		notifier:     n,
		transactions: txs,
	}
}

func (s *AccountStore) Load(ctx context.Context) error {
	payload, err := s.persister.Load(ctx, collectionAccounts)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	var accounts []core.Account
	if payload != nil {
		if err := json.Unmarshal(payload, &accounts); err != nil {
			return fmt.Errorf("decode accounts: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]core.Account, len(accounts))
	s.byName = make(map[string]string, len(accounts))
	for _, a := range accounts {
		s.byID[a.ID] = a
		s.byName[a.Name] = a.ID
	}
	s.loaded = true

	slog.InfoContext(ctx, "Accounts loaded", "count", len(accounts))
	return nil
}

func (s *AccountStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *AccountStore) Close() {
	s.queue.Close()
}

func (s *AccountStore) persist(ctx context.Context) {
	out := make([]core.Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	payload, err := json.Marshal(out)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode accounts", "error", err)
		return
	}
	s.queue.enqueue(payload)
}

// Add is a lookup-or-create on the account name: re-adding an existing name
// returns the existing id without growing the collection. A blank id on a
// new account is filled in.
func (s *AccountStore) Add(ctx context.Context, a core.Account) string {
	s.mu.Lock()
	if id, ok := s.byName[a.Name]; ok {
		s.mu.Unlock()
		return id
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.byID[a.ID] = a
	s.byName[a.Name] = a.ID
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionAccounts, events.OpAdd, a.ID)
	return a.ID
}

// Remove cascades: every transaction on the account is deleted first, then
// the account itself.
func (s *AccountStore) Remove(ctx context.Context, id string) {
	dropped := s.transactions.RemoveByAccount(ctx, id)

	s.mu.Lock()
	a, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	delete(s.byName, a.Name)
	s.persist(ctx)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Account removed",
		"account_id", id,
		"name", a.Name,
		"transactions_dropped", dropped)

	notify(ctx, s.notifier, collectionAccounts, events.OpRemove, id)
}

// Update renames the account and replaces its due day in place. The due day
// range is the calling shell's responsibility. A rename to a name another
// account already holds is refused; it would shadow that account in the
// name index.
func (s *AccountStore) Update(ctx context.Context, id, newName string, newDueDate int) {
	s.mu.Lock()
	a, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if existing, taken := s.byName[newName]; taken && existing != id {
		s.mu.Unlock()
		slog.WarnContext(ctx, "Account rename refused, name already in use",
			"account_id", id,
			"name", newName,
			"holder_id", existing)
		return
	}
	delete(s.byName, a.Name)
	a.Name = newName
	a.DueDate = newDueDate
	s.byID[id] = a
	s.byName[a.Name] = id
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionAccounts, events.OpUpdate, id)
}

// Balance is the signed sum of the account's transactions dated on or before
// now — the as-of-today policy, same as TransactionStore.TotalBalance.
func (s *AccountStore) Balance(accountID string, now time.Time) core.Money {
	return s.transactions.AccountBalance(accountID, now)
}

// Available is the usable balance: the initial balance (a Credit account's
// limit) plus the as-of-now signed transaction sum.
func (s *AccountStore) Available(accountID string, now time.Time) core.Money {
	s.mu.RLock()
	a, ok := s.byID[accountID]
	s.mu.RUnlock()
	if !ok {
		return core.Money{}
	}
	return core.Money{Cents: a.InitialBalance.Cents + s.transactions.AccountBalance(accountID, now).Cents}
}

func (s *AccountStore) Get(id string) (core.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return a, ok
}

func (s *AccountStore) All() []core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
