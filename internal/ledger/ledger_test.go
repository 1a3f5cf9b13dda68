package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakePersister is the in-memory stand-in for storage.Store used across the
// store tests.
type fakePersister struct {
	mu       sync.Mutex
	data     map[string][]byte
	saves    map[string]int
	failSave bool
}

func newFakePersister() *fakePersister {
	return &fakePersister{
		data:  make(map[string][]byte),
		saves: make(map[string]int),
	}
}

func (f *fakePersister) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakePersister) Save(_ context.Context, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("save failed")
	}
	f.data[key] = payload
	f.saves[key]++
	return nil
}

func (f *fakePersister) saved(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key]
}

type testLedger struct {
	persister    *fakePersister
	transactions *TransactionStore
	accounts     *AccountStore
	categories   *CategoryStore
	creditCards  *CreditCardStore
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	p := newFakePersister()
	txs := NewTransactionStore(p, nil)
	l := &testLedger{
		persister:    p,
		transactions: txs,
		accounts:     NewAccountStore(p, nil, txs),
		categories:   NewCategoryStore(p, nil, txs),
		creditCards:  NewCreditCardStore(p, nil, txs),
	}

	ctx := context.Background()
	for _, load := range []func(context.Context) error{
		l.transactions.Load, l.accounts.Load, l.categories.Load, l.creditCards.Load,
	} {
		if err := load(ctx); err != nil {
			t.Fatalf("initial load: %v", err)
		}
	}

	t.Cleanup(func() {
		l.creditCards.Close()
		l.categories.Close()
		l.accounts.Close()
		l.transactions.Close()
	})
	return l
}
