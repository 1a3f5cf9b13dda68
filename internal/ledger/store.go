// Package ledger holds the entity stores of the finance engine: transactions,
// accounts, categories and credit cards. Each store keeps its collection fully
// in memory, persists it as one JSON array through a sequential write queue,
// and notifies an events.Notifier after every applied mutation.
//
// The stores trust their input: validation belongs to the calling shell
// (see core.Transaction.Validate and friends).
package ledger

import (
	"context"
	"time"

	"ledger/internal/events"
)

// Collection keys under the persistence collaborator. Each store owns
// exactly one key.
const (
	collectionTransactions = "transactions"
	collectionAccounts     = "accounts"
	collectionCategories   = "categories"
	collectionCreditCards  = "credit_cards"
)

// Persister is the narrow persistence contract the stores depend on.
// storage.Store implements it; tests substitute an in-memory fake.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

func notify(ctx context.Context, n events.Notifier, collection string, op events.Op, ids ...string) {
	if n == nil || len(ids) == 0 {
		return
	}
	n.Notify(ctx, events.Change{
		Collection: collection,
		Op:         op,
		IDs:        ids,
		At:         time.Now(),
	})
}
