package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/events"
)

// CategoryStore owns the category collection. Creation is idempotent on the
// (name, type) pair and deletion cascades into the TransactionStore, the
// same contract as AccountStore.
type CategoryStore struct {
	mu        sync.RWMutex
	byID      map[string]core.Category
	byNameTyp map[string]string
	loaded    bool

	persister    Persister
	queue        *writeQueue
	notifier     events.Notifier
	transactions *TransactionStore
}

func NewCategoryStore(p Persister, n events.Notifier, txs *TransactionStore) *CategoryStore {
	return &CategoryStore{
		byID:         make(map[string]core.Category),
		byNameTyp:    make(map[string]string),
		persister:    p,
		queue:        newWriteQueue(p, collectionCategories),
		notifier:     n,
		transactions: txs,
	}
}

func nameTypeKey(name string, typ core.TransactionType) string {
	return name + "|" + string(typ)
}

func (s *CategoryStore) Load(ctx context.Context) error {
	payload, err := s.persister.Load(ctx, collectionCategories)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	var categories []core.Category
	if payload != nil {
		if err := json.Unmarshal(payload, &categories); err != nil {
			return fmt.Errorf("decode categories: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]core.Category, len(categories))
	s.byNameTyp = make(map[string]string, len(categories))
	for _, c := range categories {
		s.byID[c.ID] = c
		s.byNameTyp[nameTypeKey(c.Name, c.Type)] = c.ID
	}
	s.loaded = true

	slog.InfoContext(ctx, "Categories loaded", "count", len(categories))
	return nil
}

func (s *CategoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *CategoryStore) Close() {
	s.queue.Close()
}

func (s *CategoryStore) persist(ctx context.Context) {
	out := make([]core.Category, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	payload, err := json.Marshal(out)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode categories", "error", err)
		return
	}
	s.queue.enqueue(payload)
}

// Add is a lookup-or-create on (name, type); the existing id is returned
// when the pair is already present.
func (s *CategoryStore) Add(ctx context.Context, name string, typ core.TransactionType) string {
	key := nameTypeKey(name, typ)

	s.mu.Lock()
	if id, ok := s.byNameTyp[key]; ok {
		s.mu.Unlock()
		return id
	}
	c := core.Category{ID: uuid.NewString(), Name: name, Type: typ}
	s.byID[c.ID] = c
	s.byNameTyp[key] = c.ID
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionCategories, events.OpAdd, c.ID)
	return c.ID
}

// Remove cascades: dependent transactions are dropped first, then the
// category record.
func (s *CategoryStore) Remove(ctx context.Context, id string) {
	dropped := s.transactions.RemoveByCategory(ctx, id)

	s.mu.Lock()
	c, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	delete(s.byNameTyp, nameTypeKey(c.Name, c.Type))
	s.persist(ctx)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Category removed",
		"category_id", id,
		"name", c.Name,
		"transactions_dropped", dropped)

	notify(ctx, s.notifier, collectionCategories, events.OpRemove, id)
}

// Update renames the category in place. The type is immutable once created.
func (s *CategoryStore) Update(ctx context.Context, id, newName string) {
	s.mu.Lock()
	c, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byNameTyp, nameTypeKey(c.Name, c.Type))
	c.Name = newName
	s.byID[id] = c
	s.byNameTyp[nameTypeKey(c.Name, c.Type)] = id
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionCategories, events.OpUpdate, id)
}

func (s *CategoryStore) Get(id string) (core.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	return c, ok
}

func (s *CategoryStore) All() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
