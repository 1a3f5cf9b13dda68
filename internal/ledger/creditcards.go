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

// InvoiceDescription marks the synthetic expense injected at a credit card's
// cycle boundary.
const InvoiceDescription = "Credit card invoice"

// CreditCardStore owns the credit card collection and the due-date scan that
// injects the invoice payment transaction once per cycle boundary.
type CreditCardStore struct {
	mu     sync.RWMutex
	byID   map[string]core.CreditCard
	loaded bool

	persister    Persister
	queue        *writeQueue
	notifier     events.Notifier
	transactions *TransactionStore
}

func NewCreditCardStore(p Persister, n events.Notifier, txs *TransactionStore) *CreditCardStore {
	return &CreditCardStore{
		byID:         make(map[string]core.CreditCard),
		persister:    p,
		queue:        newWriteQueue(p, collectionCreditCards),
		notifier:     n,
		transactions: txs,
	}
}

func (s *CreditCardStore) Load(ctx context.Context) error {
	payload, err := s.persister.Load(ctx, collectionCreditCards)
	if err != nil {
		return fmt.Errorf("load credit cards: %w", err)
	}

	var cards []core.CreditCard
	if payload != nil {
		if err := json.Unmarshal(payload, &cards); err != nil {
			return fmt.Errorf("decode credit cards: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]core.CreditCard, len(cards))
	for _, c := range cards {
		s.byID[c.ID] = c
	}
	s.loaded = true

	slog.InfoContext(ctx, "Credit cards loaded", "count", len(cards))
	return nil
}

func (s *CreditCardStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *CreditCardStore) Close() {
	s.queue.Close()
}

func (s *CreditCardStore) persist(ctx context.Context) {
	out := make([]core.CreditCard, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	payload, err := json.Marshal(out)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode credit cards", "error", err)
		return
	}
	s.queue.enqueue(payload)
}

// Add creates the card record. When the card's due date is today and the
// account has no transaction on that day yet, the invoice for the used limit
// is injected immediately instead of waiting for the next scan.
func (s *CreditCardStore) Add(ctx context.Context, card core.CreditCard, now time.Time) string {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.byID[card.ID] = card
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionCreditCards, events.OpAdd, card.ID)

	if card.DueDate.SameDay(core.DateOf(now)) && !s.transactions.HasTransactionOn(card.AccountID, card.DueDate) {
		s.injectInvoice(ctx, card)
	}
	return card.ID
}

// Remove deletes the card record only. The linked account and its
// transactions are untouched.
func (s *CreditCardStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionCreditCards, events.OpRemove, id)
}

// Update replaces the card's limit and cycle boundary in place.
func (s *CreditCardStore) Update(ctx context.Context, id string, newLimit core.Money, newDueDate core.Date) {
	s.mu.Lock()
	c, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	c.Limit = newLimit
	c.DueDate = newDueDate
	s.byID[id] = c
	s.persist(ctx)
	s.mu.Unlock()

	notify(ctx, s.notifier, collectionCreditCards, events.OpUpdate, id)
}

// ProcessDueCards injects the invoice transaction for every card whose due
// date has been reached and whose account has no transaction on that day
// yet. Re-running the scan never double-injects: the (account, day) index is
// the idempotence guard.
//
// The scan is skipped entirely until both this store and the
// TransactionStore have finished their initial load — a partial transaction
// set looks identical to "no invoice yet" and would cause a duplicate
// injection once the real data arrives.
func (s *CreditCardStore) ProcessDueCards(ctx context.Context, now time.Time) (int, error) {
	if s.transactions == nil {
		return 0, fmt.Errorf("credit card store not properly initialized")
	}
	if !s.Loaded() || !s.transactions.Loaded() {
		slog.WarnContext(ctx, "Skipping due-date scan, initial load not complete",
			"cards_loaded", s.Loaded(),
			"transactions_loaded", s.transactions.Loaded())
		return 0, nil
	}

	s.mu.RLock()
	cards := make([]core.CreditCard, 0, len(s.byID))
	for _, c := range s.byID {
		cards = append(cards, c)
	}
	s.mu.RUnlock()

	slog.InfoContext(ctx, "Scanning credit cards for due invoices",
		"total_cards", len(cards),
		"scan_date", now.Format("2006-01-02"))

	injected := 0
	for _, card := range cards {
		if !card.DueDate.OnOrBefore(now) {
			continue
		}
		if s.transactions.HasTransactionOn(card.AccountID, card.DueDate) {
			continue
		}

		s.injectInvoice(ctx, card)
		injected++
	}

	slog.InfoContext(ctx, "Due-date scan complete",
		"injected", injected,
		"total_checked", len(cards))

	return injected, nil
}

func (s *CreditCardStore) injectInvoice(ctx context.Context, card core.CreditCard) {
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Type:        core.Expense,
		Amount:      card.UsedLimit,
		Date:        card.DueDate,
		AccountID:   card.AccountID,
		Description: InvoiceDescription,
	}
	s.transactions.Add(ctx, tx)

	slog.InfoContext(ctx, "Injected invoice transaction",
		"card_id", card.ID,
		"account_id", card.AccountID,
		"due_date", card.DueDate.Key(),
		"amount_cents", card.UsedLimit.Cents)
}

func (s *CreditCardStore) Get(id string) (core.CreditCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	return c, ok
}

func (s *CreditCardStore) All() []core.CreditCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.CreditCard, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
