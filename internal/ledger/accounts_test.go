package ledger

import (
	"context"
	"testing"
	"time"

	"ledger/internal/core"
)

func TestAccountStore_AddIsIdempotentByName(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	first := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit})
	second := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit, InitialBalance: core.Money{Cents: 999}})

	if first != second {
		t.Errorf("re-adding the same name returned %s, want %s", second, first)
	}
	if got := len(l.accounts.All()); got != 1 {
		t.Errorf("collection grew to %d accounts, want 1", got)
	}

	// The original record wins; the second call is a pure lookup.
	a, _ := l.accounts.Get(first)
	if a.InitialBalance.Cents != 0 {
		t.Errorf("lookup overwrote the existing account: initial balance %d", a.InitialBalance.Cents)
	}
}

func TestAccountStore_RemoveCascades(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	id := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit})
	tx := expense("t1", 1_000, core.NewDate(2024, 1, 5))
	tx.AccountID = id
	l.transactions.Add(ctx, tx)
	keep := expense("t2", 2_000, core.NewDate(2024, 1, 5))
	keep.AccountID = "other-account"
	l.transactions.Add(ctx, keep)

	l.accounts.Remove(ctx, id)

	if _, ok := l.accounts.Get(id); ok {
		t.Error("account still present after Remove")
	}
	for _, remaining := range l.transactions.All() {
		if remaining.AccountID == id {
			t.Errorf("transaction %s still references removed account", remaining.ID)
		}
	}
	if _, ok := l.transactions.Get("t2"); !ok {
		t.Error("cascade removed a transaction of another account")
	}

	// The name is free again after removal.
	fresh := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit})
	if fresh == id {
		t.Error("removed account id was resurrected")
	}
}

func TestAccountStore_BalanceScenario(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	id := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit})

	in := income("t1", 100_000, core.NewDate(2024, 1, 5))
	in.AccountID = id
	l.transactions.Add(ctx, in)
	out := expense("t2", 30_000, core.NewDate(2024, 1, 10))
	out.AccountID = id
	l.transactions.Add(ctx, out)

	for _, asOf := range []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		if got := l.accounts.Balance(id, asOf); got.Cents != 70_000 {
			t.Errorf("Balance(asOf=%s) = %d cents, want 70000", asOf.Format("2006-01-02"), got.Cents)
		}
	}

	// Before the expense lands, only the income counts.
	if got := l.accounts.Balance(id, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)); got.Cents != 100_000 {
		t.Errorf("Balance(asOf=2024-01-07) = %d cents, want 100000", got.Cents)
	}
}

func TestAccountStore_AvailableAddsInitialBalance(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	id := l.accounts.Add(ctx, core.Account{
		Name:           "Platinum",
		Type:           core.Credit,
		InitialBalance: core.Money{Cents: 100_000}, // doubles as the limit
		DueDate:        10,
	})

	spend := expense("t1", 25_000, core.NewDate(2024, 1, 15))
	spend.AccountID = id
	l.transactions.Add(ctx, spend)

	if got := l.accounts.Available(id, now); got.Cents != 75_000 {
		t.Errorf("Available() = %d cents, want 75000", got.Cents)
	}
	if got := l.accounts.Available("no-such-account", now); got.Cents != 0 {
		t.Errorf("Available(unknown) = %d cents, want 0", got.Cents)
	}
}

func TestAccountStore_UpdateRenames(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	id := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit})
	l.accounts.Update(ctx, id, "Cash", 5)

	a, ok := l.accounts.Get(id)
	if !ok {
		t.Fatal("account vanished after Update")
	}
	if a.Name != "Cash" || a.DueDate != 5 {
		t.Errorf("updated account = %q/%d, want Cash/5", a.Name, a.DueDate)
	}

	// The new name is now the idempotence key; the old one is free.
	if got := l.accounts.Add(ctx, core.Account{Name: "Cash", Type: core.Debit}); got != id {
		t.Errorf("Add(Cash) = %s, want existing id %s", got, id)
	}
	if got := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit}); got == id {
		t.Error("Add(Wallet) returned the renamed account's id")
	}
}

func TestAccountStore_UpdateRefusesTakenName(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	wallet := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit})
	cash := l.accounts.Add(ctx, core.Account{Name: "Cash", Type: core.Debit})

	// Renaming Cash onto Wallet's name would shadow Wallet in the name
	// index; the rename is a no-op instead.
	l.accounts.Update(ctx, cash, "Wallet", 0)

	c, _ := l.accounts.Get(cash)
	if c.Name != "Cash" {
		t.Errorf("cash account renamed to %q, want Cash", c.Name)
	}

	// Both names still resolve to their own accounts.
	if got := l.accounts.Add(ctx, core.Account{Name: "Wallet", Type: core.Debit}); got != wallet {
		t.Errorf("Add(Wallet) = %s, want %s", got, wallet)
	}
	if got := l.accounts.Add(ctx, core.Account{Name: "Cash", Type: core.Debit}); got != cash {
		t.Errorf("Add(Cash) = %s, want %s", got, cash)
	}

	// Renaming to the account's own current name stays allowed.
	l.accounts.Update(ctx, cash, "Cash", 7)
	c, _ = l.accounts.Get(cash)
	if c.DueDate != 7 {
		t.Errorf("self-rename dropped the due day update: got %d, want 7", c.DueDate)
	}
}
