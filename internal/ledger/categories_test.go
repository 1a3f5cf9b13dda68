package ledger

import (
	"context"
	"testing"

	"ledger/internal/core"
)

func TestCategoryStore_AddIsIdempotentOnNameAndType(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	first := l.categories.Add(ctx, "Groceries", core.Expense)
	second := l.categories.Add(ctx, "Groceries", core.Expense)
	if first != second {
		t.Errorf("re-adding (Groceries, expense) returned %s, want %s", second, first)
	}
	if got := len(l.categories.All()); got != 1 {
		t.Errorf("collection grew to %d categories, want 1", got)
	}

	// Same name with the other type is a distinct category.
	other := l.categories.Add(ctx, "Groceries", core.Income)
	if other == first {
		t.Error("(Groceries, income) collided with (Groceries, expense)")
	}
	if got := len(l.categories.All()); got != 2 {
		t.Errorf("collection has %d categories, want 2", got)
	}
}

func TestCategoryStore_RemoveCascades(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	id := l.categories.Add(ctx, "Groceries", core.Expense)
	tx := expense("t1", 1_000, core.NewDate(2024, 1, 5))
	tx.CategoryID = id
	l.transactions.Add(ctx, tx)

	l.categories.Remove(ctx, id)

	if _, ok := l.categories.Get(id); ok {
		t.Error("category still present after Remove")
	}
	for _, remaining := range l.transactions.All() {
		if remaining.CategoryID == id {
			t.Errorf("transaction %s still references removed category", remaining.ID)
		}
	}
}

func TestCategoryStore_UpdateRenamesKeepingType(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	id := l.categories.Add(ctx, "Groceries", core.Expense)
	l.categories.Update(ctx, id, "Food")

	c, ok := l.categories.Get(id)
	if !ok {
		t.Fatal("category vanished after Update")
	}
	if c.Name != "Food" || c.Type != core.Expense {
		t.Errorf("updated category = %q/%s, want Food/expense", c.Name, c.Type)
	}

	if got := l.categories.Add(ctx, "Food", core.Expense); got != id {
		t.Errorf("Add(Food) = %s, want existing id %s", got, id)
	}
	if got := l.categories.Add(ctx, "Groceries", core.Expense); got == id {
		t.Error("old name still maps to the renamed category")
	}
}
