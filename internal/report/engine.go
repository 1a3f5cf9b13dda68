// Package report computes the aggregations behind the summary and report
// views. Every function is a pure fold over the collections it is handed:
// no state, safe to call concurrently from any read path.
package report

import (
	"sort"

	"ledger/internal/core"
)

// Filter restricts which transactions an aggregation sees. Zero-valued
// fields do not filter.
type Filter struct {
	Type       core.TransactionType
	AccountID  string
	CategoryID string
	Month      int // 1-12; only honored when Year is set
	Year       int
	From       core.Date
	To         core.Date
}

func (f Filter) matches(t core.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.Year != 0 {
		if t.Date.Year() != f.Year {
			return false
		}
		if f.Month != 0 && t.Date.Month() != f.Month {
			return false
		}
	}
	if !f.From.IsZero() && t.Date.DayBefore(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.DayAfter(f.To) {
		return false
	}
	return true
}

// CategoryTotals sums the filtered transactions' amounts per category and
// computes each category's share of the filtered grand total. The
// denominator is the filtered total, not the lifetime total; when it is
// zero every share is zero.
//
// Every category of the filter's type appears, including zero-total ones.
// Transactions referencing a category that no longer exists aggregate under
// an entry with an empty id — the caller renders those as unknown rather
// than dropping the money.
func CategoryTotals(txs []core.Transaction, cats []core.Category, f Filter) []core.CategoryTotal {
	sums := make(map[string]int64)
	var grand int64
	for _, t := range txs {
		if !f.matches(t) {
			continue
		}
		sums[t.CategoryID] += t.Amount.Cents
		grand += t.Amount.Cents
	}

	known := make(map[string]bool, len(cats))
	out := make([]core.CategoryTotal, 0, len(cats))
	for _, c := range cats {
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		known[c.ID] = true
		out = append(out, core.CategoryTotal{
			CategoryID: c.ID,
			Name:       c.Name,
			Total:      core.Money{Cents: sums[c.ID]},
			Share:      share(sums[c.ID], grand),
		})
	}

	// Dangling foreign keys get an unnamed bucket instead of vanishing.
	var orphaned int64
	hasOrphans := false
	for id, cents := range sums {
		if !known[id] {
			orphaned += cents
			hasOrphans = true
		}
	}
	if hasOrphans {
		out = append(out, core.CategoryTotal{
			Total: core.Money{Cents: orphaned},
			Share: share(orphaned, grand),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// AccountTotals sums the filtered transactions' signed amounts per account.
// A Debit account absorbs the totals of every Credit account whose
// DebitAccountID points back at it; absorbed Credit accounts do not appear
// as rows of their own. Shares use the filtered grand total as denominator.
// Transactions on an account that no longer exists aggregate under an entry
// with an empty id, mirroring CategoryTotals.
func AccountTotals(txs []core.Transaction, accounts []core.Account, f Filter) []core.AccountTotal {
	sums := make(map[string]int64)
	var grand int64
	for _, t := range txs {
		if !f.matches(t) {
			continue
		}
		sums[t.AccountID] += t.Signed()
		grand += t.Signed()
	}

	byID := make(map[string]core.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	rolled := make(map[string]int64, len(accounts))
	absorbed := make(map[string]bool)
	for _, a := range accounts {
		rolled[a.ID] += sums[a.ID]
		if a.Type == core.Credit && a.DebitAccountID != "" {
			if _, ok := byID[a.DebitAccountID]; ok {
				rolled[a.DebitAccountID] += sums[a.ID]
				absorbed[a.ID] = true
			}
		}
	}

	out := make([]core.AccountTotal, 0, len(accounts))
	for _, a := range accounts {
		if absorbed[a.ID] {
			continue
		}
		total := rolled[a.ID]
		if a.Type == core.Credit && a.DebitAccountID != "" {
			// Linked to a missing debit account: keep its own sum.
			total = sums[a.ID]
		}
		out = append(out, core.AccountTotal{
			AccountID: a.ID,
			Name:      a.Name,
			Total:     core.Money{Cents: total},
			Share:     share(total, grand),
		})
	}

	// Same policy as CategoryTotals: money on an account that no longer
	// exists lands in an unnamed bucket instead of vanishing from the rows
	// while still inflating the denominator.
	var orphaned int64
	hasOrphans := false
	for id, cents := range sums {
		if _, ok := byID[id]; !ok {
			orphaned += cents
			hasOrphans = true
		}
	}
	if hasOrphans {
		out = append(out, core.AccountTotal{
			Total: core.Money{Cents: orphaned},
			Share: share(orphaned, grand),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthSummary is income, expense and their difference restricted to one
// year+month.
func MonthSummary(txs []core.Transaction, month, year int) core.MonthSummary {
	summary := core.MonthSummary{Year: year, Month: month}
	for _, t := range txs {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		switch t.Type {
		case core.Income:
			summary.Income.Cents += t.Amount.Cents
		case core.Expense:
			summary.Expense.Cents += t.Amount.Cents
		}
	}
	summary.Balance = core.Money{Cents: summary.Income.Cents - summary.Expense.Cents}
	return summary
}

// RunningBalance is the cumulative signed sum through the end of the given
// month, independent of today's date. Past and future months both work; this
// is the number the month navigation shows, distinct from the as-of-today
// balance.
func RunningBalance(txs []core.Transaction, month, year int) core.Money {
	var cents int64
	for _, t := range txs {
		ty, tm := t.Date.Year(), t.Date.Month()
		if ty > year || (ty == year && tm > month) {
			continue
		}
		cents += t.Signed()
	}
	return core.Money{Cents: cents}
}

// share divides part by whole, mapping a zero denominator to zero instead
// of NaN.
func share(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
