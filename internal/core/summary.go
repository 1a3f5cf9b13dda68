package core

// CategoryTotal is an aggregated amount for one category, with its share of
// the filtered grand total (0..1; zero when the filtered total is zero).
type CategoryTotal struct {
	CategoryID string
	Name       string
	Total      Money
	Share      float64
}

// AccountTotal is an aggregated amount for one account, with its share of
// the filtered grand total.
type AccountTotal struct {
	AccountID string
	Name      string
	Total     Money
	Share     float64
}

// MonthSummary is income/expense/balance restricted to one year+month.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
	Balance Money
}
