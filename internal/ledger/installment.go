package ledger

import "ledger/internal/core"

// InstallmentNumber derives the 1-based installment index shown next to a
// recurring transaction ("3/12"). It is a display convention, never stored.
//
// The rule: whole-month distance from the start date, plus 1 when the
// instance falls in the start date's own calendar month, plus 2 otherwise,
// clamped to the planned count. The off-by-one step at the month boundary is
// intentional; callers rely on it matching the historical numbering.
func InstallmentNumber(t core.Transaction) int {
	if !t.IsRecurring || t.RecurrenceCount <= 0 {
		return 0
	}

	months := monthsBetween(t.StartDate, t.Date)
	n := months + 2
	if sameCalendarMonth(t.StartDate, t.Date) {
		n = months + 1
	}

	if n > t.RecurrenceCount {
		n = t.RecurrenceCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// monthsBetween is the whole calendar month distance, ignoring days.
func monthsBetween(from, to core.Date) int {
	return (to.Year()-from.Year())*12 + (to.Month() - from.Month())
}

func sameCalendarMonth(a, b core.Date) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
