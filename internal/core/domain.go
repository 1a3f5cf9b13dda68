package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Debit  AccountType = "Debit"
	Credit AccountType = "Credit"

	Monthly RecurrenceUnit = "month"
	Weekly  RecurrenceUnit = "week"
)

type (
	TransactionType string
	AccountType     string
	RecurrenceUnit  string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64 `json:"cents"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		Type            TransactionType `json:"type"`
		Amount          Money           `json:"amount"`
		Date            Date            `json:"date"`
		AccountID       string          `json:"accountId"`
		CategoryID      string          `json:"categoryId"`
		Description     string          `json:"description"`
		IsRecurring     bool            `json:"isRecurring"`
		RecurrenceID    string          `json:"recurrenceId,omitempty"`
		StartDate       Date            `json:"startDate"`
		RecurrenceCount int             `json:"recurrenceCount,omitempty"`
		Attachments     []string        `json:"attachments,omitempty"`
	}

	Account struct {
		ID             string      `json:"id"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		InitialBalance Money       `json:"initialBalance"`
		// DueDate is a day of month (1-28), meaningful for Credit accounts only.
		DueDate int `json:"dueDate"`
		// DebitAccountID links a Credit account to the Debit account that
		// absorbs its balance in account rollups.
		DebitAccountID string `json:"debitAccountId,omitempty"`
	}

	Category struct {
		ID   string          `json:"id"`
		Name string          `json:"name"`
		Type TransactionType `json:"type"`
	}

	CreditCard struct {
		ID        string `json:"id"`
		AccountID string `json:"accountId"`
		Limit     Money  `json:"limit"`
		// DueDate is the concrete cycle boundary date, not a day of month.
		DueDate   Date  `json:"dueDate"`
		UsedLimit Money `json:"usedLimit"`
	}

	Recurrence struct {
		Count int
		Unit  RecurrenceUnit
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyDescription       = errors.New("empty description")
	ErrEmptyName              = errors.New("empty name")
	ErrInvalidType            = errors.New("invalid type")
	ErrInvalidDueDate         = errors.New("invalid due date")
	ErrInvalidRecurrenceCount = errors.New("invalid recurrence count")
	ErrMissingAccount         = errors.New("missing account reference")
)

// NewDate creates a Date at day granularity in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Key returns the canonical day string used for same-day indexing.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(o Date) bool {
	return d.Key() == o.Key()
}

// DayBefore reports whether d falls on an earlier calendar day than o.
// The same day compares equal, never before.
func (d Date) DayBefore(o Date) bool {
	return d.Key() < o.Key()
}

// DayAfter reports whether d falls on a later calendar day than o.
func (d Date) DayAfter(o Date) bool {
	return d.Key() > o.Key()
}

// OnOrBefore reports whether d falls on the same calendar day as t or earlier.
func (d Date) OnOrBefore(t time.Time) bool {
	return !d.DayAfter(DateOf(t))
}

// AddMonths shifts the date by whole calendar months using the platform's
// month-add normalization. Jan 31 + 1 month rolls over; this is deliberately
// not a fixed 30-day offset.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.AddDate(0, n, 0)}
}

// AddDays shifts the date by whole days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// Signed returns the economic effect in cents: income positive, expense
// negative. The stored amount itself is always a magnitude.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (r Recurrence) Validate() error {
	if r.Count <= 0 {
		return ErrInvalidRecurrenceCount
	}
	switch r.Unit {
	case Monthly, Weekly:
		return nil
	default:
		return errors.New("invalid recurrence unit")
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	switch a.Type {
	case Debit, Credit:
	default:
		return ErrInvalidType
	}
	if a.Type == Credit && (a.DueDate < 1 || a.DueDate > 28) {
		return ErrInvalidDueDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.AccountID) == "" {
		return ErrMissingAccount
	}
	if err := c.DueDate.Validate(); err != nil {
		return err
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	return c.UsedLimit.Validate()
}
