package core

import (
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	BiWeekly  Frequency = "bi-weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

type (
	TransactionType string

	Frequency string

	BudgetPeriod string

	// Date is a calendar day with no time-of-day component, always UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID    string
		Name  string
		Email string
	}

	Account struct {
		ID       string
		UserID   string
		Name     string
		Currency Currency
	}

	Category struct {
		ID     string
		UserID string
		Name   string
		Icon   string
	}

	// Tag is a free-form label a user attaches to transactions, across
	// accounts. Unlike categories, a transaction can carry any number of
	// tags.
	Tag struct {
		ID     string
		UserID string
		Name   string
		Color  string
	}

	// Transaction is a single ledger entry. Amount cents are positive for
	// income and expense rows; the effect on the balance is derived from
	// the type. Transfer legs are signed directly (negative on the source
	// account, positive on the destination) and linked by TransferGroup.
	Transaction struct {
		ID            string
		AccountID     string
		CategoryID    string
		AmountCents   int64
		Type          TransactionType
		Description   string
		Date          Date
		TransferGroup string
	}

	// Budget caps expense spending on an account for a rolling period.
	// CategoryID empty means the budget is account-wide.
	Budget struct {
		ID          string
		AccountID   string
		CategoryID  string
		Name        string
		AmountCents int64
		Period      BudgetPeriod
		StartDate   Date
	}

	// RecurringTemplate is the rule concrete transactions are materialized
	// from. NextDueDate is the scheduler's cursor and the only mutable
	// state the engine hands back to the ledger.
	RecurringTemplate struct {
		ID          string
		AccountID   string
		CategoryID  string
		AmountCents int64
		Type        TransactionType
		Description string
		Frequency   Frequency
		StartDate   Date
		EndDate     Date
		NextDueDate Date
		IsActive    bool
	}
)

// TransactionFilter is a typed search query over one account's entries.
// Zero-valued fields leave that dimension unconstrained. Amount bounds
// apply to the absolute value so signed transfer legs match the amount
// a user typed; Text matches the description case-insensitively.
type TransactionFilter struct {
	AccountID      string
	CategoryID     string
	Type           TransactionType
	MinAmountCents int64
	MaxAmountCents int64
	Text           string
	TagID          string
	From           Date
	To             Date
}

func (f TransactionFilter) Validate() error {
	if f.AccountID == "" {
		return ErrMissingAccount
	}
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	if f.MinAmountCents < 0 || f.MaxAmountCents < 0 {
		return ErrInvalidAmount
	}
	if f.MaxAmountCents > 0 && f.MinAmountCents > f.MaxAmountCents {
		return ErrInvalidAmount
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

// DateLayout is the wire and storage format for dates.
const DateLayout = "2006-01-02"

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// ParseDate parses an ISO "YYYY-MM-DD" date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense, Transfer:
		return nil
	default:
		return ErrInvalidTransactionType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, BiWeekly, Monthly, Quarterly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (p BudgetPeriod) Validate() error {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return nil
	default:
		return ErrInvalidBudgetPeriod
	}
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 50 {
		return ErrNameTooLong
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return ValidateCurrency(a.Currency)
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.AccountID == "" {
		return ErrMissingAccount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	// Transfer legs are signed; income and expense rows store raw amounts.
	if t.Type == Transfer {
		if t.AmountCents == 0 {
			return ErrInvalidAmount
		}
		return nil
	}
	if t.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Budget) Validate() error {
	if b.AccountID == "" {
		return ErrMissingAccount
	}
	if b.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	return b.StartDate.Validate()
}

func (rt RecurringTemplate) Validate() error {
	if rt.AccountID == "" {
		return ErrMissingAccount
	}
	if rt.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	switch rt.Type {
	case Income, Expense:
	default:
		return ErrInvalidTransactionType
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if err := rt.StartDate.Validate(); err != nil {
		return err
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate.Time) {
		return ErrEndBeforeStart
	}
	if len(rt.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}
