package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-15")
	if err != nil {
		t.Fatalf("ParseDate() error: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 3 || d.Day() != 15 {
		t.Errorf("ParseDate() = %s, want 2025-03-15", d)
	}
	if d.String() != "2025-03-15" {
		t.Errorf("String() = %q, want 2025-03-15", d.String())
	}

	for _, bad := range []string{"", "15/03/2025", "2025-13-01", "2025-02-30", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 08:30 on the 2nd in UTC+9 is still 23:30 on the 1st in UTC.
	d := DateOf(time.Date(2025, 6, 2, 8, 30, 0, 0, loc))
	if d.String() != "2025-06-01" {
		t.Errorf("DateOf() = %s, want 2025-06-01", d)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2025, 1, 31},
		{2025, 2, 28},
		{2024, 2, 29},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		AccountID:   "acc-1",
		AmountCents: 2500,
		Type:        Expense,
		Date:        NewDate(2025, 3, 15),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid expense", func(tx *Transaction) {}, nil},
		{"valid income", func(tx *Transaction) { tx.Type = Income }, nil},
		{"negative transfer leg allowed", func(tx *Transaction) {
			tx.Type = Transfer
			tx.AmountCents = -2500
		}, nil},
		{"zero transfer leg rejected", func(tx *Transaction) {
			tx.Type = Transfer
			tx.AmountCents = 0
		}, ErrInvalidAmount},
		{"negative expense rejected", func(tx *Transaction) { tx.AmountCents = -1 }, ErrInvalidAmount},
		{"zero expense rejected", func(tx *Transaction) { tx.AmountCents = 0 }, ErrInvalidAmount},
		{"missing account", func(tx *Transaction) { tx.AccountID = "" }, ErrMissingAccount},
		{"bad type", func(tx *Transaction) { tx.Type = "refund" }, ErrInvalidTransactionType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"long description", func(tx *Transaction) {
			for i := 0; i < 201; i++ {
				tx.Description += "x"
			}
		}, ErrDescriptionTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTag_Validate(t *testing.T) {
	if err := (Tag{Name: "Vacation"}).Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	if err := (Tag{Name: "  "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name error = %v, want ErrEmptyName", err)
	}
	long := Tag{}
	for i := 0; i < 51; i++ {
		long.Name += "x"
	}
	if err := long.Validate(); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("long name error = %v, want ErrNameTooLong", err)
	}
}

func TestTransactionFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  TransactionFilter
		wantErr error
	}{
		{"account only", TransactionFilter{AccountID: "acc-1"}, nil},
		{"full filter", TransactionFilter{
			AccountID:      "acc-1",
			CategoryID:     "cat-1",
			Type:           Expense,
			MinAmountCents: 100,
			MaxAmountCents: 5_000,
			Text:           "lunch",
			From:           NewDate(2025, 3, 1),
			To:             NewDate(2025, 3, 31),
		}, nil},
		{"missing account", TransactionFilter{}, ErrMissingAccount},
		{"bad type", TransactionFilter{AccountID: "acc-1", Type: "refund"}, ErrInvalidTransactionType},
		{"negative min", TransactionFilter{AccountID: "acc-1", MinAmountCents: -1}, ErrInvalidAmount},
		{"negative max", TransactionFilter{AccountID: "acc-1", MaxAmountCents: -1}, ErrInvalidAmount},
		{"inverted amounts", TransactionFilter{AccountID: "acc-1", MinAmountCents: 500, MaxAmountCents: 100}, ErrInvalidAmount},
		{"end before start", TransactionFilter{AccountID: "acc-1", From: NewDate(2025, 3, 10), To: NewDate(2025, 3, 1)}, ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.filter.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudget_Validate(t *testing.T) {
	valid := Budget{
		AccountID:   "acc-1",
		Name:        "Groceries",
		AmountCents: 50_000,
		Period:      PeriodMonthly,
		StartDate:   NewDate(2025, 1, 1),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	b := valid
	b.Period = "fortnightly"
	if err := b.Validate(); !errors.Is(err, ErrInvalidBudgetPeriod) {
		t.Errorf("bad period error = %v, want ErrInvalidBudgetPeriod", err)
	}

	b = valid
	b.AmountCents = 0
	if err := b.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestRecurringTemplate_Validate(t *testing.T) {
	valid := RecurringTemplate{
		AccountID:   "acc-1",
		AmountCents: 120_000,
		Type:        Expense,
		Frequency:   Monthly,
		StartDate:   NewDate(2025, 1, 31),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	rt := valid
	rt.Type = Transfer
	if err := rt.Validate(); !errors.Is(err, ErrInvalidTransactionType) {
		t.Errorf("transfer template error = %v, want ErrInvalidTransactionType", err)
	}

	rt = valid
	rt.EndDate = NewDate(2024, 12, 31)
	if err := rt.Validate(); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("end before start error = %v, want ErrEndBeforeStart", err)
	}

	rt = valid
	rt.Frequency = "fortnightly"
	if err := rt.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("bad frequency error = %v, want ErrInvalidFrequency", err)
	}
}
