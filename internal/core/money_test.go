package core

import (
	"errors"
	"testing"
)

func TestMoney_Add(t *testing.T) {
	a := NewMoney(1500, "EUR")
	b := NewMoney(-200, "EUR")

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if sum.Cents != 1300 || sum.Currency != "EUR" {
		t.Errorf("Add() = %+v, want 1300 EUR", sum)
	}

	_, err = a.Add(NewMoney(100, "USD"))
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Add() across currencies error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		code    Currency
		wantErr bool
	}{
		{"USD", false},
		{"EUR", false},
		{"XTS", false},
		{"usd", true},
		{"EURO", true},
		{"EU", true},
		{"", true},
		{"E1R", true},
	}
	for _, tt := range tests {
		err := ValidateCurrency(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCurrency(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
	}
}

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"whole number", "50", 5000, false},
		{"single decimal", "9.5", 950, false},
		{"rounds third decimal up", "1.005", 101, false},
		{"rounds third decimal down", "1.004", 100, false},
		{"leading dot", ".50", 50, false},
		{"whitespace trimmed", "  7.25  ", 725, false},
		{"empty", "", 0, true},
		{"negative rejected", "-5.00", 0, true},
		{"plus sign rejected", "+5.00", 0, true},
		{"zero rejected", "0.00", 0, true},
		{"letters rejected", "12a.00", 0, true},
		{"two separators rejected", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
