package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"simple dot", "12.34", 1234, false},
		{"simple comma", "12,34", 1234, false},
		{"integer", "42", 4200, false},
		{"single fractional digit", "12.3", 1230, false},
		{"third digit rounds down", "12.344", 1234, false},
		{"third digit rounds up", "12.345", 1235, false},
		{"leading dot", ".50", 50, false},
		{"whitespace trimmed", "  7.00  ", 700, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"zero with fraction", "0.00", 0, true},
		{"negative", "-5.00", 0, true},
		{"explicit plus", "+5.00", 0, true},
		{"two separators", "1.2.3", 0, true},
		{"letters", "12a.34", 0, true},
		{"fraction letters", "12.3a", 0, true},
		{"overflow", "999999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{100, "1.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-5, "-0.05"},
		{-123456, "-1234.56"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 1234}).Units(); got != 12.34 {
		t.Errorf("Units() = %f, want 12.34", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("positive amount: %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Errorf("zero amount: %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
}
