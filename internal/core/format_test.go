package core

import "testing"

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		name  string
		cents int64
		code  string
		want  string
	}{
		{"usd", 1234, "USD", "$12.34"},
		{"grouping", 123456789, "USD", "$1,234,567.89"},
		{"negative", -500, "USD", "-$5.00"},
		{"zero", 0, "EUR", "€0.00"},
		{"lowercase code", 100, "gbp", "£1.00"},
		{"unknown code", 100, "CHF", "CHF 1.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatCurrency(Money{Cents: tc.cents}, tc.code); got != tc.want {
				t.Fatalf("FormatCurrency = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(NewDate(2023, 4, 1), ""); got != "Apr 1, 2023" {
		t.Fatalf("FormatDate = %q, want %q", got, "Apr 1, 2023")
	}
	if got := FormatDate(InvalidDate(), ""); got != InvalidDateText {
		t.Fatalf("FormatDate(invalid) = %q, want %q", got, InvalidDateText)
	}
	if got := FormatDate(Date{}, ""); got != "" {
		t.Fatalf("FormatDate(zero) = %q, want empty", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(150); got != "150%" {
		t.Fatalf("FormatPercent = %q, want 150%%", got)
	}
}
