package core

import (
	"fmt"
	"strconv"
	"strings"
)

// DateDisplayLayout is the default layout for user-facing dates,
// e.g. "Apr 1, 2023".
const DateDisplayLayout = "Jan 2, 2006"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"AUD": "A$",
	"CAD": "C$",
	"INR": "₹",
}

// FormatCurrency renders cents as a grouped decimal string with the
// currency's symbol, falling back to the ISO code for unknown currencies.
func FormatCurrency(m Money, code string) string {
	symbol, ok := currencySymbols[strings.ToUpper(code)]
	if !ok {
		symbol = strings.ToUpper(code) + " "
	}

	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, groupThousands(cents/100), cents%100)
}

// FormatDate renders a canonical date with the given layout. The invalid
// sentinel degrades to the literal "Invalid Date" and an absent date to
// the empty string; neither ever panics.
func FormatDate(d Date, layout string) string {
	if d.IsInvalid() {
		return InvalidDateText
	}
	if d.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DateDisplayLayout
	}
	return d.Format(layout)
}

// FormatPercent renders an integer percentage for display.
func FormatPercent(value int) string {
	return strconv.Itoa(value) + "%"
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
