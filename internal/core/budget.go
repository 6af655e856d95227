package core

import (
	"math"
	"time"
)

// BudgetProgress is the computed standing of a budget against its matching
// expense transactions. Remaining may be negative (over budget) and
// Percentage is deliberately unclamped so 131% can be shown as text;
// display layers clamp bar widths on their own.
type BudgetProgress struct {
	Spent      Money `json:"spent"`
	Remaining  Money `json:"remaining"`
	Percentage int   `json:"percentage"`
}

// Progress computes spent/remaining/percentage for a budget. Transactions
// count when they are expenses in the budget's category dated within
// [StartDate, EndDate], with an absent EndDate treated as now. A malformed
// date on the budget or on a transaction excludes that transaction from
// the filtered set rather than aborting the calculation. A zero budget
// amount pins the percentage at 0 instead of producing NaN or Inf.
func Progress(budget Budget, transactions []Transaction, now time.Time) BudgetProgress {
	end := budget.EndDate
	if !end.Usable() && !end.IsInvalid() {
		end = DateOf(now)
	}

	var spent Money
	for _, t := range transactions {
		if t.Type != Expense || t.Category != budget.Category {
			continue
		}
		if !inRange(t.Date, budget.StartDate, end) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	progress := BudgetProgress{
		Spent:     spent,
		Remaining: budget.Amount.Sub(spent),
	}
	if budget.Amount.Cents > 0 {
		progress.Percentage = int(math.Round(float64(spent.Cents) / float64(budget.Amount.Cents) * 100))
	}
	return progress
}

// inRange reports whether d falls within [start, end]. Unusable dates on
// either bound or on d itself count as outside the range.
func inRange(d, start, end Date) bool {
	if !d.Usable() || !start.Usable() || !end.Usable() {
		return false
	}
	return !d.Before(start.Time) && !d.After(end.Time)
}
