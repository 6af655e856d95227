package core

import "time"

// monthLabelLayout keys trend buckets by formatted month-year.
const monthLabelLayout = "Jan 2006"

// MonthBucket is one point in a monthly trend series.
type MonthBucket struct {
	Label    string `json:"label"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Net      Money  `json:"net"`
}

// MonthlySeries buckets transactions into the last `months` calendar months
// ending at now, oldest first. The bucket set is fixed up front, so
// transactions dated outside it, or without a usable date, are silently
// dropped rather than reported as errors.
func MonthlySeries(transactions []Transaction, months int, now time.Time) []MonthBucket {
	if months <= 0 {
		return nil
	}

	series := make([]MonthBucket, months)
	index := make(map[string]int, months)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		label := first.AddDate(0, i, 0).Format(monthLabelLayout)
		series[i] = MonthBucket{Label: label}
		index[label] = i
	}

	for _, t := range transactions {
		if !t.Date.Usable() {
			continue
		}
		i, ok := index[t.Date.Format(monthLabelLayout)]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			series[i].Income = series[i].Income.Add(t.Amount)
		case Expense:
			series[i].Expenses = series[i].Expenses.Add(t.Amount)
		}
	}

	for i := range series {
		series[i].Net = series[i].Income.Sub(series[i].Expenses)
	}
	return series
}
