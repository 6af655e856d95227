package core

import "github.com/shopspring/decimal"

// Aggregation functions are pure and total: an empty input always yields
// zero or an empty mapping, never an error.

// TotalIncome sums the amounts of income transactions.
func TotalIncome(transactions []Transaction) Money {
	var total Money
	for _, t := range transactions {
		if t.Type == Income {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalExpenses sums the amounts of expense transactions.
func TotalExpenses(transactions []Transaction) Money {
	var total Money
	for _, t := range transactions {
		if t.Type == Expense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// NetIncome is income minus expenses.
func NetIncome(transactions []Transaction) Money {
	return TotalIncome(transactions).Sub(TotalExpenses(transactions))
}

// TotalAssets sums asset values.
func TotalAssets(assets []Asset) Money {
	var total Money
	for _, a := range assets {
		total = total.Add(a.Value)
	}
	return total
}

// TotalLiabilities sums liability amounts.
func TotalLiabilities(liabilities []Liability) Money {
	var total Money
	for _, l := range liabilities {
		total = total.Add(l.Amount)
	}
	return total
}

// NetWorth is assets minus liabilities.
func NetWorth(assets []Asset, liabilities []Liability) Money {
	return TotalAssets(assets).Sub(TotalLiabilities(liabilities))
}

// GroupByCategory maps category name to summed signed amount, with
// expenses negated. Map iteration order carries no meaning.
func GroupByCategory(transactions []Transaction) map[string]Money {
	grouped := make(map[string]Money)
	for _, t := range transactions {
		amount := t.Amount
		if t.Type == Expense {
			amount = amount.Neg()
		}
		grouped[t.Category] = grouped[t.Category].Add(amount)
	}
	return grouped
}

// TotalInvested sums cost basis across holdings.
func TotalInvested(investments []Investment) decimal.Decimal {
	total := decimal.Zero
	for _, i := range investments {
		total = total.Add(i.CostBasis())
	}
	return total
}

// TotalMarketValue sums current market value across holdings.
func TotalMarketValue(investments []Investment) decimal.Decimal {
	total := decimal.Zero
	for _, i := range investments {
		total = total.Add(i.MarketValue())
	}
	return total
}

// TotalGain sums derived gain/loss across holdings.
func TotalGain(investments []Investment) decimal.Decimal {
	total := decimal.Zero
	for _, i := range investments {
		total = total.Add(i.Gain())
	}
	return total
}
