package core

import (
	"slices"
	"time"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// Totals is the headline figures for a month.
type Totals struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	// Balance may be negative.
	Balance Money `json:"balance"`
	// Savings is Balance clamped at zero.
	Savings Money `json:"savings"`
}

// FilterByMonth returns the records dated within p, read in loc.
func FilterByMonth(records []Record, p Period, loc *time.Location) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if p.Contains(r.Date, loc) {
			out = append(out, r)
		}
	}
	return out
}

// FillMissingDates returns a copy of records where a missing date is set to now.
func FillMissingDates(records []Record, now time.Time) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		if out[i].Date.IsZero() {
			out[i].Date = now
		}
	}
	return out
}

// ComputeTotals sums already-filtered income and expenses.
func ComputeTotals(income, expenses []Record) Totals {
	t := Totals{
		Income:   sumAmounts(income),
		Expenses: sumAmounts(expenses),
	}
	t.Balance = t.Income.Sub(t.Expenses)
	if t.Balance.Paise > 0 {
		t.Savings = t.Balance
	}
	return t
}

// CategoryBreakdown sums expenses per category, largest first. Records
// without a known category count as Other. Equal sums keep the order in
// which the categories first appeared.
func CategoryBreakdown(expenses []Record) []CategoryAmount {
	idx := make(map[Category]int)
	out := make([]CategoryAmount, 0, len(Categories))
	for _, e := range expenses {
		c := e.Category.OrOther()
		i, ok := idx[c]
		if !ok {
			i = len(out)
			idx[c] = i
			out = append(out, CategoryAmount{Category: c})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		switch {
		case a.Amount.Paise > b.Amount.Paise:
			return -1
		case a.Amount.Paise < b.Amount.Paise:
			return 1
		}
		return 0
	})
	return out
}

func sumAmounts(records []Record) Money {
	var m Money
	for _, r := range records {
		m = m.Add(r.Amount)
	}
	return m
}

// MonthSummary is the headline view of one month, used by exports and the
// spreadsheet mirror.
type MonthSummary struct {
	Period     Period           `json:"period"`
	Totals     Totals           `json:"totals"`
	Categories []CategoryAmount `json:"categories"`
}

// SummarizeMonth filters both lists to p and totals them.
func SummarizeMonth(income, expenses []Record, p Period, loc *time.Location) MonthSummary {
	monthIncome := FilterByMonth(income, p, loc)
	monthExpenses := FilterByMonth(expenses, p, loc)
	return MonthSummary{
		Period:     p,
		Totals:     ComputeTotals(monthIncome, monthExpenses),
		Categories: CategoryBreakdown(monthExpenses),
	}
}
