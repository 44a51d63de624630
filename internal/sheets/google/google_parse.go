package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Row labels of the summary block.
const (
	labelPeriod   = "Period"
	labelIncome   = "Income"
	labelExpenses = "Expenses"
	labelBalance  = "Balance"
	labelSavings  = "Savings"
	labelCategory = "Category"
)

// summaryRows lays s out as a two-column block:
//
//	Period   | 2025-03
//	Income   | 50000
//	Expenses | 11200
//	Balance  | 38800
//	Savings  | 38800
//	(blank)
//	Category | Amount
//	Rent     | 10000
//	...
func summaryRows(s core.MonthSummary) [][]any {
	rows := [][]any{
		{labelPeriod, s.Period.String()},
		{labelIncome, s.Totals.Income.Float()},
		{labelExpenses, s.Totals.Expenses.Float()},
		{labelBalance, s.Totals.Balance.Float()},
		{labelSavings, s.Totals.Savings.Float()},
		{},
		{labelCategory, "Amount"},
	}
	for _, c := range s.Categories {
		rows = append(rows, []any{string(c.Category), c.Amount.Float()})
	}
	return rows
}

// parseSummary reads back a block written by summaryRows.
func parseSummary(values [][]any) (core.MonthSummary, error) {
	var s core.MonthSummary
	inCategories := false
	seenPeriod := false
	for i, row := range values {
		label := strings.TrimSpace(cell(row, 0))
		if label == "" {
			continue
		}
		if inCategories {
			amt, err := parseRupees(cell(row, 1))
			if err != nil {
				return core.MonthSummary{}, fmt.Errorf("row %d: %w", i+1, err)
			}
			s.Categories = append(s.Categories, core.CategoryAmount{Category: core.Category(label), Amount: amt})
			continue
		}
		switch label {
		case labelPeriod:
			p, err := parsePeriod(cell(row, 1))
			if err != nil {
				return core.MonthSummary{}, fmt.Errorf("row %d: %w", i+1, err)
			}
			s.Period, seenPeriod = p, true
		case labelCategory:
			inCategories = true
		case labelIncome, labelExpenses, labelBalance, labelSavings:
			amt, err := parseRupees(cell(row, 1))
			if err != nil {
				return core.MonthSummary{}, fmt.Errorf("row %d: %w", i+1, err)
			}
			switch label {
			case labelIncome:
				s.Totals.Income = amt
			case labelExpenses:
				s.Totals.Expenses = amt
			case labelBalance:
				s.Totals.Balance = amt
			case labelSavings:
				s.Totals.Savings = amt
			}
		}
	}
	if !seenPeriod {
		return core.MonthSummary{}, fmt.Errorf("unexpected summary layout: missing %s row", labelPeriod)
	}
	return s, nil
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if f, ok := row[i].(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(row[i])
}

// parseRupees reads a rupee amount, possibly negative, into paise.
func parseRupees(s string) (core.Money, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "₹"), ",", "")
	if s == "" {
		return core.Money{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return core.Money{Paise: d.Shift(2).Round(0).IntPart()}, nil
}

func parsePeriod(s string) (core.Period, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return core.Period{}, fmt.Errorf("parse period %q", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return core.Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return core.Period{}, fmt.Errorf("parse period %q: bad month", s)
	}
	return core.NewPeriod(year, time.Month(month)), nil
}
