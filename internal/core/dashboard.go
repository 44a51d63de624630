package core

import "time"

// DashboardInput is everything the dashboard view-model is computed from.
// Records must already carry dates; see FillMissingDates.
type DashboardInput struct {
	Income   []Record
	Expenses []Record
	Period   Period
	Filter   FeedFilter
	ShowAll  bool
	Location *time.Location
}

// Dashboard is the display-ready aggregation for one month.
type Dashboard struct {
	Period       Period           `json:"period"`
	Totals       Totals           `json:"totals"`
	Categories   []CategoryAmount `json:"categories"`
	MoneyFlow    []MonthFlow      `json:"money_flow"`
	ExpenseTrend []TrendPoint     `json:"expense_trend"`
	Feed         Feed             `json:"feed"`
	// Transactions is Feed.All or Feed.Recent depending on ShowAll.
	Transactions []FeedItem `json:"transactions"`
	ShowAll      bool       `json:"show_all"`
}

// BuildDashboard runs every aggregation for in.Period.
func BuildDashboard(in DashboardInput) Dashboard {
	monthIncome := FilterByMonth(in.Income, in.Period, in.Location)
	monthExpenses := FilterByMonth(in.Expenses, in.Period, in.Location)
	feed := BuildTransactionFeed(monthIncome, monthExpenses, in.Filter, in.Location)

	return Dashboard{
		Period:       in.Period,
		Totals:       ComputeTotals(monthIncome, monthExpenses),
		Categories:   CategoryBreakdown(monthExpenses),
		MoneyFlow:    TrailingTwelveMonths(in.Income, in.Expenses, in.Period, in.Location),
		ExpenseTrend: MonthlyTrendWithDelta(in.Expenses, in.Period, in.Location),
		Feed:         feed,
		Transactions: feed.View(in.ShowAll),
		ShowAll:      in.ShowAll,
	}
}
