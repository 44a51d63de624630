package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/auth"
	"finsight/internal/core"
)

type userView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Initial string `json:"initial"`
	Email   string `json:"email,omitempty"`
}

func newUserView(u auth.User) userView {
	return userView{ID: u.ID, Name: u.Name(), Initial: u.Initial(), Email: u.Email}
}

type categorySlice struct {
	Key      string        `json:"key"`
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Display  string        `json:"display"`
	// Percent of the month's expenses, one decimal.
	Percent float64 `json:"percent"`
}

type trendView struct {
	core.TrendPoint
	DeltaText string `json:"delta_text"`
}

type feedRow struct {
	core.FeedItem
	Key           string `json:"key"`
	DateLabel     string `json:"date_label"`
	AmountDisplay string `json:"amount_display"`
}

type filterView struct {
	Method string `json:"method,omitempty"`
	Above  string `json:"above,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// dashboardView is the template model of the dashboard page.
type dashboardView struct {
	User         userView         `json:"user"`
	Period       core.Period      `json:"period"`
	PeriodLabel  string           `json:"period_label"`
	Prev         core.Period      `json:"prev"`
	Next         core.Period      `json:"next"`
	Totals       core.Totals      `json:"totals"`
	Categories   []categorySlice  `json:"categories"`
	MoneyFlow    []core.MonthFlow `json:"money_flow"`
	ExpenseTrend []trendView      `json:"expense_trend"`
	Transactions []feedRow        `json:"transactions"`
	// FeedCount is the number of items matching the filter.
	FeedCount int        `json:"feed_count"`
	ShowAll   bool       `json:"show_all"`
	Filter    filterView `json:"filter"`

	CategoryOptions []core.Category `json:"-"`
	MethodOptions   []core.Method   `json:"-"`
}

func newDashboardView(u auth.User, d core.Dashboard, f core.FeedFilter, loc *time.Location) dashboardView {
	v := dashboardView{
		User:         newUserView(u),
		Period:       d.Period,
		PeriodLabel:  fmt.Sprintf("%s %d", d.Period.Month, d.Period.Year),
		Prev:         d.Period.Add(-1),
		Next:         d.Period.Add(1),
		Totals:       d.Totals,
		Categories:   make([]categorySlice, 0, len(d.Categories)),
		MoneyFlow:    d.MoneyFlow,
		ExpenseTrend: make([]trendView, 0, len(d.ExpenseTrend)),
		Transactions: make([]feedRow, 0, len(d.Transactions)),
		FeedCount:    len(d.Feed.All),
		ShowAll:      d.ShowAll,
		Filter:       newFilterView(f, loc),

		CategoryOptions: core.Categories,
		MethodOptions:   core.Methods,
	}
	for _, c := range d.Categories {
		v.Categories = append(v.Categories, categorySlice{
			Key:      chartKey(c.Category),
			Category: c.Category,
			Amount:   c.Amount,
			Display:  c.Amount.String(),
			Percent:  percentOf(c.Amount, d.Totals.Expenses),
		})
	}
	for _, p := range d.ExpenseTrend {
		v.ExpenseTrend = append(v.ExpenseTrend, trendView{TrendPoint: p, DeltaText: p.DeltaText()})
	}
	for _, it := range d.Transactions {
		row := feedRow{
			FeedItem:      it,
			DateLabel:     it.Date.In(locOrLocal(loc)).Format("02 Jan 2006"),
			AmountDisplay: it.Amount.String(),
		}
		if it.Kind == core.KindExpense {
			row.Key = chartKey(it.Category)
		}
		v.Transactions = append(v.Transactions, row)
	}
	return v
}

func newFilterView(f core.FeedFilter, loc *time.Location) filterView {
	fv := filterView{Method: f.Method}
	if f.AmountAbove != nil {
		fv.Above = f.AmountAbove.Decimal().String()
	}
	if !f.From.IsZero() {
		fv.From = f.From.In(locOrLocal(loc)).Format(time.DateOnly)
	}
	if !f.To.IsZero() {
		fv.To = f.To.In(locOrLocal(loc)).Format(time.DateOnly)
	}
	return fv
}

func percentOf(part, total core.Money) float64 {
	if total.Paise <= 0 {
		return 0
	}
	return decimal.NewFromInt(part.Paise).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total.Paise)).
		Round(1).
		InexactFloat64()
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
