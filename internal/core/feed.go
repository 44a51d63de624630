package core

import (
	"slices"
	"strings"
	"time"
)

// RecentFeedSize is how many items the collapsed feed shows.
const RecentFeedSize = 5

// FeedItem is a record prepared for the transaction list.
type FeedItem struct {
	Record
	Description string `json:"description"`
	// MethodLabel is the effective method, or "—" for income.
	MethodLabel string `json:"method_label"`
}

// FeedFilter narrows the merged feed. The zero value keeps everything.
type FeedFilter struct {
	// Method is matched case-insensitively as a substring of the effective
	// method. Empty or "all" disables it.
	Method string
	// AmountAbove keeps items strictly above the threshold when set.
	AmountAbove *Money
	// From and To bound the calendar date, inclusive. Zero means open.
	From time.Time
	To   time.Time
}

// Feed holds the filtered transaction list and its collapsed view.
type Feed struct {
	All    []FeedItem `json:"all"`
	Recent []FeedItem `json:"recent"`
}

// View returns the full list or the recent slice.
func (f Feed) View(showAll bool) []FeedItem {
	if showAll {
		return f.All
	}
	return f.Recent
}

// BuildTransactionFeed merges income and expenses newest first and applies
// the filter.
func BuildTransactionFeed(income, expenses []Record, filter FeedFilter, loc *time.Location) Feed {
	items := make([]FeedItem, 0, len(income)+len(expenses))
	for _, r := range income {
		r.Kind = KindIncome
		items = append(items, FeedItem{Record: r, Description: "Income Added", MethodLabel: "—"})
	}
	for _, r := range expenses {
		r.Kind = KindExpense
		desc := strings.TrimSpace(r.Title)
		if desc == "" {
			desc = "Expense"
		}
		items = append(items, FeedItem{Record: r, Description: desc, MethodLabel: r.EffectiveMethod()})
	}

	slices.SortStableFunc(items, func(a, b FeedItem) int {
		return b.Date.Compare(a.Date)
	})

	all := items[:0]
	for _, it := range items {
		if filter.matches(it.Record, loc) {
			all = append(all, it)
		}
	}

	recent := all
	if len(recent) > RecentFeedSize {
		recent = recent[:RecentFeedSize]
	}
	return Feed{All: all, Recent: recent}
}

func (f FeedFilter) matches(r Record, loc *time.Location) bool {
	if m := strings.ToLower(strings.TrimSpace(f.Method)); m != "" && m != "all" {
		if !strings.Contains(strings.ToLower(r.EffectiveMethod()), m) {
			return false
		}
	}
	if f.AmountAbove != nil && r.Amount.Paise <= f.AmountAbove.Paise {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		day := civilDate(r.Date, loc)
		if !f.From.IsZero() && day < civilDate(f.From, loc) {
			return false
		}
		if !f.To.IsZero() && day > civilDate(f.To, loc) {
			return false
		}
	}
	return true
}
