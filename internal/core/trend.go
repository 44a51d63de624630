package core

import "time"

// TrendMonths is the length of the trailing window.
const TrendMonths = 12

// MonthFlow is one month of the income/expense series.
type MonthFlow struct {
	Period  Period `json:"period"`
	Label   string `json:"label"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// TrendPoint is one month of the expense trend.
type TrendPoint struct {
	Period  Period `json:"period"`
	Label   string `json:"label"`
	Expense Money  `json:"expense"`
	// Delta is this month minus the previous one; unset for the oldest month.
	Delta    Money `json:"delta"`
	HasDelta bool  `json:"has_delta"`
	Highest  bool  `json:"highest"`
}

// DeltaText describes the change against the previous month.
func (p TrendPoint) DeltaText() string {
	switch {
	case !p.HasDelta:
		return ""
	case p.Delta.Paise > 0:
		return "+" + p.Delta.String() + " more"
	case p.Delta.Paise < 0:
		return FormatINR(-p.Delta.Paise) + " less"
	}
	return "Same"
}

// window returns the TrendMonths periods ending at end, oldest first.
func window(end Period) []Period {
	out := make([]Period, TrendMonths)
	for i := range out {
		out[i] = end.Add(i - (TrendMonths - 1))
	}
	return out
}

func sumByPeriod(records []Record, loc *time.Location) map[Period]Money {
	sums := make(map[Period]Money)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		p := PeriodOf(r.Date, loc)
		sums[p] = sums[p].Add(r.Amount)
	}
	return sums
}

// TrailingTwelveMonths sums income and expenses for the twelve months ending
// at end, oldest first. Months without records report zero.
func TrailingTwelveMonths(income, expenses []Record, end Period, loc *time.Location) []MonthFlow {
	in := sumByPeriod(income, loc)
	out := sumByPeriod(expenses, loc)

	flows := make([]MonthFlow, 0, TrendMonths)
	for _, p := range window(end) {
		flows = append(flows, MonthFlow{
			Period:  p,
			Label:   p.Label(),
			Income:  in[p],
			Expense: out[p],
		})
	}
	return flows
}

// MonthlyTrendWithDelta walks the same twelve months over expenses only,
// adds the change against the previous month and flags the first month with
// the largest total.
func MonthlyTrendWithDelta(expenses []Record, end Period, loc *time.Location) []TrendPoint {
	sums := sumByPeriod(expenses, loc)

	points := make([]TrendPoint, 0, TrendMonths)
	highest := 0
	for i, p := range window(end) {
		pt := TrendPoint{Period: p, Label: p.Label(), Expense: sums[p]}
		if i > 0 {
			pt.Delta = pt.Expense.Sub(points[i-1].Expense)
			pt.HasDelta = true
			if pt.Expense.Paise > points[highest].Expense.Paise {
				highest = i
			}
		}
		points = append(points, pt)
	}
	points[highest].Highest = true
	return points
}
