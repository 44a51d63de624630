package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func income(amount int64, at time.Time) Record {
	return Record{Kind: KindIncome, Amount: Rupees(amount), Date: at}
}

func expense(amount int64, cat Category, at time.Time) Record {
	return Record{Kind: KindExpense, Amount: Rupees(amount), Category: cat, Title: string(cat), Date: at}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, ist)
}

func TestFilterByMonth_Boundaries(t *testing.T) {
	march := Period{Year: 2025, Month: time.March}
	start := march.Start(ist)
	end := march.End(ist)

	records := []Record{
		income(1, start.Add(-time.Nanosecond)), // last instant of February
		income(2, start),
		income(3, end.Add(-time.Nanosecond)),
		income(4, end), // first instant of April
		income(5, time.Time{}),
		income(6, time.Date(2024, time.March, 10, 0, 0, 0, 0, ist)), // same month, other year
	}

	got := FilterByMonth(records, march, ist)
	require.Len(t, got, 2)
	assert.Equal(t, Rupees(2), got[0].Amount)
	assert.Equal(t, Rupees(3), got[1].Amount)
}

func TestFilterByMonth_UsesLocation(t *testing.T) {
	// 20:00 UTC on 28 Feb is already 1 March in India.
	r := income(10, time.Date(2025, time.February, 28, 20, 0, 0, 0, time.UTC))

	assert.Len(t, FilterByMonth([]Record{r}, Period{2025, time.March}, ist), 1)
	assert.Len(t, FilterByMonth([]Record{r}, Period{2025, time.February}, time.UTC), 1)
	assert.Empty(t, FilterByMonth([]Record{r}, Period{2025, time.February}, ist))
}

func TestComputeTotals_Scenario(t *testing.T) {
	inc := []Record{income(50000, day(2025, time.March, 3))}
	exp := []Record{
		expense(1200, Food, day(2025, time.March, 5)),
		expense(10000, Rent, day(2025, time.March, 1)),
	}

	got := ComputeTotals(inc, exp)
	assert.Equal(t, Rupees(50000), got.Income)
	assert.Equal(t, Rupees(11200), got.Expenses)
	assert.Equal(t, Rupees(38800), got.Balance)
	assert.Equal(t, Rupees(38800), got.Savings)

	breakdown := CategoryBreakdown(exp)
	assert.Equal(t, []CategoryAmount{
		{Category: Rent, Amount: Rupees(10000)},
		{Category: Food, Amount: Rupees(1200)},
	}, breakdown)
}

func TestComputeTotals_NegativeBalance(t *testing.T) {
	exp := []Record{
		expense(3000, Bills, day(2025, time.March, 2)),
		expense(2000, Travel, day(2025, time.March, 9)),
	}

	got := ComputeTotals(nil, exp)
	assert.Equal(t, Money{}, got.Income)
	assert.Equal(t, Rupees(-5000), got.Balance)
	assert.Equal(t, Money{}, got.Savings)
}

func TestComputeTotals_Linear(t *testing.T) {
	a := []Record{income(100, day(2025, 1, 1)), income(250, day(2025, 1, 2))}
	b := []Record{income(75, day(2025, 1, 3))}

	whole := ComputeTotals(append(append([]Record{}, a...), b...), nil)
	parts := ComputeTotals(a, nil).Income.Add(ComputeTotals(b, nil).Income)
	assert.Equal(t, parts, whole.Income)
}

func TestComputeTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, ComputeTotals(nil, nil))
	assert.Empty(t, CategoryBreakdown(nil))
}

func TestCategoryBreakdown(t *testing.T) {
	exp := []Record{
		expense(100, Food, day(2025, 1, 1)),
		{Kind: KindExpense, Amount: Rupees(40), Date: day(2025, 1, 2)},                    // missing category
		{Kind: KindExpense, Amount: Rupees(60), Category: "Gifts", Date: day(2025, 1, 3)}, // unknown category
		expense(100, Shopping, day(2025, 1, 4)),
		expense(500, Rent, day(2025, 1, 5)),
		expense(20, Food, day(2025, 1, 6)),
	}

	got := CategoryBreakdown(exp)
	assert.Equal(t, []CategoryAmount{
		{Category: Rent, Amount: Rupees(500)},
		{Category: Food, Amount: Rupees(120)},
		{Category: Other, Amount: Rupees(100)},
		{Category: Shopping, Amount: Rupees(100)}, // tie with Other keeps first appearance
	}, got)

	var total Money
	for _, c := range got {
		total = total.Add(c.Amount)
	}
	assert.Equal(t, sumAmounts(exp), total)
}

func TestFillMissingDates(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	dated := day(2025, time.May, 2)
	in := []Record{income(1, time.Time{}), income(2, dated)}

	out := FillMissingDates(in, now)
	assert.Equal(t, now, out[0].Date)
	assert.Equal(t, dated, out[1].Date)
	assert.True(t, in[0].Date.IsZero(), "input must not be modified")
}

func TestSummarizeMonth(t *testing.T) {
	inc := []Record{income(50000, day(2025, time.March, 3)), income(1, day(2025, time.April, 1))}
	exp := []Record{
		expense(1200, Food, day(2025, time.March, 5)),
		expense(10000, Rent, day(2025, time.March, 1)),
		expense(300, Bills, day(2025, time.February, 28)),
	}

	s := SummarizeMonth(inc, exp, Period{Year: 2025, Month: time.March}, ist)
	assert.Equal(t, Rupees(38800), s.Totals.Balance)
	require.Len(t, s.Categories, 2)
	assert.Equal(t, Rent, s.Categories[0].Category)
}
