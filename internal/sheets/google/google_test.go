package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finsight/internal/core"
)

func march() core.MonthSummary {
	return core.MonthSummary{
		Period: core.NewPeriod(2025, time.March),
		Totals: core.Totals{
			Income:   core.Rupees(50000),
			Expenses: core.MustParseAmount("11200.01"),
			Balance:  core.MustParseAmount("38799.99"),
			Savings:  core.MustParseAmount("38799.99"),
		},
		Categories: []core.CategoryAmount{
			{Category: core.Rent, Amount: core.Rupees(10000)},
			{Category: core.BorrowReturn, Amount: core.MustParseAmount("1200.01")},
		},
	}
}

func TestSummaryRowsLayout(t *testing.T) {
	rows := summaryRows(march())
	require.Len(t, rows, 9)
	assert.Equal(t, []any{"Period", "2025-03"}, rows[0])
	assert.Equal(t, []any{"Income", 50000.0}, rows[1])
	assert.Empty(t, rows[5])
	assert.Equal(t, []any{"Category", "Amount"}, rows[6])
	assert.Equal(t, []any{"Borrow Return", 1200.01}, rows[8])
}

func TestParseSummaryRoundTrip(t *testing.T) {
	got, err := parseSummary(summaryRows(march()))
	require.NoError(t, err)
	assert.Equal(t, march(), got)
}

func TestParseSummaryFormattedCells(t *testing.T) {
	values := [][]any{
		{"Period", "2024-12"},
		{"Income", "₹1,23,456.50"},
		{"Balance", "-500"},
		{"Category", "Amount"},
		{"Food", 12000000.0},
	}
	got, err := parseSummary(values)
	require.NoError(t, err)
	assert.Equal(t, core.NewPeriod(2024, time.December), got.Period)
	assert.Equal(t, core.MustParseAmount("123456.50"), got.Totals.Income)
	assert.Equal(t, core.Rupees(-500), got.Totals.Balance)
	assert.Equal(t, core.Rupees(12000000), got.Categories[0].Amount)
}

func TestParseSummaryErrors(t *testing.T) {
	_, err := parseSummary([][]any{{"Income", "10"}})
	assert.ErrorContains(t, err, "missing Period")

	_, err = parseSummary([][]any{{"Period", "2025-13"}})
	assert.Error(t, err)

	_, err = parseSummary([][]any{{"Period", "2025-01"}, {"Income", "ten"}})
	assert.ErrorContains(t, err, "row 2")
}

func TestSheetTitle(t *testing.T) {
	assert.Equal(t, "Summary user1", sheetTitle("Summary user:1"))
	assert.Equal(t, "Summary ab", sheetTitle("Summary [a]/b*?"))
	assert.Len(t, []rune(sheetTitle(strings.Repeat("x", 150))), 100)
}

func TestNewWithServiceValidation(t *testing.T) {
	_, err := NewWithService(nil, Config{}, nil)
	assert.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")

	m, err := NewWithService(nil, Config{SpreadsheetID: "sid"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Summary u1", m.TabName("u1"))
}

func TestCredentials(t *testing.T) {
	_, err := credentials(Config{})
	assert.ErrorContains(t, err, "missing service account credentials")

	b, err := credentials(Config{ServiceAccountJSON: `{"type":"service_account"}`})
	require.NoError(t, err)
	assert.Contains(t, string(b), "service_account")

	_, err = credentials(Config{ServiceAccountFile: "/does/not/exist.json"})
	assert.ErrorContains(t, err, "read service account file")
}

type fakeSheets struct {
	mu       sync.Mutex
	tabs     []string
	calls    []string
	lastBody map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	f.calls = append(f.calls, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sid"):
		sheets := make([]map[string]any, 0, len(f.tabs))
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
		return
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.Unmarshal(body, &req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
			}
		}
	case r.Method == http.MethodPut:
		f.lastBody = map[string]any{}
		_ = json.Unmarshal(body, &f.lastBody)
	}
	_, _ = w.Write([]byte("{}"))
}

func (f *fakeSheets) count(prefix, suffix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) && strings.HasSuffix(c, suffix) {
			n++
		}
	}
	return n
}

func newTestMirror(t *testing.T, fake *fakeSheets) *Mirror {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	m, err := NewWithService(svc, Config{SpreadsheetID: "sid", SheetPrefix: "Summary"}, nil)
	require.NoError(t, err)
	return m
}

func TestWriteMonthSummaryCreatesTabOnce(t *testing.T) {
	fake := &fakeSheets{}
	m := newTestMirror(t, fake)
	ctx := context.Background()

	require.NoError(t, m.WriteMonthSummary(ctx, "u1", march()))
	require.NoError(t, m.WriteMonthSummary(ctx, "u1", march()))

	assert.Equal(t, []string{"Summary u1"}, fake.tabs)
	assert.Equal(t, 1, fake.count("POST", ":batchUpdate"))
	assert.Equal(t, 2, fake.count("POST", ":clear"))
	assert.Equal(t, 2, fake.count("PUT", ""))

	values, ok := fake.lastBody["values"].([]any)
	require.True(t, ok, "update body carries values")
	assert.Len(t, values, 9)
}

func TestReadMonthSummaryMissingTab(t *testing.T) {
	m := newTestMirror(t, &fakeSheets{})

	_, ok, err := m.ReadMonthSummary(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_RejectsNonServiceAccountJSON(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:      "sheet-1",
		ServiceAccountJSON: `{"type":"authorized_user"}`,
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse service account credentials")
}
