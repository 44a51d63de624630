package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"finsight/internal/core"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestParsePeriod(t *testing.T) {
	current := core.Period{Year: 2025, Month: time.March}
	tests := []struct {
		name  string
		query url.Values
		want  core.Period
	}{
		{"empty uses current", url.Values{}, current},
		{"both", url.Values{"year": {"2024"}, "month": {"11"}}, core.Period{Year: 2024, Month: time.November}},
		{"month only", url.Values{"month": {"1"}}, core.Period{Year: 2025, Month: time.January}},
		{"month out of range", url.Values{"month": {"13"}}, current},
		{"month zero", url.Values{"month": {"0"}}, current},
		{"garbage year", url.Values{"year": {"abc"}, "month": {"6"}}, core.Period{Year: 2025, Month: time.June}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePeriod(tt.query, current); got != tt.want {
				t.Errorf("parsePeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2025-03-05", ist)
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	want := time.Date(2025, time.March, 5, 0, 0, 0, 0, ist)
	if !got.Equal(want) {
		t.Errorf("parseDate = %v, want %v", got, want)
	}
	if _, err := parseDate("05/03/2025", ist); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestParseFeedFilter(t *testing.T) {
	f, err := parseFeedFilter(url.Values{
		"method": {"Card"},
		"above":  {"500"},
		"from":   {"2025-03-01"},
		"to":     {"2025-03-15"},
	}, ist)
	if err != nil {
		t.Fatalf("parseFeedFilter: %v", err)
	}
	if f.Method != "Card" {
		t.Errorf("Method = %q", f.Method)
	}
	if f.AmountAbove == nil || *f.AmountAbove != core.Rupees(500) {
		t.Errorf("AmountAbove = %v", f.AmountAbove)
	}
	if f.From.Day() != 1 || f.To.Day() != 15 {
		t.Errorf("range = %v..%v", f.From, f.To)
	}

	empty, err := parseFeedFilter(url.Values{}, ist)
	if err != nil || empty.AmountAbove != nil || !empty.From.IsZero() {
		t.Errorf("empty filter = %+v, %v", empty, err)
	}
}

func TestParseFeedFilter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		field string
	}{
		{"bad amount", url.Values{"above": {"lots"}}, "above"},
		{"bad from", url.Values{"from": {"yesterday"}}, "from"},
		{"inverted range", url.Values{"from": {"2025-03-10"}, "to": {"2025-03-01"}}, "to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFeedFilter(tt.query, ist)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"amount": 1250.5, "title": "  Groceries  ", "category": "Food", "empty": null}`
	req := httptest.NewRequest("POST", "/api/records/expenses", strings.NewReader(body))

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.IsJSON() {
		t.Error("IsJSON = false")
	}
	if got := p.Get("amount"); got != "1250.5" {
		t.Errorf("amount = %q", got)
	}
	if got := p.Get("title"); got != "Groceries" {
		t.Errorf("title = %q", got)
	}
	if !p.Has("category") || p.Has("method") || p.Has("empty") {
		t.Error("Has reports wrong keys")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/records/income", strings.NewReader("amount=500&title="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.IsJSON() {
		t.Error("IsJSON = true for form body")
	}
	if p.Get("amount") != "500" {
		t.Errorf("amount = %q", p.Get("amount"))
	}
	if !p.Has("title") {
		t.Error("empty form value should still be present")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Has("amount") || p.Get("amount") != "" {
		t.Error("empty body should have no values")
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount": `))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "ON", " yes "} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "false", "nope"} {
		if parseBool(s) {
			t.Errorf("parseBool(%q) = true", s)
		}
	}
}
