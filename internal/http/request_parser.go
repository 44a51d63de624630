package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finsight/internal/core"
)

const maxBodyBytes = 64 << 10

// RequestBodyParser reads JSON or form-encoded bodies through one interface.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once, up to 64 KiB.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, else as a
// form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Has reports whether key was sent, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parsePeriod reads year and month=1..12 from the query. Missing or
// out-of-range values fall back to current.
func parsePeriod(q url.Values, current core.Period) core.Period {
	p := current
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			p.Year = y
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			p.Month = time.Month(m)
		}
	}
	return p
}

// parseDate reads a YYYY-MM-DD value as midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// parseFeedFilter reads method, above, from and to. Bad values are
// validation errors rather than silently ignored filters.
func parseFeedFilter(q url.Values, loc *time.Location) (core.FeedFilter, error) {
	var f core.FeedFilter
	f.Method = sanitizeInput(q.Get("method"))

	if v := strings.TrimSpace(q.Get("above")); v != "" {
		amt, err := core.ParseAmount(v)
		if err != nil {
			return core.FeedFilter{}, &core.ValidationError{Field: "above", Err: err}
		}
		f.AmountAbove = &amt
	}
	for _, bound := range []struct {
		key string
		dst *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := strings.TrimSpace(q.Get(bound.key))
		if v == "" {
			continue
		}
		t, err := parseDate(v, loc)
		if err != nil {
			return core.FeedFilter{}, &core.ValidationError{Field: bound.key, Err: err}
		}
		*bound.dst = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return core.FeedFilter{}, &core.ValidationError{Field: "to", Err: fmt.Errorf("ends before from")}
	}
	return f, nil
}

// parseBool accepts the usual truthy spellings of a checkbox or query flag.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
