package core

import (
	"fmt"
	"time"
)

// Period is a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod normalizes out-of-range months through year rollover, so
// NewPeriod(2025, 0) is December 2024.
func NewPeriod(year int, month time.Month) Period {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

// PeriodOf returns the calendar month t falls in, read in loc.
func PeriodOf(t time.Time, loc *time.Location) Period {
	t = t.In(locOrLocal(loc))
	return Period{Year: t.Year(), Month: t.Month()}
}

// Add moves the period by n months, crossing years as needed.
func (p Period) Add(n int) Period {
	return NewPeriod(p.Year, p.Month+time.Month(n))
}

// Start is the first instant of the period in loc.
func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, locOrLocal(loc))
}

// End is the first instant of the following period in loc.
func (p Period) End(loc *time.Location) time.Time {
	return p.Add(1).Start(loc)
}

// Contains reports whether t falls in the period. Zero times never match.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	if t.IsZero() {
		return false
	}
	return PeriodOf(t, loc) == p
}

// Label is the short month name used on chart axes.
func (p Period) Label() string {
	return p.Month.String()[:3]
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// civilDate packs the calendar date of t in loc as yyyymmdd for comparisons.
func civilDate(t time.Time, loc *time.Location) int {
	y, m, d := t.In(locOrLocal(loc)).Date()
	return y*10000 + int(m)*100 + d
}
