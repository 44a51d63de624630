// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer paise so sums stay exact. Parsing goes through
// shopspring/decimal and rounds half-up to two decimal places.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in paise (1/100 rupee).
type Money struct {
	Paise int64
}

// MaxPaise is the largest single amount accepted (one lakh crore rupees).
// Sums of up to ninety thousand such amounts still fit in an int64.
const MaxPaise int64 = 1e14

var maxRupees = decimal.New(MaxPaise, -2)

// ParseAmount converts user input to Money.
//
// It accepts an optional leading "₹" and Indian or western digit grouping
// commas, and rounds half-up on the third decimal place. Zero, negative or
// malformed amounts return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("1,200")     -> 120000 paise
//	ParseAmount("₹12.345")   -> 1235 paise
//	ParseAmount("1,23,456.5") -> 12345650 paise
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.GreaterThan(maxRupees) {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Paise: d.Shift(2).Round(0).IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MustParseAmount is ParseAmount for literals known to be valid.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("core: invalid amount %q", s))
	}
	return m
}

// Rupees builds Money from a whole rupee amount.
func Rupees(r int64) Money {
	return Money{Paise: r * 100}
}

func (m Money) Validate() error {
	if m.Paise <= 0 || m.Paise > MaxPaise {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Paise: m.Paise + o.Paise}
}

func (m Money) Sub(o Money) Money {
	return Money{Paise: m.Paise - o.Paise}
}

func (m Money) IsZero() bool {
	return m.Paise == 0
}

// Decimal returns the rupee value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Paise, -2)
}

// Float returns the rupee value as a float64 for charts.
// Use Paise for calculations.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) String() string {
	return FormatINR(m.Paise)
}

// MarshalJSON encodes the rupee value as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or string in rupees. It does not
// validate the sign; callers do that. Magnitudes above MaxPaise are rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	s = strings.ReplaceAll(strings.TrimPrefix(s, "₹"), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, ErrInvalidAmount)
	}
	if d.Abs().GreaterThan(maxRupees) {
		return fmt.Errorf("amount %q out of range: %w", s, ErrInvalidAmount)
	}
	m.Paise = d.Shift(2).Round(0).IntPart()
	return nil
}

// FormatINR renders paise with Indian digit grouping, e.g. "₹1,23,456.50".
// Whole amounts drop the fraction.
func FormatINR(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	rupees := paise / 100
	rem := paise % 100

	s := "₹" + groupIndian(strconv.FormatInt(rupees, 10))
	if rem != 0 {
		s += fmt.Sprintf(".%02d", rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// groupIndian inserts commas after the last three digits and then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
