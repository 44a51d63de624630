package http

import (
	"strings"

	"github.com/gosimple/slug"

	"finsight/internal/core"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}

// chartKey is the stable series key of a category, e.g. "borrow-return".
func chartKey(c core.Category) string {
	return slug.Make(string(c.OrOther()))
}

func kindLabel(k core.Kind) string {
	if k == core.KindIncome {
		return "Income"
	}
	return "Expense"
}
