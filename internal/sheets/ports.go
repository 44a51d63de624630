// Package sheets holds the ports of the spreadsheet mirror.
package sheets

import (
	"context"

	"finsight/internal/core"
)

type (
	// SummaryWriter replaces the mirrored month summary of a user.
	SummaryWriter interface {
		WriteMonthSummary(ctx context.Context, userID string, s core.MonthSummary) error
	}

	// SummaryReader returns the mirrored summary, ok=false when none exists.
	SummaryReader interface {
		ReadMonthSummary(ctx context.Context, userID string) (s core.MonthSummary, ok bool, err error)
	}

	// Mirror is both sides of a summary mirror.
	Mirror interface {
		SummaryWriter
		SummaryReader
	}
)
