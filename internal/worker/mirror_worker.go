// Package worker turns record-change events into spreadsheet mirror writes.
// Events are coalesced by Processor and mirrored by MirrorWorker.
package worker

import (
	"context"
	"fmt"

	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/sheets"
)

// SummarySource computes a user's month summary from the record store.
type SummarySource interface {
	MonthSummary(ctx context.Context, userID string, p core.Period) (core.MonthSummary, error)
}

// MirrorWorker rebuilds and mirrors the month an event touched.
type MirrorWorker struct {
	source SummarySource
	mirror sheets.Mirror
	logger *log.Logger
}

func NewMirrorWorker(source SummarySource, mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// MirrorMonth writes the user's summary for p unless the mirror already
// holds the same values. It reports whether a write happened.
func (w *MirrorWorker) MirrorMonth(ctx context.Context, userID string, p core.Period) (bool, error) {
	summary, err := w.source.MonthSummary(ctx, userID, p)
	if err != nil {
		return false, fmt.Errorf("compute month summary: %w", err)
	}

	current, ok, err := w.mirror.ReadMonthSummary(ctx, userID)
	if err != nil {
		// A failed read only costs an extra write.
		w.logger.WarnContext(ctx, "Could not read mirrored summary",
			log.FieldUserID, userID, log.FieldError, err.Error())
	} else if ok && sameSummary(current, summary) {
		w.logger.DebugContext(ctx, "Mirrored summary unchanged",
			log.FieldUserID, userID, log.FieldPeriod, p.String())
		return false, nil
	}

	if err := w.mirror.WriteMonthSummary(ctx, userID, summary); err != nil {
		return false, fmt.Errorf("write month summary: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirrored month summary",
		log.FieldUserID, userID,
		log.FieldPeriod, p.String(),
		log.FieldAmountPaise, summary.Totals.Expenses.Paise,
		"categories", len(summary.Categories))
	return true, nil
}

func sameSummary(a, b core.MonthSummary) bool {
	if a.Period != b.Period || a.Totals != b.Totals || len(a.Categories) != len(b.Categories) {
		return false
	}
	for i := range a.Categories {
		if a.Categories[i] != b.Categories[i] {
			return false
		}
	}
	return true
}
