package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"finsight/internal/core"
	"finsight/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
)

// handleExport downloads the month's totals, breakdown and full feed as an
// XLSX workbook. Feed filters in the query apply to the Transactions sheet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	d, _, err := s.loadDashboard(r)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}

	f, err := buildWorkbook(d, s.dashboard.Location())
	if err != nil {
		log.LogError(r.Context(), s.logger, "Failed to build workbook", err,
			log.ErrorTypeInternal, log.OpExport, log.NewFields().WithComponent(log.ComponentExport))
		InternalServerError("Could not export this month. Please try again.").Write(w)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(d.Period)))
	if err := f.Write(w); err != nil {
		log.LogError(r.Context(), s.logger, "Failed to write workbook", err,
			log.ErrorTypeNetwork, log.OpExport, log.NewFields().WithComponent(log.ComponentExport))
	}
}

func exportFilename(p core.Period) string {
	return "finsight-" + p.String() + ".xlsx"
}

// buildWorkbook lays d out on two sheets. Amounts are written as numbers in
// rupees so the spreadsheet can total them.
func buildWorkbook(d core.Dashboard, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	summary := [][]any{
		{"Period", d.Period.String()},
		{"Income", d.Totals.Income.Float()},
		{"Expenses", d.Totals.Expenses.Float()},
		{"Balance", d.Totals.Balance.Float()},
		{"Savings", d.Totals.Savings.Float()},
		{},
		{"Category", "Amount", "Percent"},
	}
	for _, c := range d.Categories {
		summary = append(summary, []any{string(c.Category), c.Amount.Float(), percentOf(c.Amount, d.Totals.Expenses)})
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]any{{"Date", "Type", "Description", "Category", "Method", "Amount"}}
	for _, it := range d.Feed.All {
		category := ""
		if it.Kind == core.KindExpense {
			category = string(it.Category.OrOther())
		}
		rows = append(rows, []any{
			it.Date.In(locOrLocal(loc)).Format(time.DateOnly),
			kindLabel(it.Kind),
			it.Description,
			category,
			it.MethodLabel,
			it.Amount.Float(),
		})
	}
	if err := writeRows(f, transactionsSheet, rows); err != nil {
		f.Close()
		return nil, err
	}

	widths := map[string]float64{"A": 12, "B": 10, "C": 30, "D": 14, "E": 10, "F": 12}
	for col, width := range widths {
		if err := f.SetColWidth(transactionsSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 14); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
