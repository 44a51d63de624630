// Package google mirrors monthly summaries into a Google spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	gauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finsight/internal/core"
	"finsight/internal/log"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	// SheetPrefix starts every per-user tab name, e.g. "Summary u123".
	SheetPrefix        string
	ServiceAccountFile string
	ServiceAccountJSON string
}

// Mirror writes one tab per user holding the latest month summary.
type Mirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
	logger        *log.Logger
}

// New authenticates with a service account and returns a Mirror.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Mirror, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	jwtCfg, err := gauth.JWTConfigFromJSON(creds, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := gsheet.NewService(ctx, goption.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger)
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) (*Mirror, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	prefix := strings.TrimSpace(cfg.SheetPrefix)
	if prefix == "" {
		prefix = "Summary"
	}
	return &Mirror{
		svc:           svc,
		spreadsheetID: id,
		prefix:        prefix,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// TabName is the tab holding userID's summary.
func (m *Mirror) TabName(userID string) string {
	return sheetTitle(m.prefix + " " + userID)
}

// WriteMonthSummary replaces the user's tab with s. The tab is created on
// first use.
func (m *Mirror) WriteMonthSummary(ctx context.Context, userID string, s core.MonthSummary) error {
	tab := m.TabName(userID)
	if err := m.ensureTab(ctx, tab); err != nil {
		return err
	}

	all := quoteRange(tab, "A:Z")
	if _, err := m.svc.Spreadsheets.Values.Clear(m.spreadsheetID, all, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	vr := &gsheet.ValueRange{Values: summaryRows(s)}
	_, err := m.svc.Spreadsheets.Values.Update(m.spreadsheetID, quoteRange(tab, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}

	m.logger.InfoContext(ctx, "Month summary mirrored",
		log.FieldUserID, userID, log.FieldPeriod, s.Period.String(), "tab", tab)
	return nil
}

// ReadMonthSummary returns what the user's tab currently holds. A missing
// or empty tab yields ok=false.
func (m *Mirror) ReadMonthSummary(ctx context.Context, userID string) (s core.MonthSummary, ok bool, err error) {
	tab := m.TabName(userID)
	exists, err := m.hasTab(ctx, tab)
	if err != nil || !exists {
		return core.MonthSummary{}, false, err
	}
	resp, err := m.svc.Spreadsheets.Values.Get(m.spreadsheetID, quoteRange(tab, "A:B")).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return core.MonthSummary{}, false, fmt.Errorf("read %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return core.MonthSummary{}, false, nil
	}
	s, err = parseSummary(resp.Values)
	if err != nil {
		return core.MonthSummary{}, false, err
	}
	return s, true, nil
}

func (m *Mirror) hasTab(ctx context.Context, tab string) (bool, error) {
	ss, err := m.svc.Spreadsheets.Get(m.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return true, nil
		}
	}
	return false, nil
}

func (m *Mirror) ensureTab(ctx context.Context, tab string) error {
	exists, err := m.hasTab(ctx, tab)
	if err != nil || exists {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := m.svc.Spreadsheets.BatchUpdate(m.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	m.logger.InfoContext(ctx, "Created summary tab", "tab", tab)
	return nil
}

// sheetTitle drops characters Sheets rejects in tab names and caps the length.
func sheetTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':', '\'':
			return -1
		}
		return r
	}, s)
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return strings.TrimSpace(s)
}

func quoteRange(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", tab, cells)
}
