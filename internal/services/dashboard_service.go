package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/auth"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/store"
)

// DashboardQuery selects the month and feed filters to show.
type DashboardQuery struct {
	Period  core.Period
	Filter  core.FeedFilter
	ShowAll bool
}

// DashboardService loads a user's records and builds the dashboard.
type DashboardService struct {
	reader store.RecordReader
	logger *log.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewDashboardService(reader store.RecordReader, logger *log.Logger, loc *time.Location) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{
		reader: reader,
		logger: logger.WithComponent(log.ComponentDashboard),
		loc:    loc,
		now:    time.Now,
	}
}

// Location is the zone used for calendar math.
func (s *DashboardService) Location() *time.Location {
	return s.loc
}

// CurrentPeriod is the month containing now.
func (s *DashboardService) CurrentPeriod() core.Period {
	return core.PeriodOf(s.now(), s.loc)
}

// Load builds the dashboard for the session's user. An unauthenticated
// session yields auth.ErrNoSession without touching the store.
func (s *DashboardService) Load(ctx context.Context, session auth.Session, q DashboardQuery) (core.Dashboard, error) {
	if !session.Authenticated || session.User.ID == "" {
		return core.Dashboard{}, auth.ErrNoSession
	}
	if !q.Period.Valid() {
		q.Period = s.CurrentPeriod()
	}

	income, expenses, err := s.fetch(ctx, session.User.ID)
	if err != nil {
		return core.Dashboard{}, err
	}

	return core.BuildDashboard(core.DashboardInput{
		Income:   income,
		Expenses: expenses,
		Period:   q.Period,
		Filter:   q.Filter,
		ShowAll:  q.ShowAll,
		Location: s.loc,
	}), nil
}

// MonthSummary returns the totals and category breakdown of one month.
func (s *DashboardService) MonthSummary(ctx context.Context, userID string, p core.Period) (core.MonthSummary, error) {
	income, expenses, err := s.fetch(ctx, userID)
	if err != nil {
		return core.MonthSummary{}, err
	}
	return core.SummarizeMonth(income, expenses, p, s.loc), nil
}

// fetch reads both collections concurrently and fills missing dates.
func (s *DashboardService) fetch(ctx context.Context, userID string) (income, expenses []core.Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.reader.ListAll(gctx, userID, core.KindIncome)
		if err != nil {
			return fmt.Errorf("load income: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.reader.ListAll(gctx, userID, core.KindExpense)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.LogError(ctx, s.logger, "Failed to load records", err, log.ErrorTypeDatabase, log.OpList,
			log.NewFields().WithRecord(userID, "", "", 0))
		return nil, nil, err
	}

	now := s.now()
	return core.FillMissingDates(income, now), core.FillMissingDates(expenses, now), nil
}
