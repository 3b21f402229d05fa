// Package digest posts the client status dashboard to Slack on a cron
// schedule.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/domain"
)

type DashboardSource interface {
	Dashboard(ctx context.Context, f dashboard.Filter) (dashboard.Dashboard, error)
}

type Poster interface {
	PostDigest(ctx context.Context, markdown string) (string, error)
}

type Scheduler struct {
	expr      string
	schedule  cron.Schedule
	source    DashboardSource
	poster    Poster
	now       domain.Clock
	loc       *time.Location
	log       *zap.Logger
	afterFunc func(time.Duration) <-chan time.Time
}

// ParseSchedule accepts a standard 5-field cron expression (minute hour
// day-of-month month day-of-week), e.g. "0 9 * * 1-5" for weekdays at 9am.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid digest_schedule '%s': %w", expr, err)
	}
	return sched, nil
}

func NewScheduler(expr string, source DashboardSource, poster Poster, now domain.Clock, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = domain.SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		expr:      strings.TrimSpace(expr),
		schedule:  sched,
		source:    source,
		poster:    poster,
		now:       now,
		loc:       loc,
		log:       log,
		afterFunc: time.After,
	}, nil
}

// Filter is the window a digest covers: the current calendar month for
// methodology, and no date restriction for productivity and risks.
func (s *Scheduler) Filter() dashboard.Filter {
	return dashboard.MonthFilter(s.now(), s.loc)
}

// RunOnce computes the dashboard and posts it.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	d, err := s.source.Dashboard(ctx, s.Filter())
	if err != nil {
		return fmt.Errorf("computing dashboard: %w", err)
	}
	if _, err := s.poster.PostDigest(ctx, dashboard.RenderMarkdown(d)); err != nil {
		return err
	}
	return nil
}

// Run posts a digest at every scheduled instant until ctx is done. Failed
// runs are logged and not retried.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("digest scheduled", zap.String("cron", s.expr))
	for {
		now := s.now().In(s.loc)
		next := s.schedule.Next(now)
		wait := next.Sub(now)
		s.log.Info("next digest", zap.Time("at", next), zap.Duration("in", wait.Round(time.Minute)))

		select {
		case <-ctx.Done():
			s.log.Info("digest scheduler stopped")
			return
		case <-s.afterFunc(wait):
		}

		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("digest run failed", zap.Error(err))
			continue
		}
		s.log.Info("digest posted")
	}
}
