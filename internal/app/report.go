package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/digest"
	"scrumtrack/internal/domain"
	"scrumtrack/internal/httpx"
	slackbot "scrumtrack/internal/integrations/slack"
	"scrumtrack/internal/status"
	"scrumtrack/internal/storage/sqlite"
)

const monthLayout = "2006-01"

// withService opens the database for the duration of fn.
func (rt *runtime) withService(fn func(*dashboard.Service) error) error {
	db, err := sqlite.InitDB(rt.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(dashboard.NewService(db, domain.SystemClock, rt.cfg.Location))
}

// periodFilter resolves --week or --month (YYYY-MM) to a reporting period.
// With neither set the period is the current month.
func (rt *runtime) periodFilter(month string, week bool) (dashboard.Filter, error) {
	now := time.Now()
	if week {
		if month != "" {
			return dashboard.Filter{}, fmt.Errorf("--week and --month are mutually exclusive")
		}
		start, next := domain.WeekRangeAt(now.In(rt.cfg.Location))
		return dashboard.Filter{Period: &status.Period{Start: start, End: next.Add(-time.Nanosecond)}}, nil
	}
	if month != "" {
		t, err := time.ParseInLocation(monthLayout, month, rt.cfg.Location)
		if err != nil {
			return dashboard.Filter{}, fmt.Errorf("invalid --month '%s': expected YYYY-MM", month)
		}
		now = t
	}
	return dashboard.MonthFilter(now, rt.cfg.Location), nil
}

func newStatusCmd(rt *runtime) *cobra.Command {
	var month string
	var week, asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the client status dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := rt.periodFilter(month, week)
			if err != nil {
				return err
			}
			return rt.withService(func(svc *dashboard.Service) error {
				d, err := svc.Dashboard(cmd.Context(), f)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(d)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), dashboard.RenderMarkdown(d))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "reporting month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&week, "week", false, "use the current Monday-to-Sunday week as the reporting period")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full dashboard as JSON")
	return cmd
}

func newRoadmapCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "roadmap",
		Short: "Print the lifecycle state of every backlog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withService(func(svc *dashboard.Service) error {
				entries, err := svc.Roadmap(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), dashboard.RenderRoadmap(entries))
				return err
			})
		},
	}
}

func newDigestCmd(rt *runtime) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Compute the dashboard once and post it to Slack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withService(func(svc *dashboard.Service) error {
				if dryRun {
					return printDigest(cmd, svc, rt)
				}
				if !rt.cfg.SlackConfigured() {
					return fmt.Errorf("slack_bot_token and slack_channel_id are required to post a digest")
				}
				poster := slackbot.NewPoster(rt.cfg.SlackBotToken, rt.cfg.SlackChannelID, httpx.ExternalHTTPClient(), rt.log.Named("slack"))
				return postDigest(cmd.Context(), svc, poster, rt)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the Slack text instead of posting it")
	return cmd
}

// postDigest runs one digest through the scheduler so that the window and
// rendering match the cron-driven posts. The schedule itself is unused.
func postDigest(ctx context.Context, svc *dashboard.Service, poster digest.Poster, rt *runtime) error {
	sched, err := digest.NewScheduler("0 9 * * *", svc, poster, domain.SystemClock, rt.cfg.Location, rt.log.Named("digest"))
	if err != nil {
		return err
	}
	if err := sched.RunOnce(ctx); err != nil {
		return err
	}
	rt.log.Info("digest posted", zap.String("channel", rt.cfg.SlackChannelID))
	return nil
}

func printDigest(cmd *cobra.Command, svc *dashboard.Service, rt *runtime) error {
	d, err := svc.Dashboard(cmd.Context(), dashboard.MonthFilter(time.Now(), rt.cfg.Location))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), slackbot.ToMrkdwn(dashboard.RenderMarkdown(d)))
	return err
}
