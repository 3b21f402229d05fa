package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/digest"
	"scrumtrack/internal/domain"
	"scrumtrack/internal/httpapi"
	"scrumtrack/internal/httpx"
	"scrumtrack/internal/integrations/llm"
	slackbot "scrumtrack/internal/integrations/slack"
	"scrumtrack/internal/realtime"
	"scrumtrack/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, realtime feed, assistant proxy and digest schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.serve(ctx)
		},
	}
}

func (rt *runtime) serve(ctx context.Context) error {
	cfg, log := rt.cfg, rt.log

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close db", zap.Error(err))
		}
	}()
	log.Info("database initialized", zap.String("path", cfg.DBPath))

	svc := dashboard.NewService(db, domain.SystemClock, cfg.Location)
	hub := realtime.NewHub(log.Named("realtime"), 0)

	var assistant llm.Streamer
	if cfg.LLMConfigured() {
		assistant, err = llm.New(cfg, httpx.ExternalHTTPClient(), log.Named("llm"))
		if err != nil {
			return err
		}
	} else {
		log.Warn("no LLM credentials configured; /api/assistant is disabled", zap.String("provider", cfg.LLMProvider))
	}

	var sched *digest.Scheduler
	switch {
	case cfg.DigestSchedule == "":
		log.Info("digest disabled: no digest_schedule")
	case !cfg.SlackConfigured():
		log.Warn("digest disabled: slack_bot_token and slack_channel_id are required")
	default:
		poster := slackbot.NewPoster(cfg.SlackBotToken, cfg.SlackChannelID, httpx.ExternalHTTPClient(), log.Named("slack"))
		sched, err = digest.NewScheduler(cfg.DigestSchedule, svc, poster, domain.SystemClock, cfg.Location, log.Named("digest"))
		if err != nil {
			return err
		}
	}

	router := httpapi.NewRouter(httpapi.Deps{
		DB:        db,
		Dashboard: svc,
		Hub:       hub,
		Assistant: assistant,
		Log:       log.Named("http"),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
			return err
		}
		log.Info("server stopped gracefully")
		return nil
	})
	if sched != nil {
		g.Go(func() error {
			sched.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}
