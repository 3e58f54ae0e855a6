package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"jadwalku/internal/backend"
	"jadwalku/internal/chat"
	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/web"
)

// Chat sessions, limiter entries and cached backend bodies idle this long
// are dropped.
const (
	sessionIdle = 2 * time.Hour
	pruneSpec   = "@every 30m"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			if listen != "" {
				env.cfg.Listen = listen
			}
			return serve(cmd.Context(), env, flags.debug)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func serve(parent context.Context, env *environment, debug bool) error {
	cfg := env.cfg
	appLog.Info("jadwalku starting",
		"version", version,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"refresh", cfg.RefreshCron,
		"backend", cfg.Backend.BaseURL,
		"ai_model", cfg.AI.Model,
		"ai_key_set", cfg.AI.APIKey != "",
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot := kalender.NewSnapshot(env.calendar, env.loc, 24*time.Hour)
	snapshot.Refresh(time.Now())

	client := backend.NewClient(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
	assistant := chat.NewService(
		chat.NewProvider(cfg.AI),
		client,
		snapshot,
		env.loc,
		chat.WithHistoryTurns(cfg.AI.HistoryTurns),
	)

	srv := web.NewServer(cfg, web.Deps{
		Calendar: env.calendar,
		Snapshot: snapshot,
		Backend:  client,
		Chat:     assistant,
	}, debug)

	c, err := newScheduler(env, snapshot, &pruners{chat: assistant, web: srv, backend: client})
	if err != nil {
		return err
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	err = srv.ListenAndServe(ctx)
	appLog.Info("jadwalku exiting")
	return err
}

// pruners holds the components that keep per-user state in memory.
type pruners struct {
	chat    *chat.Service
	web     *web.Server
	backend *backend.Client
}

func (p *pruners) prune(maxIdle time.Duration) {
	sessions := p.chat.Prune(maxIdle)
	clients := p.web.PruneClients(maxIdle)
	cached := p.backend.Prune(maxIdle)
	appLog.Debug("pruned idle state", "sessions", sessions, "clients", clients, "cached_bodies", cached)
}

// newScheduler registers the daily snapshot rebuild and the idle-state
// pruning jobs.
func newScheduler(env *environment, snapshot *kalender.Snapshot, p *pruners) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(env.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if _, err := c.AddFunc(env.cfg.RefreshCron, func() {
		snapshot.Refresh(time.Now())
	}); err != nil {
		return nil, errors.Wrapf(err, "refresh schedule %q", env.cfg.RefreshCron)
	}

	if _, err := c.AddFunc(pruneSpec, func() {
		p.prune(sessionIdle)
	}); err != nil {
		return nil, errors.Wrap(err, "prune schedule")
	}

	appLog.Info("scheduler started", "refresh", env.cfg.RefreshCron, "prune", pruneSpec)
	return c, nil
}
