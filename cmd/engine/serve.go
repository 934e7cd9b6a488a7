package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobapply-engine/internal/httpapi"
	"jobapply-engine/internal/pipeline"
	"jobapply-engine/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled pipeline",
	Long:  "Starts the local HTTP API on 127.0.0.1:<app.port> and, when schedule.enabled is set, runs the pipeline on the configured cron schedule.",
	RunE:  runServe,
}

var serveAddr string

const shutdownGrace = 30 * time.Second

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default 127.0.0.1:<app.port>)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.holder.Get()
	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = scheduler.New("pipeline", cfg.Schedule.Cron, func(ctx context.Context) error {
			_, err := a.runner.RunOnce(ctx, pipeline.TriggerSchedule)
			return err
		}, a.log)
		if err != nil {
			return err
		}
		sched.Start(cfg.Schedule.RunOnStart)
	} else if cfg.Schedule.RunOnStart {
		go func() {
			if _, err := a.runner.RunOnce(ctx, pipeline.TriggerStartup); err != nil {
				a.log.Warn("startup run failed", zap.Error(err))
			}
		}()
	}

	addr := serveAddr
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	}
	srv := httpapi.NewServer(addr, httpapi.Handler(httpapi.Deps{
		Store:   a.db,
		Config:  a.holder,
		Runner:  a.runner,
		Hub:     a.hub,
		Metrics: a.metrics,
		Log:     a.log,
		Version: version,
		Ping:    a.db.Pool.PingContext,

		BaseContext: ctx,
	}))

	serveErr := httpapi.Serve(ctx, srv, a.log)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(stopCtx); err != nil {
			a.log.Warn("scheduler stop", zap.Error(err))
		}
	}
	// manual and startup runs must finish before the store closes
	if err := a.runner.Wait(stopCtx); err != nil {
		a.log.Warn("pipeline run still in flight at shutdown", zap.Error(err))
	}
	return serveErr
}
