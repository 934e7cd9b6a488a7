// Package scheduler triggers pipeline runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobapply-engine/internal/logging"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	name string
	c    *cron.Cron
	task Task
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // startup run
	id     cron.EntryID
}

// New parses a standard five-field cron spec. Overlapping firings are
// skipped while the previous one is still running.
func New(name, spec string, task Task, log *zap.Logger) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", spec, err)
	}
	log = logging.OrNop(log).With(zap.String("task", name))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log.Sugar()})))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{name: name, c: c, task: task, log: log, ctx: ctx, cancel: cancel}
	s.id = c.Schedule(sched, cron.FuncJob(s.fire))
	return s, nil
}

func (s *Scheduler) fire() {
	start := time.Now()
	if err := s.task(s.ctx); err != nil {
		s.log.Warn("scheduled task failed", zap.Error(err))
		return
	}
	s.log.Debug("scheduled task done", zap.Duration("took", time.Since(start)))
}

// Start begins firing. With runNow the task also runs once immediately.
func (s *Scheduler) Start(runNow bool) {
	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.fire()
		}()
	}
	s.c.Start()
	s.log.Info("scheduler started", zap.Time("next", s.Next()))
}

// Next is the next planned firing, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.c.Entry(s.id).Next
}

// Stop prevents new firings and waits for running ones. When ctx expires
// first the running task's context is cancelled and Stop returns ctx.Err().
func (s *Scheduler) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		<-s.c.Stop().Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
