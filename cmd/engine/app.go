package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobapply-engine/internal/apply"
	"jobapply-engine/internal/config"
	"jobapply-engine/internal/events"
	"jobapply-engine/internal/logging"
	"jobapply-engine/internal/metrics"
	"jobapply-engine/internal/pipeline"
	"jobapply-engine/internal/quota"
	"jobapply-engine/internal/secrets"
	"jobapply-engine/internal/store"
)

const dbFileName = "jobapply.db"

// app is the wired engine shared by serve and run.
type app struct {
	dataDir string
	holder  *config.Holder
	log     *zap.Logger
	db      *store.DB
	lock    *flock.Flock
	rdb     *redis.Client
	hub     *events.Hub
	metrics *metrics.Metrics
	runner  *pipeline.Runner
}

func resolveDataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	return config.DataDir()
}

// resolveConfigPath bootstraps the default config when no explicit path is
// given.
func resolveConfigPath(dataDir string) (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.EnsureUserConfig(dataDir)
}

func loadConfig() (string, config.Config, error) {
	path, err := resolveConfigPath(resolveDataDir())
	if err != nil {
		return "", config.Config{}, fmt.Errorf("config bootstrap: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return path, config.Config{}, fmt.Errorf("config load (%s): %w", path, err)
	}
	return path, cfg, nil
}

// openApp wires the engine. overrides adjust the loaded config in memory
// only; the file is left alone.
func openApp(ctx context.Context, overrides ...func(*config.Config)) (_ *app, err error) {
	dataDir := resolveDataDir()
	path, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if cfg.App.DataDir != "" && flagDataDir == "" {
		dataDir = cfg.App.DataDir
	}

	a := &app{
		dataDir: dataDir,
		holder:  config.NewHolder(path, cfg),
		log:     logging.New(cfg.App.LogLevel, cfg.App.LogFormat),
		hub:     events.NewHub(),
		metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.lock, err = store.LockDir(dataDir)
	if err != nil {
		return nil, err
	}
	a.db, err = store.Open(filepath.Join(dataDir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	q, err := a.newQuota(ctx, cfg.Quota)
	if err != nil {
		return nil, err
	}

	a.runner = pipeline.New(pipeline.Deps{
		Config:    a.holder.Get,
		Store:     a.db,
		History:   a.db,
		Quota:     q,
		Submitter: newSubmitter(cfg.Submitter, a.log),
		Hub:       a.hub,
		Metrics:   a.metrics,
		Log:       a.log,
	})

	a.log.Info("engine ready",
		zap.String("data_dir", dataDir),
		zap.String("config", path),
		zap.String("quota", cfg.Quota.Backend),
		zap.String("submitter", cfg.Submitter.Kind),
		zap.Bool("auto_apply", cfg.Application.AutoApply),
		zap.Bool("dry_run", cfg.Application.DryRun))
	return a, nil
}

// newQuota picks the daily counter backend. It is fixed for the process
// lifetime; changing it needs a restart.
func (a *app) newQuota(ctx context.Context, qc config.QuotaConfig) (apply.Quota, error) {
	switch qc.Backend {
	case "redis":
		rdb, err := quota.NewRedisClient(ctx, qc.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis quota: %w", err)
		}
		a.rdb = rdb
		return quota.NewRedis(rdb, qc.Prefix), nil
	case "memory":
		return quota.NewMemory(), nil
	case "", "sqlite":
		return a.db.Quota(), nil
	default:
		return nil, fmt.Errorf("unknown quota backend %q", qc.Backend)
	}
}

func newSubmitter(sc config.SubmitterConfig, log *zap.Logger) apply.Submitter {
	if sc.Kind != "webhook" {
		return apply.LogSubmitter{Log: log}
	}
	account := secrets.WebhookAccount(sc.WebhookURL)
	token := func() (string, error) {
		tok, err := secrets.GetWebhookToken(account)
		if errors.Is(err, secrets.ErrNoToken) {
			return "", nil
		}
		return tok, err
	}
	return apply.NewWebhookSubmitter(sc.WebhookURL, time.Duration(sc.TimeoutSeconds)*time.Second, token)
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.lock != nil {
		_ = a.lock.Unlock()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
