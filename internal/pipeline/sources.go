package pipeline

import (
	"time"

	"go.uber.org/zap"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/ingest"
)

const (
	defaultFeedTimeout = 2 * time.Minute
	fileTimeout        = 30 * time.Second
	leverTimeout       = 5 * time.Minute
)

type source struct {
	fetcher ingest.Fetcher
	timeout time.Duration
}

// Sources builds the configured fetchers. Feeds on one host share limiter.
func Sources(cfg config.Config, limiter *ingest.HostLimiter, log *zap.Logger) []ingest.Fetcher {
	var out []ingest.Fetcher
	for _, s := range buildSources(cfg, limiter, log) {
		out = append(out, s.fetcher)
	}
	return out
}

func buildSources(cfg config.Config, limiter *ingest.HostLimiter, log *zap.Logger) []source {
	var out []source
	for _, p := range cfg.Sources.Files {
		out = append(out, source{fetcher: ingest.NewFileSource(p), timeout: fileTimeout})
	}
	for _, f := range cfg.Sources.Feeds {
		timeout := defaultFeedTimeout
		if f.TimeoutSeconds > 0 {
			timeout = time.Duration(f.TimeoutSeconds) * time.Second
		}
		out = append(out, source{fetcher: ingest.NewFeedSource(f.Name, f.URL, timeout, limiter), timeout: timeout})
	}
	if len(cfg.Sources.Lever) > 0 {
		boards := make([]ingest.LeverBoard, 0, len(cfg.Sources.Lever))
		for _, b := range cfg.Sources.Lever {
			boards = append(boards, ingest.LeverBoard{Slug: b.Slug, Name: b.Name})
		}
		out = append(out, source{fetcher: ingest.NewLeverSource(boards, limiter, log), timeout: leverTimeout})
	}
	return out
}
