// config/overlay.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies JOBAPPLY_* overrides on top of the file config. Unset
// variables leave the file value alone.
func OverlayEnv(cfg *Config) error {
	if v, ok := lookup("JOBAPPLY_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JOBAPPLY_PORT: %w", err)
		}
		cfg.App.Port = n
	}
	if v, ok := lookup("JOBAPPLY_LOG_LEVEL"); ok {
		cfg.App.LogLevel = v
	}
	if v, ok := lookup("JOBAPPLY_LOG_FORMAT"); ok {
		cfg.App.LogFormat = v
	}
	if v, ok := lookup("JOBAPPLY_DRY_RUN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("JOBAPPLY_DRY_RUN: %w", err)
		}
		cfg.Application.DryRun = b
	}
	if v, ok := lookup("JOBAPPLY_REDIS_URL"); ok {
		cfg.Quota.RedisURL = v
	}
	if v, ok := lookup("JOBAPPLY_WEBHOOK_URL"); ok {
		cfg.Submitter.WebhookURL = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
