// engine/internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jobapply-engine/internal/docselect"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/rank"
)

type Feed struct {
	Name           string `yaml:"name" json:"name" validate:"required"`
	URL            string `yaml:"url" json:"url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
}

// LeverBoard is one company board on the public Lever postings API.
type LeverBoard struct {
	Slug string `yaml:"slug" json:"slug" validate:"required"`
	Name string `yaml:"name" json:"name"`
}

type ApplicationConfig struct {
	AutoApply        bool `yaml:"auto_apply" json:"auto_apply"`
	DryRun           bool `yaml:"dry_run" json:"dry_run"`
	MaxPerDay        int  `yaml:"max_applications_per_day" json:"max_applications_per_day" validate:"gte=0"`
	DelaySeconds     int  `yaml:"delay_between_applications" json:"delay_between_applications" validate:"gte=0"`
	MaxPerRun        int  `yaml:"max_candidates_per_run" json:"max_candidates_per_run" validate:"gte=0"`
	ScoreConcurrency int  `yaml:"score_concurrency" json:"score_concurrency" validate:"gte=0"`
}

type QuotaConfig struct {
	Backend  string `yaml:"backend" json:"backend" validate:"oneof=sqlite redis memory"`
	RedisURL string `yaml:"redis_url" json:"redis_url"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

type SubmitterConfig struct {
	Kind           string `yaml:"kind" json:"kind" validate:"oneof=log webhook"`
	WebhookURL     string `yaml:"webhook_url" json:"webhook_url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
}

type Config struct {
	App struct {
		Port          int    `yaml:"port" json:"port" validate:"gte=1,lte=65535"`
		DataDir       string `yaml:"data_dir" json:"data_dir"`
		LogLevel      string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
		LogFormat     string `yaml:"log_format" json:"log_format" validate:"oneof=console json"`
		RetentionDays int    `yaml:"retention_days" json:"retention_days" validate:"gte=0"`
	} `yaml:"app" json:"app"`

	ScoreThreshold float64            `yaml:"score_threshold" json:"score_threshold" validate:"gte=0,lte=10"`
	ScoringWeights rank.Weights       `yaml:"scoring_weights" json:"scoring_weights"`
	Preferences    domain.Preferences `yaml:"preferences" json:"preferences"`
	Documents      docselect.Config   `yaml:"documents" json:"documents"`
	Application    ApplicationConfig  `yaml:"application" json:"application"`

	Sources struct {
		Files             []string     `yaml:"files" json:"files"`
		Feeds             []Feed       `yaml:"feeds" json:"feeds" validate:"dive"`
		Lever             []LeverBoard `yaml:"lever" json:"lever" validate:"dive"`
		RequestsPerSecond float64      `yaml:"requests_per_second" json:"requests_per_second" validate:"gte=0"`
	} `yaml:"sources" json:"sources"`

	Filters struct {
		RedFlags       []string `yaml:"red_flags" json:"red_flags"`
		LocationsBlock []string `yaml:"locations_block" json:"locations_block"`
	} `yaml:"filters" json:"filters"`

	Schedule struct {
		Enabled    bool   `yaml:"enabled" json:"enabled"`
		Cron       string `yaml:"cron" json:"cron"`
		RunOnStart bool   `yaml:"run_on_start" json:"run_on_start"`
	} `yaml:"schedule" json:"schedule"`

	Quota     QuotaConfig     `yaml:"quota" json:"quota"`
	Submitter SubmitterConfig `yaml:"submitter" json:"submitter"`
}

// Default is the configuration written on first start. Dry run is on so a
// fresh install never submits anything.
func Default() Config {
	var c Config
	c.App.Port = 38471
	c.App.LogLevel = "info"
	c.App.LogFormat = "console"
	c.App.RetentionDays = 30

	c.ScoreThreshold = rank.DefaultThreshold
	c.ScoringWeights = rank.DefaultWeights()
	c.Preferences = domain.Preferences{ExperienceLevel: domain.SeniorityMid}
	c.Documents = docselect.DefaultConfig()

	c.Application = ApplicationConfig{
		AutoApply:        false,
		DryRun:           true,
		MaxPerDay:        10,
		DelaySeconds:     30,
		MaxPerRun:        50,
		ScoreConcurrency: 4,
	}

	c.Sources.RequestsPerSecond = 1
	c.Filters.RedFlags = []string{"unpaid", "commission only", "mlm"}

	c.Schedule.Enabled = true
	c.Schedule.Cron = "0 9 * * *"

	c.Quota.Backend = "sqlite"
	c.Quota.Prefix = "jobapply:quota"
	c.Submitter.Kind = "log"
	c.Submitter.TimeoutSeconds = 30
	return c
}

// Parse decodes YAML on top of Default, so omitted keys keep their
// defaults. It does not validate.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads, overlays the environment, normalizes and validates.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, err
	}
	if err := OverlayEnv(&cfg); err != nil {
		return Config{}, err
	}
	out, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		return Config{}, res.Err()
	}
	return out, nil
}
