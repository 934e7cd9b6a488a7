package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/rank"
)

func TestDefaultIsValid(t *testing.T) {
	out, res := NormalizeAndValidate(Default())
	assert.True(t, res.OK(), "%v", res.Errors)
	assert.True(t, out.Application.DryRun)
	assert.Equal(t, 10, out.Application.MaxPerDay)
	assert.Equal(t, 8.5, out.ScoreThreshold)
}

func TestParse_KeepsDefaultsForOmittedKeys(t *testing.T) {
	cfg, err := Parse([]byte(`
score_threshold: 7
preferences:
  required_skills: [Go]
  experience_level: sr
`))
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.ScoreThreshold)
	assert.Equal(t, rank.DefaultWeights(), cfg.ScoringWeights)
	assert.Equal(t, 38471, cfg.App.Port)

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, domain.SenioritySenior, out.Preferences.ExperienceLevel)
}

func TestValidate_WeightSum(t *testing.T) {
	for _, benefits := range []float64{0.09, 0.11} {
		cfg := Default()
		cfg.ScoringWeights.Benefits = benefits
		err := Validate(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "scoring_weights")
	}
	assert.NoError(t, Validate(Default()))
}

func TestValidate_FieldErrorsUseYAMLPaths(t *testing.T) {
	cfg := Default()
	cfg.App.Port = 0
	cfg.ScoreThreshold = 11
	cfg.Quota.Backend = "etcd"
	cfg.Preferences.ExperienceLevel = "wizard"

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors, "app.port must be gte 1, got 0")
	assert.Contains(t, res.Errors, "score_threshold must be lte 10, got 11")
	assert.Contains(t, res.Errors, `quota.backend must be one of [sqlite redis memory], got "etcd"`)
	assert.Contains(t, res.Errors, `preferences.experience_level: unknown seniority "wizard"`)
}

func TestValidate_ConditionalRequirements(t *testing.T) {
	cfg := Default()
	cfg.Quota.Backend = "redis"
	cfg.Submitter.Kind = "webhook"
	cfg.Schedule.Cron = "every tuesday"
	cfg.Sources.Feeds = []Feed{{Name: "a", URL: "https://a.example/jobs"}, {Name: "A", URL: "https://b.example/jobs"}}
	cfg.Sources.Lever = []LeverBoard{{Slug: "acme"}, {Slug: "ACME"}, {Name: "no slug"}}

	_, res := NormalizeAndValidate(cfg)
	assert.Contains(t, res.Errors, `sources.lever[1].slug "ACME" is duplicated`)
	assert.Contains(t, res.Errors, "sources.lever[2].slug is required")
	assert.Contains(t, res.Errors, "quota.redis_url is required when quota.backend=redis")
	assert.Contains(t, res.Errors, "submitter.webhook_url is required when submitter.kind=webhook")
	assert.Contains(t, res.Errors, `sources.feeds[1].name "A" is duplicated`)
	found := false
	for _, e := range res.Errors {
		if len(e) > len("schedule.cron") && e[:len("schedule.cron")] == "schedule.cron" {
			found = true
		}
	}
	assert.True(t, found, "cron error expected in %v", res.Errors)
}

func TestNormalize_TrimsAndDedupes(t *testing.T) {
	cfg := Default()
	cfg.Preferences.RequiredSkills = []string{" Go ", "go", "", "Kubernetes"}
	cfg.Filters.LocationsBlock = []string{"Austin"}
	cfg.Preferences.PreferredLocations = []string{"austin", "Remote"}

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK())
	assert.Equal(t, []string{"Go", "Kubernetes"}, out.Preferences.RequiredSkills)
	assert.Contains(t, res.Warnings, `location appears in both preferred_locations and locations_block: "austin"`)
}

func TestEnsureUserConfig_WritesDefaultsOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.App.DataDir)

	require.NoError(t, os.WriteFile(path, []byte("score_threshold: 6\n"), 0o644))
	again, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cfg.ScoreThreshold)
}

func TestSaveAtomic_KeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, SaveAtomic(path, Default()))
	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "no backup on first write")

	next := Default()
	next.ScoreThreshold = 9
	require.NoError(t, SaveAtomic(path, next))
	prev, err := Load(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, Default().ScoreThreshold, prev.ScoreThreshold)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9.0, cfg.ScoreThreshold)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files are cleaned up")
}

func TestHolderSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, SaveAtomic(path, Default()))
	h := NewHolder(path, Default())

	bad := Default()
	bad.ScoringWeights = rank.Weights{Keyword: 0.5}
	cur, err := h.Save(bad)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, Default().ScoringWeights, cur.ScoringWeights)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().ScoringWeights, cfg.ScoringWeights)

	good := Default()
	good.Filters.RedFlags = []string{" unpaid ", "UNPAID"}
	saved, err := h.Save(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"unpaid"}, saved.Filters.RedFlags)
	assert.Equal(t, []string{"unpaid"}, h.Get().Filters.RedFlags)
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("JOBAPPLY_PORT", "9000")
	t.Setenv("JOBAPPLY_DRY_RUN", "false")
	t.Setenv("JOBAPPLY_LOG_LEVEL", "")

	cfg := Default()
	require.NoError(t, OverlayEnv(&cfg))
	assert.Equal(t, 9000, cfg.App.Port)
	assert.False(t, cfg.Application.DryRun)
	assert.Equal(t, "info", cfg.App.LogLevel)

	t.Setenv("JOBAPPLY_PORT", "nope")
	assert.Error(t, OverlayEnv(&cfg))
}

func TestHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, SaveAtomic(path, Default()))

	h := NewHolder(path, Default())
	next := Default()
	next.Application.MaxPerDay = 3
	saved, err := h.Save(next)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Application.MaxPerDay)
	assert.Equal(t, 3, h.Get().Application.MaxPerDay)

	bad := Default()
	bad.ScoreThreshold = -1
	_, err = h.Save(bad)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 3, h.Get().Application.MaxPerDay)

	require.NoError(t, os.WriteFile(path, []byte("application:\n  max_applications_per_day: 5\n"), 0o644))
	_, err = h.Reload()
	require.NoError(t, err)
	assert.Equal(t, 5, h.Get().Application.MaxPerDay)
}
