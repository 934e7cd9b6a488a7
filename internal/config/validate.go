package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"jobapply-engine/internal/docselect"
	"jobapply-engine/internal/domain"
)

var ErrInvalid = errors.New("invalid config")

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one ErrInvalid-wrapped error, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("%w:\n- %s", ErrInvalid, strings.Join(v.Errors, "\n- "))
}

var (
	structOnce sync.Once
	structV    *validator.Validate
)

// structValidator reports field paths using yaml keys so messages match
// what the user typed.
func structValidator() *validator.Validate {
	structOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		structV = v
	})
	return structV
}

// Validate is NormalizeAndValidate without the normalized copy.
func Validate(cfg Config) error {
	_, res := NormalizeAndValidate(cfg)
	return res.Err()
}

// NormalizeAndValidate returns a trimmed, deduplicated copy of cfg and the
// problems found in it. Warnings never block loading.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	p := &out.Preferences
	p.RequiredSkills = trimList(p.RequiredSkills)
	p.NiceToHaveSkills = trimList(p.NiceToHaveSkills)
	p.PreferredLocations = trimList(p.PreferredLocations)
	p.DesiredBenefits = trimList(p.DesiredBenefits)
	out.Filters.RedFlags = trimList(out.Filters.RedFlags)
	out.Filters.LocationsBlock = trimList(out.Filters.LocationsBlock)
	out.Sources.Files = trimList(out.Sources.Files)
	if len(cfg.Sources.Lever) > 0 {
		out.Sources.Lever = make([]LeverBoard, len(cfg.Sources.Lever))
		for i, b := range cfg.Sources.Lever {
			out.Sources.Lever[i] = LeverBoard{Slug: strings.TrimSpace(b.Slug), Name: strings.TrimSpace(b.Name)}
		}
	}
	out.Quota.Backend = strings.ToLower(strings.TrimSpace(out.Quota.Backend))
	out.Submitter.Kind = strings.ToLower(strings.TrimSpace(out.Submitter.Kind))
	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))
	out.App.LogFormat = strings.ToLower(strings.TrimSpace(out.App.LogFormat))

	// ---- Validation rules ----

	if err := structValidator().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				res.addErr("%s", describe(fe))
			}
		} else {
			res.addErr("%v", err)
		}
	}

	if err := out.ScoringWeights.Validate(); err != nil {
		res.addErr("scoring_weights: %v", err)
	}

	lvl, err := domain.ParseSeniority(string(p.ExperienceLevel))
	if err != nil {
		res.addErr("preferences.experience_level: %v", err)
	} else {
		p.ExperienceLevel = lvl
		if !lvl.Known() {
			res.addWarn("preferences.experience_level is unset; role seniority will always score 0.")
		}
	}

	if p.TargetSalary < p.MinSalary {
		res.addWarn("preferences.target_salary (%.0f) is below min_salary (%.0f); any salary at or above target scores full.", p.TargetSalary, p.MinSalary)
	}
	if len(p.RequiredSkills) == 0 {
		res.addWarn("preferences.required_skills is empty; keyword match gives full credit to every listing.")
	}

	for _, e := range docselect.CheckRules(out.Documents) {
		res.addErr("%s", e)
	}

	// application mode
	if out.Application.AutoApply && !out.Application.DryRun {
		res.addWarn("auto_apply is on and dry_run is off: applications will be submitted.")
	}
	if out.Application.MaxPerDay == 0 && out.Application.AutoApply {
		res.addWarn("application.max_applications_per_day is 0; nothing will be submitted.")
	}

	// sources sanity
	if len(out.Sources.Files) == 0 && len(out.Sources.Feeds) == 0 && len(out.Sources.Lever) == 0 {
		res.addWarn("No sources configured: add sources.files, sources.feeds or sources.lever.")
	}
	slugs := map[string]bool{}
	for i, b := range out.Sources.Lever {
		key := strings.ToLower(b.Slug)
		if key != "" && slugs[key] {
			res.addErr("sources.lever[%d].slug %q is duplicated", i, b.Slug)
		}
		slugs[key] = true
	}
	feedNames := map[string]bool{}
	for i, f := range out.Sources.Feeds {
		key := strings.ToLower(strings.TrimSpace(f.Name))
		if key != "" && feedNames[key] {
			res.addErr("sources.feeds[%d].name %q is duplicated", i, f.Name)
		}
		feedNames[key] = true
	}

	if out.Schedule.Enabled {
		if _, err := cron.ParseStandard(out.Schedule.Cron); err != nil {
			res.addErr("schedule.cron %q: %v", out.Schedule.Cron, err)
		}
	}

	if out.Quota.Backend == "redis" && strings.TrimSpace(out.Quota.RedisURL) == "" {
		res.addErr("quota.redis_url is required when quota.backend=redis")
	}
	if out.Submitter.Kind == "webhook" && strings.TrimSpace(out.Submitter.WebhookURL) == "" {
		res.addErr("submitter.webhook_url is required when submitter.kind=webhook")
	}

	// simple conflict check
	blockSet := map[string]bool{}
	for _, b := range out.Filters.LocationsBlock {
		blockSet[strings.ToLower(b)] = true
	}
	for _, a := range p.PreferredLocations {
		if blockSet[strings.ToLower(a)] {
			res.addWarn("location appears in both preferred_locations and locations_block: %q", a)
		}
	}

	return out, res
}

func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", path, fe.Param(), fmt.Sprint(fe.Value()))
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s, got %v", path, fe.Tag(), fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", path, fmt.Sprint(fe.Value()))
	}
	return fmt.Sprintf("%s failed %s", path, fe.Tag())
}
