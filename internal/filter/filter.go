// Package filter decides which scraped jobs are worth a notification.
package filter

import (
	"fmt"
	"strings"

	"github.com/jimezsa/jobnotify/internal/config"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/timezone"
	"github.com/rs/zerolog"
)

type Gate string

const (
	GateNone     Gate = ""
	GateTimeZone Gate = "timezone"
	GateInclude  Gate = "tags.include"
	GateExclude  Gate = "tags.exclude"
)

// Verdict explains why a job passed or failed.
type Verdict struct {
	Passed bool
	Gate   Gate
	Reason string
}

type Engine struct {
	tzFilter   bool
	tagsFilter bool
	include    []string
	exclude    []string
	calc       *timezone.Calculator
	logger     zerolog.Logger
}

// New builds an engine from the tz and tags settings. calc may be nil when
// the timezone gate is disabled.
func New(cfg config.Config, calc *timezone.Calculator) *Engine {
	return &Engine{
		tzFilter:   cfg.TZ.Filter && calc != nil,
		tagsFilter: cfg.Tags.Filter,
		include:    normalizeTags(cfg.Tags.Include),
		exclude:    normalizeTags(cfg.Tags.Exclude),
		calc:       calc,
		logger:     zerolog.Nop(),
	}
}

// WithLogger sets the logger used by Apply.
func (e *Engine) WithLogger(logger zerolog.Logger) *Engine {
	e.logger = logger
	return e
}

func (e *Engine) Passes(job models.Job) bool {
	return e.Check(job).Passed
}

// Check runs the enabled gates in order: timezone overlap, then tags.
func (e *Engine) Check(job models.Job) Verdict {
	if e.tzFilter && job.OverlapHours != nil && job.UTCOffset != nil {
		overlap := e.calc.Overlap(*job.UTCOffset)
		if overlap < float64(*job.OverlapHours) {
			return Verdict{
				Gate:   GateTimeZone,
				Reason: fmt.Sprintf("overlap %.2fh with UTC%+g is below the required %dh", overlap, *job.UTCOffset, *job.OverlapHours),
			}
		}
	}

	if e.tagsFilter {
		if len(e.include) > 0 && !anySkill(job, e.include) {
			return Verdict{
				Gate:   GateInclude,
				Reason: fmt.Sprintf("no skill in {%s}", strings.Join(e.include, ", ")),
			}
		}
		for _, tag := range e.exclude {
			if job.HasSkill(tag) {
				return Verdict{
					Gate:   GateExclude,
					Reason: fmt.Sprintf("lists excluded skill %q", tag),
				}
			}
		}
	}

	return Verdict{Passed: true}
}

// Apply keeps the jobs that pass, in order.
func (e *Engine) Apply(jobs []models.Job) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		verdict := e.Check(job)
		if !verdict.Passed {
			e.logger.Debug().
				Str("url", job.URL).
				Str("gate", string(verdict.Gate)).
				Str("reason", verdict.Reason).
				Msg("job filtered out")
			continue
		}
		out = append(out, job)
	}
	return out
}

func anySkill(job models.Job, tags []string) bool {
	for _, tag := range tags {
		if job.HasSkill(tag) {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		tag = models.Normalize(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
