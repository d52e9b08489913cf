// Package notify delivers the jobs that survived filtering.
package notify

import (
	"context"
	"fmt"

	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/rs/zerolog"
)

type Notifier interface {
	Name() string
	Notify(ctx context.Context, jobs []models.Job) error
}

// Failure records a notifier that could not deliver.
type Failure struct {
	Notifier string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Notifier, f.Err)
}

// Dispatch hands jobs to every notifier and returns the ones that failed.
// One notifier failing does not stop the others. Nothing is sent when jobs
// is empty.
func Dispatch(ctx context.Context, logger zerolog.Logger, jobs []models.Job, notifiers ...Notifier) []Failure {
	if len(jobs) == 0 {
		logger.Info().Msg("no jobs to notify")
		return nil
	}

	var failures []Failure
	for _, n := range notifiers {
		if err := ctx.Err(); err != nil {
			failures = append(failures, Failure{Notifier: n.Name(), Err: err})
			continue
		}
		if err := n.Notify(ctx, jobs); err != nil {
			logger.Error().Err(err).Str("notifier", n.Name()).Msg("notification failed")
			failures = append(failures, Failure{Notifier: n.Name(), Err: err})
			continue
		}
		logger.Info().Str("notifier", n.Name()).Int("jobs", len(jobs)).Msg("notification sent")
	}
	return failures
}

// Summary is the first line of every notification.
func Summary(count int) string {
	if count == 1 {
		return "Found 1 potential job"
	}
	return fmt.Sprintf("Found %d potential jobs", count)
}
