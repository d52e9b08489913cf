package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/browser"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/rs/zerolog"
)

type StopReason string

const (
	// StopWatermark means a listing older than the cutoff was reached.
	StopWatermark StopReason = "watermark"
	// StopExhausted means the last page had no next link.
	StopExhausted StopReason = "exhausted"
	// StopPageLimit means WalkerOptions.MaxPages pages were read.
	StopPageLimit StopReason = "page-limit"
)

type WalkerOptions struct {
	// SkipMalformed logs and skips malformed listings instead of failing.
	SkipMalformed bool
	// MaxPages caps the pages read in one walk. Zero means no limit.
	MaxPages int
	// SnapshotDir receives a dump of every visited page when set.
	SnapshotDir string
	Now         func() time.Time
}

type WalkResult struct {
	Jobs    []models.Job
	Pages   int
	Stop    StopReason
	Skipped int
}

// Walker collects listings page by page until it meets the cutoff or runs
// out of pages. Listings are expected newest first.
type Walker struct {
	browser browser.Browser
	opts    WalkerOptions
	logger  zerolog.Logger
}

func NewWalker(b browser.Browser, opts WalkerOptions, logger zerolog.Logger) *Walker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Walker{browser: b, opts: opts, logger: logger}
}

// Walk starts at startURL and returns every listing posted at or after
// cutoff. A nil cutoff collects everything.
func (w *Walker) Walk(ctx context.Context, startURL string, cutoff *time.Time) (WalkResult, error) {
	var result WalkResult
	now := w.opts.Now()
	target := startURL

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := w.browser.Navigate(ctx, target); err != nil {
			return result, errors.Wrapf(err, "load page %d", result.Pages+1)
		}
		result.Pages++
		pageURL := w.browser.URL()
		if pageURL == "" {
			pageURL = target
		}
		w.snapshot(ctx, now, result.Pages)

		reached, err := w.collect(ctx, pageURL, cutoff, now, &result)
		if err != nil {
			return result, err
		}
		if reached {
			result.Stop = StopWatermark
			break
		}

		next, err := w.nextPage(ctx, pageURL)
		if err != nil {
			return result, err
		}
		if next == "" {
			result.Stop = StopExhausted
			break
		}
		if w.opts.MaxPages > 0 && result.Pages >= w.opts.MaxPages {
			w.logger.Warn().Int("pages", result.Pages).Str("next", next).Msg("page limit reached before the watermark")
			result.Stop = StopPageLimit
			break
		}
		target = next
	}

	w.logger.Info().
		Int("jobs", len(result.Jobs)).
		Int("pages", result.Pages).
		Int("skipped", result.Skipped).
		Str("stop", string(result.Stop)).
		Msg("walk finished")
	return result, nil
}

// collect appends the page's listings to result. It reports true once a
// listing older than cutoff is found; that listing and the rest of the page
// are dropped.
func (w *Walker) collect(ctx context.Context, pageURL string, cutoff *time.Time, now time.Time, result *WalkResult) (bool, error) {
	items, err := w.browser.FindAll(ctx, ListingSelector)
	if err != nil {
		return false, errors.Wrapf(err, "query listings on %s", pageURL)
	}
	w.logger.Debug().Str("url", pageURL).Int("page", result.Pages).Int("listings", len(items)).Msg("page loaded")

	for i, item := range items {
		job, err := BuildJob(item, pageURL, now)
		if err != nil {
			if w.opts.SkipMalformed && errors.Is(err, ErrMalformedListing) {
				result.Skipped++
				w.logger.Warn().Err(err).Str("url", pageURL).Int("index", i).Msg("skipping malformed listing")
				continue
			}
			return false, errors.Wrapf(err, "listing %d on %s", i, pageURL)
		}
		if cutoff != nil && job.TimestampEstimate.Before(*cutoff) {
			w.logger.Debug().
				Str("url", job.URL).
				Time("posted", job.TimestampEstimate).
				Time("cutoff", *cutoff).
				Msg("reached watermark")
			return true, nil
		}
		result.Jobs = append(result.Jobs, job)
	}
	return false, nil
}

func (w *Walker) nextPage(ctx context.Context, pageURL string) (string, error) {
	links, err := w.browser.FindAll(ctx, PaginationSelector)
	if err != nil {
		return "", errors.Wrapf(err, "query pagination on %s", pageURL)
	}
	for _, link := range links {
		rel, ok, err := link.Attr("rel")
		if err != nil {
			return "", err
		}
		if !ok || normalize(rel) != "next" {
			continue
		}
		href, ok, err := link.Attr("href")
		if err != nil {
			return "", err
		}
		if !ok || strings.TrimSpace(href) == "" {
			return "", nil
		}
		return absoluteURL(pageURL, href), nil
	}
	return "", nil
}

func (w *Walker) snapshot(ctx context.Context, started time.Time, page int) {
	if w.opts.SnapshotDir == "" {
		return
	}
	snap, ok := w.browser.(browser.Snapshotter)
	if !ok {
		return
	}
	name := fmt.Sprintf("%s_page_%02d", started.Format("20060102T150405"), page)
	paths, err := snap.Snapshot(ctx, w.opts.SnapshotDir, name)
	if err != nil {
		w.logger.Warn().Err(err).Int("page", page).Msg("debug snapshot failed")
		return
	}
	w.logger.Debug().Strs("files", paths).Msg("debug snapshot written")
}
