package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/browser"
	"github.com/jimezsa/jobnotify/internal/config"
	"github.com/jimezsa/jobnotify/internal/export"
	"github.com/jimezsa/jobnotify/internal/filter"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/notify"
	"github.com/jimezsa/jobnotify/internal/scraper"
	"github.com/jimezsa/jobnotify/internal/seen"
	"github.com/jimezsa/jobnotify/internal/timezone"
	"github.com/muesli/termenv"
)

type RunCmd struct {
	URL         string `help:"Jobs page to start from (default: jobs_url)."`
	Driver      string `help:"Browser driver: http, playwright or file." enum:",http,playwright,file" default:""`
	Format      string `help:"Stdout format: text, table, csv, tsv, json, md." enum:",text,table,csv,tsv,json,md" default:""`
	Links       string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Proxies     string `help:"Comma-separated proxy URLs." env:"JOBNOTIFY_PROXIES"`
	DryRun      bool   `help:"Scrape, filter and print without storing the watermark or sending notifications."`
	NoWatermark bool   `help:"Ignore the stored watermark and collect every listing."`
}

func (r *RunCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	if strings.TrimSpace(r.URL) != "" {
		cfg.JobsURL = strings.TrimSpace(r.URL)
	}
	if r.Driver != "" {
		cfg.Browser.Driver = r.Driver
	}
	cfg.Browser.Driver = browser.NormalizeDriver(cfg.Browser.Driver)
	if err := cfg.Validate(); err != nil {
		return errors.WithHint(err, "run `jobnotify config path` to locate config.json")
	}

	format, err := resolveFormat(ctx, r.Format, cfg.Notify.Format)
	if err != nil {
		return err
	}

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	notifiers, err := r.notifiers(ctx, cfg, format)
	if err != nil {
		return err
	}

	proxies, err := config.LoadProxies(r.Proxies, cfg.Browser.Proxies)
	if err != nil {
		return err
	}

	b, err := ctx.openBrowser(cfg, browser.Options(cfg, proxies))
	if err != nil {
		return errors.Wrap(err, "open browser")
	}
	defer func() {
		if err := b.Close(); err != nil {
			ctx.Logger.Warn().Err(err).Msg("close browser")
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	walker := scraper.NewWalker(b, scraper.WalkerOptions{
		SkipMalformed: cfg.Scrape.SkipMalformed,
		MaxPages:      cfg.Scrape.MaxPages,
		SnapshotDir:   cfg.Debug.Dir,
		Now:           ctx.now,
	}, ctx.Logger)

	started := ctx.now()
	var result scraper.WalkResult
	walk := func(cutoff *time.Time) error {
		if r.NoWatermark {
			cutoff = nil
		}
		if cutoff != nil {
			ctx.Logger.Debug().Time("cutoff", *cutoff).Msg("using watermark")
		}
		var err error
		result, err = walker.Walk(runCtx, cfg.JobsURL, cutoff)
		return err
	}

	if r.DryRun {
		state, err := seen.ReadStateAllowMissing(cfg.Persist.Path)
		if err != nil {
			return errors.Wrap(err, "read watermark")
		}
		err = walk(state.LastScrape)
	} else {
		err = seen.WithWatermark(cfg.Persist.Path, started, walk)
	}
	if err != nil {
		return errors.Wrap(err, "scrape")
	}

	jobs := engine.Apply(result.Jobs)
	printRunSummary(ctx.Err, result, jobs)

	failures := notify.Dispatch(runCtx, ctx.Logger, jobs, notifiers...)
	for _, failure := range failures {
		ctx.warnf("notification via %s failed: %v", failure.Notifier, failure.Err)
	}
	return nil
}

func newEngine(ctx *Context, cfg config.Config) (*filter.Engine, error) {
	var calc *timezone.Calculator
	if cfg.TZ.Filter {
		var err error
		calc, err = timezone.NewCalculator(cfg.TZ)
		if err != nil {
			return nil, err
		}
		calc.Now = ctx.now
	}
	return filter.New(cfg, calc).WithLogger(ctx.Logger), nil
}

// notifiers builds the delivery targets. A dry run only prints.
func (r *RunCmd) notifiers(ctx *Context, cfg config.Config, format export.Format) ([]notify.Notifier, error) {
	var out []notify.Notifier
	if cfg.Notify.Stdout || r.DryRun {
		colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
		linkStyle := export.LinkStyleShort
		if strings.EqualFold(r.Links, string(export.LinkStyleFull)) {
			linkStyle = export.LinkStyleFull
		}
		out = append(out, notify.NewWriter(ctx.Out, format, export.WriteOptions{
			ColorEnabled: colorEnabled,
			Hyperlinks:   colorEnabled && isTTY(ctx.Out),
			LinkStyle:    linkStyle,
			Truncate:     true,
		}))
	}
	if r.DryRun {
		return out, nil
	}
	if cfg.Notify.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		out = append(out, tg)
	}
	if len(out) == 0 {
		ctx.Logger.Warn().Msg("no notifiers enabled; matching jobs will only be counted")
	}
	return out, nil
}

func resolveFormat(ctx *Context, flagValue, configured string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if flagValue != "" {
		return export.ParseFormat(flagValue)
	}
	return export.ParseFormat(configured)
}

func printRunSummary(w io.Writer, result scraper.WalkResult, valid []models.Job) {
	if w == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "summary: total_jobs=%d valid_jobs=%d pages=%d skipped=%d stop=%s\n",
		len(result.Jobs), len(valid), result.Pages, result.Skipped, result.Stop)
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}
