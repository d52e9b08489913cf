package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jimezsa/jobnotify/internal/relativetime"
	"github.com/jimezsa/jobnotify/internal/seen"
)

type WatermarkCmd struct {
	Show  WatermarkShowCmd  `cmd:"" help:"Print the stored watermark."`
	Set   WatermarkSetCmd   `cmd:"" help:"Store a watermark."`
	Reset WatermarkResetCmd `cmd:"" help:"Forget the watermark so the next run collects every listing."`
}

type WatermarkShowCmd struct{}

type WatermarkSetCmd struct {
	Value string `arg:"" help:"RFC 3339 timestamp, \"now\", or an age such as \"2 days ago\"."`
}

type WatermarkResetCmd struct{}

type watermarkView struct {
	Path       string     `json:"path"`
	LastScrape *time.Time `json:"last_scrape"`
}

func (c *WatermarkShowCmd) Run(ctx *Context) error {
	path := ctx.Config.Persist.Path
	state, err := seen.ReadStateAllowMissing(path)
	if err != nil {
		return err
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(watermarkView{Path: path, LastScrape: state.LastScrape})
	}
	if state.LastScrape == nil {
		_, err = fmt.Fprintf(ctx.Out, "no watermark stored (%s)\n", path)
		return err
	}
	_, err = fmt.Fprintf(ctx.Out, "%s\n", state.LastScrape.Format(time.RFC3339))
	return err
}

func (c *WatermarkSetCmd) Run(ctx *Context) error {
	ts, err := parseWatermark(c.Value, ctx.now())
	if err != nil {
		return err
	}
	if err := seen.SetWatermark(ctx.Config.Persist.Path, ts); err != nil {
		return err
	}
	ctx.successf("Watermark set to %s", ts.Format(time.RFC3339))
	return nil
}

func (c *WatermarkResetCmd) Run(ctx *Context) error {
	if err := seen.ResetWatermark(ctx.Config.Persist.Path); err != nil {
		return err
	}
	ctx.successf("Watermark cleared")
	return nil
}

// parseWatermark accepts RFC 3339, "now" or a relative age. Ages are floored
// to the start of their unit so the whole unit is scanned again.
func parseWatermark(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "now") {
		return now, nil
	}
	if ts, ok := relativetime.Parse(value, now, false); ok {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid watermark %q: want RFC 3339, \"now\" or \"N minutes|hours|days ago\"", value)
	}
	return ts, nil
}
