package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/jimezsa/jobnotify/internal/timezone"
)

type TZCmd struct {
	Check TZCheckCmd `cmd:"" help:"Compute the overlap for a listing's timezone requirement."`
}

type TZCheckCmd struct {
	Requirement string `arg:"" help:"Requirement text, e.g. \"(UTC-05:00) Eastern Time, min 4 hours overlap\"."`
	Home        string `help:"Home zone (default: tz.home)."`
	ShiftEarly  int    `help:"Hours the workday can start earlier (default: tz.shift_early)." default:"-1"`
	ShiftLate   int    `help:"Hours the workday can end later (default: tz.shift_late)." default:"-1"`
}

type tzCheckResult struct {
	Home          string  `json:"home"`
	Offset        float64 `json:"utc_offset"`
	Difference    float64 `json:"difference_hours"`
	Overlap       float64 `json:"overlap_hours"`
	RequiredHours *int    `json:"required_hours,omitempty"`
	Passes        bool    `json:"passes"`
}

func (c *TZCheckCmd) Run(ctx *Context) error {
	req, ok := timezone.ParseRequirement(c.Requirement)
	if !ok {
		return fmt.Errorf("cannot parse %q: expected a leading \"(UTC±HH:MM)\"", c.Requirement)
	}

	tzCfg := ctx.Config.TZ
	if c.Home != "" {
		tzCfg.Home = c.Home
	}
	if c.ShiftEarly >= 0 {
		tzCfg.ShiftEarly = c.ShiftEarly
	}
	if c.ShiftLate >= 0 {
		tzCfg.ShiftLate = c.ShiftLate
	}
	calc, err := timezone.NewCalculator(tzCfg)
	if err != nil {
		return err
	}
	calc.Now = ctx.now

	now := ctx.now()
	result := tzCheckResult{
		Home:          calc.Home.String(),
		Offset:        req.Offset,
		Difference:    timezone.Difference(calc.Home, timezone.FixedOffset(req.Offset), now),
		Overlap:       calc.OverlapOn(req.Offset, now),
		RequiredHours: req.Overlap,
		Passes:        true,
	}
	if req.Overlap != nil {
		result.Passes = result.Overlap >= float64(*req.Overlap)
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	required := "none"
	if req.Overlap != nil {
		required = fmt.Sprintf("%dh", *req.Overlap)
	}
	verdict := "pass"
	if !result.Passes {
		verdict = "fail"
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "home\t%s\n", result.Home)
	fmt.Fprintf(tw, "utc offset\t%g\n", result.Offset)
	fmt.Fprintf(tw, "difference\t%+gh\n", result.Difference)
	fmt.Fprintf(tw, "overlap\t%gh\n", result.Overlap)
	fmt.Fprintf(tw, "required\t%s\n", required)
	fmt.Fprintf(tw, "verdict\t%s\n", verdict)
	return tw.Flush()
}
