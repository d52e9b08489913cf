package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/config"
	"github.com/jimezsa/jobnotify/internal/network"
)

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Fetch the jobs page (or --target) through each proxy."`
}

type ProxyCheckCmd struct {
	Target  string `help:"Target URL (default: jobs_url)."`
	Proxies string `help:"Comma-separated proxy URLs." env:"JOBNOTIFY_PROXIES"`
	Timeout int    `help:"Timeout in seconds." default:"15"`
}

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	OK        bool   `json:"ok"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(p.Proxies, ctx.Config.Browser.Proxies)
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return errors.WithHint(errors.New("no proxies configured"), "add one per line to proxies.txt or pass --proxies")
	}
	target := strings.TrimSpace(p.Target)
	if target == "" {
		target = ctx.Config.JobsURL
	}
	timeout := time.Duration(p.Timeout) * time.Second

	results := make([]ProxyCheckResult, 0, len(proxies))
	for _, proxy := range proxies {
		results = append(results, checkProxy(ctx, proxy, target, timeout))
	}
	return writeProxyResults(ctx, results)
}

func checkProxy(ctx *Context, proxy, target string, timeout time.Duration) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy}
	rotator, err := network.NewRotator([]string{proxy}, 5*time.Minute, ctx.Logger)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	client, err := network.NewClient(rotator, network.ClientOptions{Timeout: timeout, Logger: ctx.Logger})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := ctx.now()
	_, _, err = client.Get(reqCtx, target, nil)
	result.LatencyMS = ctx.now().Sub(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	return result
}

func writeProxyResults(ctx *Context, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	if ctx.PlainText {
		tw = tabwriter.NewWriter(ctx.Out, 0, 0, 0, '\t', 0)
	} else {
		fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms\terror")
	}
	for _, res := range results {
		status := "ok"
		if !res.OK {
			status = "fail"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.Proxy, status, res.LatencyMS, res.Error)
	}
	return tw.Flush()
}
