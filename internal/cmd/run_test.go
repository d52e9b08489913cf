package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/jobnotify/internal/browser"
	"github.com/jimezsa/jobnotify/internal/config"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/seen"
	"github.com/jimezsa/jobnotify/internal/ui"
	"github.com/rs/zerolog"
)

const testJobsURL = "https://example.com/jobs"

var testNow = time.Date(2024, 3, 14, 15, 26, 53, 0, time.UTC)

type testListing struct {
	title  string
	age    string
	tz     string
	skills []string
}

func listingsPage(items []testListing, next string) string {
	var b strings.Builder
	b.WriteString(`<div class="panel">`)
	for _, item := range items {
		fmt.Fprintf(&b, `<div class="panel-item"><div class="panel-header_title"><a href="/jobs/%s">%s</a></div>`, item.title, item.title)
		fmt.Fprintf(&b, `<div class="panel_list-item"><div class="details"><div class="details-sub_item"><span class="details-label">Job Posted</span><span class="details-value">%s</span></div></div></div>`, item.age)
		if item.tz != "" {
			fmt.Fprintf(&b, `<div class="panel_list-item"><div class="is-full"><div class="details-label">Time Zone</div><div class="details-value">%s</div></div></div>`, item.tz)
		}
		if item.skills != nil {
			b.WriteString(`<div class="panel_list-item"><div class="is-full"><div class="details-label">Required Skills</div><div class="details-value">`)
			for _, skill := range item.skills {
				fmt.Fprintf(&b, `<a href="#">%s</a>`, skill)
			}
			b.WriteString(`</div></div></div>`)
		}
		fmt.Fprintf(&b, `<div class="panel_list-item"><div class="panel_list-text">About %s</div></div></div>`, item.title)
	}
	b.WriteString(`</div><div class="pagination-switcher">`)
	if next != "" {
		fmt.Fprintf(&b, `<a rel="next" href="%s">Next</a>`, next)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func defaultPages() map[string]string {
	return map[string]string{
		testJobsURL: listingsPage([]testListing{
			{title: "go-dev", age: "1 hour ago", tz: "(UTC-05:00) Eastern, min 4 hours overlap", skills: []string{"Go"}},
			{title: "php-dev", age: "3 hours ago", skills: []string{"PHP"}},
		}, "?page=2"),
		testJobsURL + "?page=2": listingsPage([]testListing{
			{title: "late-dev", age: "2 days ago", tz: "(UTC+09:00) Tokyo, min 6 hours overlap", skills: []string{"Go"}},
		}, ""),
	}
}

func testContext(t *testing.T, pages map[string]string) (*Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	cfg := config.Config{
		JobsURL: testJobsURL,
		TZ:      config.TZConfig{Home: "UTC"},
		Persist: config.PersistConfig{Path: filepath.Join(dir, "persist.toml")},
		Browser: config.BrowserConfig{Driver: config.DriverFile},
		Notify:  config.NotifyConfig{Stdout: true, Format: "text"},
	}
	ctx := &Context{
		Out:    &out,
		Err:    &errOut,
		Config: cfg,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return testNow },
		OpenBrowser: func(config.Config, models.BrowserOptions, zerolog.Logger) (browser.Browser, error) {
			return browser.NewMemory(pages), nil
		},
	}
	return ctx, &out, &errOut
}

func readWatermark(t *testing.T, path string) *time.Time {
	t.Helper()
	state, err := seen.ReadStateAllowMissing(path)
	if err != nil {
		t.Fatalf("ReadStateAllowMissing() error = %v", err)
	}
	return state.LastScrape
}

func TestRunFirstRunCollectsEverythingAndStoresWatermark(t *testing.T) {
	ctx, out, errOut := testContext(t, defaultPages())

	if err := (&RunCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "Found 3 potential jobs") {
		t.Fatalf("unexpected output:\n%s", got)
	}
	for _, title := range []string{"1. go-dev", "2. php-dev", "3. late-dev"} {
		if !strings.Contains(got, title) {
			t.Fatalf("expected %q in output:\n%s", title, got)
		}
	}
	if !strings.Contains(errOut.String(), "total_jobs=3 valid_jobs=3 pages=2") {
		t.Fatalf("unexpected summary: %s", errOut.String())
	}

	wm := readWatermark(t, ctx.Config.Persist.Path)
	if wm == nil || !wm.Equal(testNow) {
		t.Fatalf("watermark = %v, want %v", wm, testNow)
	}
}

func TestRunSecondRunStopsAtWatermark(t *testing.T) {
	ctx, out, errOut := testContext(t, defaultPages())
	if err := seen.SetWatermark(ctx.Config.Persist.Path, testNow.Add(-2*time.Hour)); err != nil {
		t.Fatalf("SetWatermark() error = %v", err)
	}
	later := testNow.Add(10 * time.Minute)
	ctx.Now = func() time.Time { return later }

	if err := (&RunCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "1. go-dev") || strings.Contains(out.String(), "php-dev") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "pages=1") || !strings.Contains(errOut.String(), "stop=watermark") {
		t.Fatalf("unexpected summary: %s", errOut.String())
	}
	if wm := readWatermark(t, ctx.Config.Persist.Path); wm == nil || !wm.Equal(later) {
		t.Fatalf("watermark = %v, want %v", wm, later)
	}
}

func TestRunNoWatermarkIgnoresStoredCutoff(t *testing.T) {
	ctx, out, _ := testContext(t, defaultPages())
	if err := seen.SetWatermark(ctx.Config.Persist.Path, testNow); err != nil {
		t.Fatalf("SetWatermark() error = %v", err)
	}

	if err := (&RunCmd{NoWatermark: true}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "Found 3 potential jobs") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRunAppliesFilters(t *testing.T) {
	ctx, out, errOut := testContext(t, defaultPages())
	ctx.Config.TZ.Filter = true
	ctx.Config.Tags = config.TagsConfig{Filter: true, Exclude: []string{"php"}}

	if err := (&RunCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	// go-dev: 9-5=4h overlap meets 4h; late-dev: 9-9=0h misses 6h
	if !strings.HasPrefix(got, "Found 1 potential job\n") || !strings.Contains(got, "go-dev") {
		t.Fatalf("unexpected output:\n%s", got)
	}
	if !strings.Contains(errOut.String(), "total_jobs=3 valid_jobs=1") {
		t.Fatalf("unexpected summary: %s", errOut.String())
	}
}

func TestRunWalkFailureKeepsWatermark(t *testing.T) {
	pages := defaultPages()
	delete(pages, testJobsURL+"?page=2")
	ctx, out, _ := testContext(t, pages)

	if err := (&RunCmd{}).Run(ctx); err == nil {
		t.Fatalf("expected error when a page cannot be loaded")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no notification, got:\n%s", out.String())
	}
	if _, err := os.Stat(ctx.Config.Persist.Path); !os.IsNotExist(err) {
		t.Fatalf("watermark file should not exist, stat err = %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRunNotifierFailureKeepsWatermark(t *testing.T) {
	ctx, _, errOut := testContext(t, defaultPages())
	ctx.Out = failingWriter{}
	ctx.UI = ui.New(io.Discard, errOut, ui.ColorNever, true)

	if err := (&RunCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil when only delivery fails", err)
	}
	if wm := readWatermark(t, ctx.Config.Persist.Path); wm == nil || !wm.Equal(testNow) {
		t.Fatalf("watermark = %v, want %v", wm, testNow)
	}
	if !strings.Contains(errOut.String(), "notification via stdout failed") {
		t.Fatalf("expected a stdout failure warning, got:\n%s", errOut.String())
	}
}

func TestRunDryRunDoesNotStoreWatermark(t *testing.T) {
	ctx, out, _ := testContext(t, defaultPages())
	ctx.Config.Notify.Stdout = false

	if err := (&RunCmd{DryRun: true}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Found 3 potential jobs") {
		t.Fatalf("dry run should still print jobs:\n%s", out.String())
	}
	if readWatermark(t, ctx.Config.Persist.Path) != nil {
		t.Fatalf("dry run must not store a watermark")
	}
}

func TestRunJSONOutput(t *testing.T) {
	ctx, out, _ := testContext(t, defaultPages())
	ctx.JSONOutput = true

	if err := (&RunCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "[") {
		t.Fatalf("expected JSON array, got:\n%s", out.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	ctx, _, _ := testContext(t, defaultPages())
	ctx.Config.TZ.ShiftLate = -1
	if err := (&RunCmd{}).Run(ctx); err == nil {
		t.Fatalf("expected validation error")
	}

	ctx, _, _ = testContext(t, defaultPages())
	if err := (&RunCmd{Format: "yaml"}).Run(ctx); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestWatermarkCommands(t *testing.T) {
	ctx, out, _ := testContext(t, nil)

	if err := (&WatermarkShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "no watermark stored") {
		t.Fatalf("unexpected show output: %q", out.String())
	}

	if err := (&WatermarkSetCmd{Value: "2 days ago"}).Run(ctx); err != nil {
		t.Fatalf("set error = %v", err)
	}
	want := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	if wm := readWatermark(t, ctx.Config.Persist.Path); wm == nil || !wm.Equal(want) {
		t.Fatalf("watermark = %v, want %v", wm, want)
	}

	out.Reset()
	if err := (&WatermarkShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "2024-03-12T00:00:00Z" {
		t.Fatalf("unexpected show output: %q", out.String())
	}

	if err := (&WatermarkResetCmd{}).Run(ctx); err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if readWatermark(t, ctx.Config.Persist.Path) != nil {
		t.Fatalf("expected watermark to be cleared")
	}
}

func TestParseWatermark(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"now", testNow, true},
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"About 3 hours ago", time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC), true},
		{"last tuesday", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseWatermark(tc.in, testNow)
		if (err == nil) != tc.ok {
			t.Fatalf("parseWatermark(%q) error = %v", tc.in, err)
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Fatalf("parseWatermark(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTZCheck(t *testing.T) {
	ctx, out, _ := testContext(t, nil)
	cmd := &TZCheckCmd{
		Requirement: "(UTC-05:00) Eastern Time, min 4 hours overlap",
		ShiftEarly:  -1,
		ShiftLate:   -1,
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"overlap     4h", "required    4h", "verdict     pass"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}

	out.Reset()
	cmd.ShiftLate = 0
	cmd.Requirement = "(UTC-07:00) Pacific, min 4 hours overlap"
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "verdict     fail") {
		t.Fatalf("expected failing verdict:\n%s", out.String())
	}

	if err := (&TZCheckCmd{Requirement: "anywhere", ShiftEarly: -1, ShiftLate: -1}).Run(ctx); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	if err := (&VersionCmd{}).Run(&Context{Out: &out, Version: "1.2.3"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.String() != "jobnotify 1.2.3\n" {
		t.Fatalf("unexpected version output %q", out.String())
	}
}
