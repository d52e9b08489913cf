package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/ui"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

// ParseFormat maps a flag or config value to a Format.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, table, csv, tsv, json or md)", value)
	}
}

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
	// Truncate shortens descriptions in the text format.
	Truncate bool
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

func WriteJobs(w io.Writer, jobs []models.Job, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, jobs)
	case FormatCSV:
		return writeCSV(w, jobs, ',')
	case FormatTSV:
		return writeCSV(w, jobs, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, jobs)
	case FormatTable:
		return writeTable(w, jobs, opts)
	default:
		return writeText(w, jobs, opts)
	}
}

// writeText numbers each rendered job, the way the notification body does.
func writeText(w io.Writer, jobs []models.Job, opts WriteOptions) error {
	for i, job := range jobs {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, job.Render(opts.Truncate)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, jobs []models.Job) error {
	if jobs == nil {
		jobs = []models.Job{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}

func writeCSV(w io.Writer, jobs []models.Job, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write(csvRow(job)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, jobs []models.Job, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, job := range jobs {
		fmt.Fprintln(tw, strings.Join(tableRow(job, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, jobs []models.Job) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, job := range jobs {
		urlLine := "  URL: -"
		if url := safe(job.URL); url != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", url)
		}
		lines := []string{
			fmt.Sprintf("- **%s**", safe(job.Title)),
			urlLine,
			fmt.Sprintf("  Posted: %s (est)", job.TimestampEstimate.Format(time.RFC3339)),
		}
		if job.UTCOffset != nil {
			lines = append(lines, fmt.Sprintf("  UTC offset: %s", offsetString(job)))
		}
		if job.OverlapHours != nil {
			lines = append(lines, fmt.Sprintf("  Required overlap: %dh", *job.OverlapHours))
		}
		if len(job.Skills) > 0 {
			lines = append(lines, fmt.Sprintf("  Skills: %s", strings.Join(job.Skills, ", ")))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"title",
		"url",
		"posted_estimate",
		"utc_offset",
		"overlap_hours",
		"skills",
		"description",
	}
}

func csvRow(job models.Job) []string {
	return []string{
		job.Title,
		job.URL,
		job.TimestampEstimate.Format(time.RFC3339),
		offsetString(job),
		overlapString(job),
		strings.Join(job.Skills, ";"),
		job.Description,
	}
}

func offsetString(job models.Job) string {
	if job.UTCOffset == nil {
		return ""
	}
	return strconv.FormatFloat(*job.UTCOffset, 'f', -1, 64)
}

func overlapString(job models.Job) string {
	if job.OverlapHours == nil {
		return ""
	}
	return strconv.Itoa(*job.OverlapHours)
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func tableHeader() []string {
	return []string{
		"posted",
		"title",
		"utc",
		"overlap",
		"url",
	}
}

func tableRow(job models.Job, output *termenv.Output, opts WriteOptions) []string {
	url := safe(job.URL)
	displayURL := "-"
	if url != "" {
		displayURL = url
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(url)
		}
		displayURL = ui.ColorizeLink(output, opts.ColorEnabled, displayURL)
		if opts.Hyperlinks {
			displayURL = hyperlink(url, displayURL)
		}
	}
	return []string{
		job.TimestampEstimate.Format("2006-01-02 15:04"),
		safe(job.Title),
		dash(offsetString(job)),
		dash(overlapString(job)),
		displayURL,
	}
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
