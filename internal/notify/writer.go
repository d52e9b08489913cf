package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/jimezsa/jobnotify/internal/export"
	"github.com/jimezsa/jobnotify/internal/models"
)

// Writer prints jobs to a stream in one of the export formats.
type Writer struct {
	out    io.Writer
	format export.Format
	opts   export.WriteOptions
}

func NewWriter(out io.Writer, format export.Format, opts export.WriteOptions) *Writer {
	return &Writer{out: out, format: format, opts: opts}
}

func (w *Writer) Name() string {
	return "stdout"
}

func (w *Writer) Notify(_ context.Context, jobs []models.Job) error {
	// machine-readable formats stay parseable
	if w.format == export.FormatText || w.format == export.FormatTable || w.format == export.FormatMarkdown {
		if _, err := fmt.Fprintf(w.out, "%s\n\n", Summary(len(jobs))); err != nil {
			return err
		}
	}
	return export.WriteJobs(w.out, jobs, w.format, w.opts)
}
