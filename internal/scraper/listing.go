package scraper

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/browser"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/relativetime"
	"github.com/jimezsa/jobnotify/internal/timezone"
)

const (
	ListingSelector    = "div.panel > div.panel-item"
	PaginationSelector = "div.pagination-switcher a"

	// MissingDescription stands in when no description markup is found.
	MissingDescription = "Could not isolate job description; try clicking the URL to investigate"
)

const (
	headerSelector    = "div.panel-header_title > a"
	detailRowSelector = "div.panel_list-item > div.details > div.details-sub_item"
	fullRowSelector   = "div.panel_list-item > div.is-full"
	listTextSelector  = "div.panel_list-item > div.panel_list-text"
	fullTextClass     = "js-full_text"
	detailsLabelClass = "details-label"
	detailsValueClass = "details-value"
	skillLinkSelector = "a"
)

var (
	// ErrBuildFailed marks every error returned by BuildJob.
	ErrBuildFailed = errors.New("build job")
	// ErrMalformedListing means the listing lacks its header link or has a
	// details row without a label or value.
	ErrMalformedListing = errors.New("malformed listing")
	// ErrMissingPosted means the "job posted" detail is absent or unparseable.
	ErrMissingPosted = errors.New("missing or unparseable posted time")
)

// BuildJob turns one listing element into a Job. Relative links resolve
// against pageURL and the posted age is measured from now.
func BuildJob(el browser.Element, pageURL string, now time.Time) (models.Job, error) {
	var job models.Job

	header, err := el.Find(headerSelector)
	if err != nil {
		return job, buildError(err, "header link")
	}
	title, err := header.Text()
	if err != nil {
		return job, buildError(err, "header text")
	}
	href, ok, err := header.Attr("href")
	if err != nil {
		return job, buildError(err, "header href")
	}
	if !ok {
		return job, malformed("header link has no href")
	}
	job.Title = cleanText(title)
	job.URL = absoluteURL(pageURL, href)

	rows, err := el.FindAll(detailRowSelector)
	if err != nil {
		return job, buildError(err, "details rows")
	}
	for _, row := range rows {
		label, value, err := labelValue(row)
		if err != nil {
			return job, err
		}
		job.Details.Set(label, value)
	}

	full, err := el.FindAll(fullRowSelector)
	if err != nil {
		return job, buildError(err, "full-width rows")
	}
	for _, row := range full {
		label, err := textOf(row, browser.ByClass(detailsLabelClass))
		if err != nil {
			return job, err
		}
		switch normalize(label) {
		case models.LabelTimeZone:
			value, err := textOf(row, browser.ByClass(detailsValueClass))
			if err != nil {
				return job, err
			}
			job.Details.Set(models.LabelTimeZone, normalize(value))
		case models.LabelSkills:
			skills, err := skillsOf(row)
			if err != nil {
				return job, err
			}
			job.Skills = skills
		}
	}

	job.Description, err = description(el)
	if err != nil {
		return job, err
	}

	ts, ok := relativetime.Parse(job.Details.Posted, now, true)
	if !ok {
		return job, errors.Mark(
			errors.Wrapf(ErrMissingPosted, "%s: %q", job.URL, job.Details.Posted),
			ErrBuildFailed,
		)
	}
	job.TimestampEstimate = ts

	if req, ok := timezone.ParseRequirement(job.Details.TimeZone); ok {
		offset := req.Offset
		job.UTCOffset = &offset
		job.OverlapHours = req.Overlap
	}

	return job, nil
}

func labelValue(row browser.Element) (string, string, error) {
	label, err := textOf(row, browser.ByClass(detailsLabelClass))
	if err != nil {
		return "", "", err
	}
	value, err := textOf(row, browser.ByClass(detailsValueClass))
	if err != nil {
		return "", "", err
	}
	return normalize(label), normalize(value), nil
}

func textOf(el browser.Element, selector string) (string, error) {
	child, err := el.Find(selector)
	if err != nil {
		return "", buildError(err, selector)
	}
	text, err := child.Text()
	if err != nil {
		return "", buildError(err, selector)
	}
	return text, nil
}

// skillsOf reads the linked skill names of a "required skills" row. A row
// with no links yields an empty, non-nil set.
func skillsOf(row browser.Element) ([]string, error) {
	value, err := row.Find(browser.ByClass(detailsValueClass))
	if err != nil {
		return nil, buildError(err, "skills value")
	}
	links, err := value.FindAll(skillLinkSelector)
	if err != nil {
		return nil, buildError(err, "skills links")
	}
	raw := make([]string, 0, len(links))
	for _, link := range links {
		text, err := link.Text()
		if err != nil {
			return nil, buildError(err, "skill text")
		}
		raw = append(raw, normalize(text))
	}
	if skills := models.NewSkillSet(raw); skills != nil {
		return skills, nil
	}
	return []string{}, nil
}

func description(el browser.Element) (string, error) {
	for _, selector := range []string{browser.ByClass(fullTextClass), listTextSelector} {
		node, err := el.Find(selector)
		if errors.Is(err, browser.ErrNoSuchElement) {
			continue
		}
		if err != nil {
			return "", buildError(err, "description")
		}
		inner, err := node.InnerHTML()
		if err != nil {
			return "", buildError(err, "description")
		}
		if inner = strings.TrimSpace(inner); inner != "" {
			return inner, nil
		}
	}
	return MissingDescription, nil
}

// buildError classifies a lookup failure: a missing element makes the listing
// malformed, anything else is a driver failure.
func buildError(err error, what string) error {
	if errors.Is(err, browser.ErrNoSuchElement) {
		return malformed("no " + what)
	}
	return errors.Mark(errors.Wrapf(err, "read %s", what), ErrBuildFailed)
}

func malformed(detail string) error {
	return errors.Mark(errors.Wrap(ErrMalformedListing, detail), ErrBuildFailed)
}
