package scraper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobsPage = "https://www.toptal.com/platform/talent/jobs"

var fixedNow = time.Date(2024, 3, 14, 15, 26, 53, 589793000, time.UTC)

type listing struct {
	title    string
	href     string
	noHeader bool
	details  [][2]string
	timeZone string
	skills   []string
	noSkills bool
	fullText string
	listText string
}

func (l listing) html() string {
	var b strings.Builder
	b.WriteString(`<div class="panel-item">`)
	if !l.noHeader {
		fmt.Fprintf(&b, `<div class="panel-header"><div class="panel-header_title"><a href="%s"> %s </a></div></div>`, l.href, l.title)
	}
	b.WriteString(`<div class="panel_list-item"><div class="details">`)
	for _, kv := range l.details {
		b.WriteString(`<div class="details-sub_item">`)
		if kv[0] != "" {
			fmt.Fprintf(&b, `<span class="details-label">%s</span>`, kv[0])
		}
		if kv[1] != "" {
			fmt.Fprintf(&b, `<span class="details-value">%s</span>`, kv[1])
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></div>`)
	if l.timeZone != "" {
		fmt.Fprintf(&b, `<div class="panel_list-item"><div class="is-full"><div class="details-label">Time Zone</div><div class="details-value">%s</div></div></div>`, l.timeZone)
	}
	if !l.noSkills {
		b.WriteString(`<div class="panel_list-item"><div class="is-full"><div class="details-label">Required Skills</div><div class="details-value">`)
		for _, skill := range l.skills {
			fmt.Fprintf(&b, `<a href="/skills/%s">%s</a> `, strings.ToLower(skill), skill)
		}
		b.WriteString(`</div></div></div>`)
	}
	if l.fullText != "" {
		fmt.Fprintf(&b, `<div class="js-full_text">%s</div>`, l.fullText)
	}
	if l.listText != "" {
		fmt.Fprintf(&b, `<div class="panel_list-item"><div class="panel_list-text">%s</div></div>`, l.listText)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func page(items []listing, next string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="panel">`)
	for _, item := range items {
		b.WriteString(item.html())
	}
	b.WriteString(`</div><div class="pagination-switcher"><a href="?page=1" rel="prev">Prev</a>`)
	if next != "" {
		fmt.Fprintf(&b, `<a href="%s" rel=" Next ">Next</a>`, next)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func firstListing(t *testing.T, l listing) browser.Element {
	t.Helper()
	root, err := browser.ParseHTML(page([]listing{l}, ""))
	require.NoError(t, err)
	items, err := root.FindAll(ListingSelector)
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func TestBuildJobFullListing(t *testing.T) {
	el := firstListing(t, listing{
		title: "Senior Go Engineer",
		href:  "/platform/talent/jobs/senior-go-engineer-123",
		details: [][2]string{
			{"Job Posted", "About 2 hours ago"},
			{"Commitment", "Full-time"},
			{"Commitment", "Part-time"},
		},
		timeZone: "(UTC-05:00) Eastern Time, min 4 hours overlap",
		skills:   []string{"Go", "Python", " go "},
		fullText: "<p>Build things</p>",
		listText: "<p>Short text</p>",
	})

	job, err := BuildJob(el, jobsPage, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "Senior Go Engineer", job.Title)
	assert.Equal(t, "https://www.toptal.com/platform/talent/jobs/senior-go-engineer-123", job.URL)
	assert.Equal(t, "about 2 hours ago", job.Details.Posted)
	assert.Equal(t, "(utc-05:00) eastern time, min 4 hours overlap", job.Details.TimeZone)
	assert.Equal(t, map[string]string{"commitment": "part-time"}, job.Details.Extra)
	assert.Equal(t, []string{"go", "python"}, job.Skills)
	assert.Equal(t, "<p>Build things</p>", job.Description)
	assert.Equal(t, time.Date(2024, 3, 14, 13, 59, 59, 999999999, time.UTC), job.TimestampEstimate)

	require.NotNil(t, job.UTCOffset)
	assert.Equal(t, -5.0, *job.UTCOffset)
	require.NotNil(t, job.OverlapHours)
	assert.Equal(t, 4, *job.OverlapHours)
}

func TestBuildJobOptionalParts(t *testing.T) {
	el := firstListing(t, listing{
		title:    "Data Engineer",
		href:     "https://other.example.com/jobs/9",
		details:  [][2]string{{"Job Posted", "3 days ago"}},
		noSkills: true,
	})

	job, err := BuildJob(el, jobsPage, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "https://other.example.com/jobs/9", job.URL)
	assert.Nil(t, job.Skills)
	assert.Nil(t, job.UTCOffset)
	assert.Nil(t, job.OverlapHours)
	assert.Equal(t, MissingDescription, job.Description)
	assert.Equal(t, time.Date(2024, 3, 11, 23, 59, 59, 999999999, time.UTC), job.TimestampEstimate)
}

func TestBuildJobTimeZoneWithoutOverlap(t *testing.T) {
	el := firstListing(t, listing{
		title:    "Designer",
		href:     "/jobs/designer",
		details:  [][2]string{{"Job Posted", "15 minutes ago"}},
		timeZone: "(UTC+05:30) India Standard Time",
		listText: "<p>Short text</p>",
	})

	job, err := BuildJob(el, jobsPage, fixedNow)
	require.NoError(t, err)

	require.NotNil(t, job.UTCOffset)
	assert.Equal(t, 5.5, *job.UTCOffset)
	assert.Nil(t, job.OverlapHours)
	assert.NotNil(t, job.Skills)
	assert.Empty(t, job.Skills)
	assert.Equal(t, "<p>Short text</p>", job.Description)
}

func TestBuildJobUnparseableTimeZone(t *testing.T) {
	el := firstListing(t, listing{
		title:    "Analyst",
		href:     "/jobs/analyst",
		details:  [][2]string{{"Job Posted", "1 hour ago"}},
		timeZone: "Anywhere",
	})

	job, err := BuildJob(el, jobsPage, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "anywhere", job.Details.TimeZone)
	assert.Nil(t, job.UTCOffset)
	assert.Nil(t, job.OverlapHours)
}

func TestBuildJobBlankDescriptionFallsThrough(t *testing.T) {
	el := firstListing(t, listing{
		title:    "QA",
		href:     "/jobs/qa",
		details:  [][2]string{{"Job Posted", "1 hour ago"}},
		fullText: "   ",
		listText: "<p>Fallback</p>",
	})

	job, err := BuildJob(el, jobsPage, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "<p>Fallback</p>", job.Description)
}

func TestBuildJobErrors(t *testing.T) {
	cases := []struct {
		name string
		l    listing
		want error
	}{
		{
			name: "missing header",
			l:    listing{noHeader: true, details: [][2]string{{"Job Posted", "1 hour ago"}}},
			want: ErrMalformedListing,
		},
		{
			name: "details row without value",
			l:    listing{title: "X", href: "/x", details: [][2]string{{"Job Posted", "1 hour ago"}, {"Commitment", ""}}},
			want: ErrMalformedListing,
		},
		{
			name: "missing posted",
			l:    listing{title: "X", href: "/x", details: [][2]string{{"Commitment", "Full-time"}}},
			want: ErrMissingPosted,
		},
		{
			name: "unparseable posted",
			l:    listing{title: "X", href: "/x", details: [][2]string{{"Job Posted", "last week"}}},
			want: ErrMissingPosted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildJob(firstListing(t, tc.l), jobsPage, fixedNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "want %v, got %v", tc.want, err)
			assert.True(t, errors.Is(err, ErrBuildFailed), "build errors must be marked: %v", err)
		})
	}
}

func TestBuildJobRendersLikeTheNotification(t *testing.T) {
	el := firstListing(t, listing{
		title:    "Go Engineer",
		href:     "/jobs/go",
		details:  [][2]string{{"Job Posted", "2 hours ago"}},
		timeZone: "(UTC+01:00) CET",
		skills:   []string{"Go"},
		fullText: strings.Repeat("x", 80),
	})

	job, err := BuildJob(el, jobsPage, fixedNow)
	require.NoError(t, err)

	out := job.Render(true)
	assert.True(t, strings.HasPrefix(out, "Go Engineer\n<https://www.toptal.com/jobs/go>\n"), out)
	assert.Contains(t, out, "UTC offset: 1\n")
	assert.Contains(t, out, "Req. Overlap: None\n")
	assert.Contains(t, out, "Skills: {go}")
	assert.True(t, strings.HasSuffix(out, strings.Repeat("x", 75)+"..."), out)

	assert.True(t, strings.HasSuffix(job.Render(false), strings.Repeat("x", 80)))
}
