package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	LabelPosted   = "job posted"
	LabelTimeZone = "time zone"
	LabelSkills   = "required skills"
)

// Details holds the label/value pairs scraped from a listing. The two labels
// the pipeline depends on get their own fields; everything else lands in Extra.
type Details struct {
	Posted   string            `json:"job_posted,omitempty"`
	TimeZone string            `json:"time_zone,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Set stores value under label. Later calls for the same label win.
func (d *Details) Set(label, value string) {
	switch label {
	case LabelPosted:
		d.Posted = value
	case LabelTimeZone:
		d.TimeZone = value
	default:
		if d.Extra == nil {
			d.Extra = map[string]string{}
		}
		d.Extra[label] = value
	}
}

// Get returns the value stored under label.
func (d Details) Get(label string) (string, bool) {
	switch label {
	case LabelPosted:
		return d.Posted, d.Posted != ""
	case LabelTimeZone:
		return d.TimeZone, d.TimeZone != ""
	}
	value, ok := d.Extra[label]
	return value, ok
}

// Job is one scraped listing.
type Job struct {
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	Details           Details   `json:"details"`
	Skills            []string  `json:"skills,omitempty"`
	TimestampEstimate time.Time `json:"timestamp_estimate"`
	UTCOffset         *float64  `json:"utc_offset,omitempty"`
	OverlapHours      *int      `json:"overlap_hours,omitempty"`
	Description       string    `json:"description"`
}

// NewSkillSet normalizes, de-duplicates and sorts skills. It returns
// nil when nothing is left so "no skills section" and "empty section" agree.
func NewSkillSet(skills []string) []string {
	set := map[string]struct{}{}
	for _, skill := range skills {
		skill = Normalize(skill)
		if skill == "" {
			continue
		}
		set[skill] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for skill := range set {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// HasSkill reports whether the job lists skill.
func (j Job) HasSkill(skill string) bool {
	idx := sort.SearchStrings(j.Skills, skill)
	return idx < len(j.Skills) && j.Skills[idx] == skill
}

func (j Job) String() string {
	return j.Render(true)
}

// Render formats the job for notifications. With truncate set, descriptions
// of 78 characters (runes) or more are cut to 75 plus an ellipsis.
func (j Job) Render(truncate bool) string {
	desc := j.Description
	if runes := []rune(desc); truncate && len(runes) >= 78 {
		desc = string(runes[:75]) + "..."
	}

	offset := "None"
	if j.UTCOffset != nil {
		offset = fmt.Sprintf("%g", *j.UTCOffset)
	}
	overlap := "None"
	if j.OverlapHours != nil {
		overlap = fmt.Sprintf("%d", *j.OverlapHours)
	}
	skills := "None"
	if j.Skills != nil {
		skills = "{" + strings.Join(j.Skills, ", ") + "}"
	}

	return fmt.Sprintf(
		"%s\n<%s>\n\nPosted at: %s (est)\nUTC offset: %s\nReq. Overlap: %s\n\nSkills: %s\n\n%s",
		j.Title,
		j.URL,
		j.TimestampEstimate.Format(time.RFC3339),
		offset,
		overlap,
		skills,
		desc,
	)
}
