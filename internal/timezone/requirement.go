package timezone

import (
	"regexp"
	"strconv"
)

var requirementRE = regexp.MustCompile(
	`(?i)^\s*` +
		`\(UTC([+-])(\d{1,2}):(\d{2})\)` + // offset token
		`.*?` + // zone name, not validated
		`(?:, min (\d+) hours overlap)?` +
		`\s*$`,
)

// Requirement is a listing's timezone requirement: the client's UTC offset in
// hours and, when stated, the minimum number of overlapping work hours.
type Requirement struct {
	Offset  float64
	Overlap *int
}

// ParseRequirement parses strings like "(UTC+05:30) IST, min 4 hours overlap".
// ok is false when the leading "(UTC±HH:MM)" token is missing or malformed.
func ParseRequirement(value string) (Requirement, bool) {
	m := requirementRE.FindStringSubmatch(value)
	if m == nil {
		return Requirement{}, false
	}

	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return Requirement{}, false
	}
	minutes, err := strconv.Atoi(m[3])
	if err != nil {
		return Requirement{}, false
	}

	offset := float64(hours) + float64(minutes)/60.0
	if m[1] == "-" {
		offset = -offset
	}

	req := Requirement{Offset: offset}
	if m[4] != "" {
		overlap, err := strconv.Atoi(m[4])
		if err != nil {
			return Requirement{}, false
		}
		req.Overlap = &overlap
	}
	return req, true
}
