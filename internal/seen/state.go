// Package seen persists the scrape watermark: the instant of the last
// successful walk. Listings older than it were already reported.
package seen

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

const KeyLastScrape = "last_scrape"

// State is the persisted document. Keys other than last_scrape are kept in
// Extra and written back untouched.
type State struct {
	LastScrape *time.Time
	Extra      map[string]any
}

func decodeState(data []byte) (State, error) {
	var state State
	if strings.TrimSpace(string(data)) == "" {
		return state, nil
	}

	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return state, errors.Wrap(err, "decode state")
	}

	if raw, ok := doc[KeyLastScrape]; ok {
		ts, err := asTime(raw)
		if err != nil {
			return state, errors.Wrapf(err, "decode %s", KeyLastScrape)
		}
		state.LastScrape = &ts
		delete(doc, KeyLastScrape)
	}
	if len(doc) > 0 {
		state.Extra = doc
	}
	return state, nil
}

func encodeState(state State) ([]byte, error) {
	doc := make(map[string]any, len(state.Extra)+1)
	for key, value := range state.Extra {
		doc[key] = value
	}
	if state.LastScrape != nil {
		doc[KeyLastScrape] = *state.LastScrape
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encode state")
	}
	return data, nil
}

// asTime accepts a TOML datetime, a local datetime (read in the local zone)
// or an RFC 3339 string left by a hand edit.
func asTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case toml.LocalDateTime:
		return v.AsTime(time.Local), nil
	case toml.LocalDate:
		return v.AsTime(time.Local), nil
	case string:
		ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, errors.WithHint(err, "use an RFC 3339 timestamp such as 2024-03-14T15:26:53Z")
		}
		return ts, nil
	default:
		return time.Time{}, errors.Newf("unsupported value %v (%T)", raw, raw)
	}
}
