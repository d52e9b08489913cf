package seen

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ReadState reads the state file at path.
func ReadState(path string) (State, error) {
	if strings.TrimSpace(path) == "" {
		return State{}, errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	state, err := decodeState(data)
	if err != nil {
		return State{}, errors.Wrapf(err, "read %s", path)
	}
	return state, nil
}

// ReadStateAllowMissing reads state and treats a missing file as empty.
func ReadStateAllowMissing(path string) (State, error) {
	state, err := ReadState(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, err
	}
	return state, nil
}

// WriteState replaces the state file, creating its directory if needed.
func WriteState(path string, state State) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".persist-*.toml")
	if err != nil {
		return errors.Wrap(err, "create temp state")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp state")
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "replace %s", path)
}

// WithWatermark reads the stored watermark, passes it to fn and, when fn
// succeeds, stores started as the new watermark. A failed fn leaves the file
// untouched so the next run rescans the same range.
func WithWatermark(path string, started time.Time, fn func(cutoff *time.Time) error) error {
	state, err := ReadStateAllowMissing(path)
	if err != nil {
		return err
	}
	if err := fn(state.LastScrape); err != nil {
		return err
	}
	state.LastScrape = &started
	return WriteState(path, state)
}

// SetWatermark overwrites last_scrape, keeping any other keys.
func SetWatermark(path string, ts time.Time) error {
	state, err := ReadStateAllowMissing(path)
	if err != nil {
		return err
	}
	state.LastScrape = &ts
	return WriteState(path, state)
}

// ResetWatermark removes last_scrape so the next run collects everything.
func ResetWatermark(path string) error {
	state, err := ReadStateAllowMissing(path)
	if err != nil {
		return err
	}
	state.LastScrape = nil
	return WriteState(path, state)
}
