package browser

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Static serves pages from a loader without any network access. It backs the
// "file" driver (saved HTML pages on disk) and in-memory page sets.
type Static struct {
	load    func(target string) ([]byte, error)
	page    *staticPage
	visited []string
}

// NewMemory serves pages keyed by URL.
func NewMemory(pages map[string]string) *Static {
	return &Static{load: func(target string) ([]byte, error) {
		html, ok := pages[target]
		if !ok {
			return nil, errors.Newf("no page for %s", target)
		}
		return []byte(html), nil
	}}
}

// NewFile serves file:// URLs and paths. Relative paths resolve under root.
func NewFile(root string) *Static {
	return &Static{load: func(target string) ([]byte, error) {
		return os.ReadFile(filePath(root, target))
	}}
}

func filePath(root, target string) string {
	if strings.HasPrefix(target, "file://") {
		if u, err := url.Parse(target); err == nil {
			target = u.Path
		}
	}
	if filepath.IsAbs(target) || root == "" {
		return target
	}
	return filepath.Join(root, target)
}

func (s *Static) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.load(target)
	if err != nil {
		return errors.Wrapf(err, "navigate %s", target)
	}
	root, err := ParseDocument(bytes.NewReader(data))
	if err != nil {
		return errors.Wrapf(err, "parse %s", target)
	}
	s.page = &staticPage{url: target, root: root, raw: data}
	s.visited = append(s.visited, target)
	return nil
}

func (s *Static) URL() string {
	return s.page.URL()
}

func (s *Static) FindAll(_ context.Context, selector string) ([]Element, error) {
	return s.page.FindAll(selector)
}

// Visited lists navigations in order.
func (s *Static) Visited() []string {
	return append([]string(nil), s.visited...)
}

func (s *Static) Snapshot(_ context.Context, dir, name string) ([]string, error) {
	return writeHTMLSnapshot(s.page, dir, name)
}

func (s *Static) Close() error {
	s.page = nil
	return nil
}
