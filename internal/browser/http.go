package browser

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/network"
	"github.com/rs/zerolog"
)

// HTTP is a JavaScript-free driver: each navigation is a plain GET through the
// fingerprinted network client and the response is queried with goquery.
type HTTP struct {
	client *network.Client
	page   *staticPage
	logger zerolog.Logger
}

func NewHTTP(client *network.Client, logger zerolog.Logger) *HTTP {
	return &HTTP{client: client, logger: logger}
}

// UseCookies loads a cookie export into the client's jar for target's host.
func (h *HTTP) UseCookies(target string, cookies []Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return errors.Wrapf(err, "parse %q", target)
	}
	converted := make([]*fhttp.Cookie, 0, len(cookies))
	for _, c := range cookies {
		converted = append(converted, c.ToHTTP())
	}
	h.client.SetCookies(u, converted)
	h.logger.Debug().Int("cookies", len(converted)).Str("host", u.Host).Msg("session cookies loaded")
	return nil
}

func (h *HTTP) Navigate(ctx context.Context, target string) error {
	body, final, err := h.client.Get(ctx, target, map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
	})
	if err != nil {
		return errors.Wrapf(err, "navigate %s", target)
	}
	root, err := ParseDocument(bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "parse %s", final)
	}
	h.page = &staticPage{url: final, root: root, raw: body}
	return nil
}

func (h *HTTP) URL() string {
	return h.page.URL()
}

func (h *HTTP) FindAll(_ context.Context, selector string) ([]Element, error) {
	return h.page.FindAll(selector)
}

func (h *HTTP) Snapshot(_ context.Context, dir, name string) ([]string, error) {
	return writeHTMLSnapshot(h.page, dir, name)
}

func (h *HTTP) Close() error {
	h.page = nil
	return nil
}

func writeHTMLSnapshot(page *staticPage, dir, name string) ([]string, error) {
	if page == nil {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name+".html")
	if err := os.WriteFile(path, page.raw, 0o644); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
