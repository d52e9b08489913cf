package browser

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"
)

// Cookie is one entry of a browser cookie export (the JSON shape written by
// most "export cookies" extensions and by Playwright's storage state).
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// LoadCookies reads a cookie export. A missing file means no session.
func LoadCookies(path string) ([]Cookie, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read cookies")
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "parse cookies %s", path),
			"export cookies as a JSON array of {name, value, domain, path}",
		)
	}
	return cookies, nil
}

func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	cookie := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(c.Path),
	}
	if cookie.Path == nil || *cookie.Path == "" {
		cookie.Path = playwright.String("/")
	}
	if c.Expires > 0 {
		cookie.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		cookie.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		cookie.Secure = playwright.Bool(true)
	}

	switch strings.ToLower(c.SameSite) {
	case "lax":
		cookie.SameSite = playwright.SameSiteAttributeLax
	case "strict":
		cookie.SameSite = playwright.SameSiteAttributeStrict
	case "none", "no_restriction":
		cookie.SameSite = playwright.SameSiteAttributeNone
	}
	return cookie
}

func (c Cookie) ToHTTP() *fhttp.Cookie {
	cookie := &fhttp.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	if c.Expires > 0 {
		sec := int64(c.Expires)
		cookie.Expires = time.Unix(sec, 0)
	}
	return cookie
}
