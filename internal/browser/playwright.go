package browser

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

// Playwright drives a real Chromium through playwright-go.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	timeout float64
	logger  zerolog.Logger
}

func LaunchPlaywright(opts models.BrowserOptions, cookies []Cookie, logger zerolog.Logger) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "start playwright"),
			"install the driver with: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium",
		)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-gpu", "--window-size=1200,900"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errors.Wrap(err, "launch chromium")
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1200, Height: 900},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, errors.Wrap(err, "create browser context")
	}

	if len(cookies) > 0 {
		converted := make([]playwright.OptionalCookie, 0, len(cookies))
		for _, c := range cookies {
			converted = append(converted, c.ToPlaywright())
		}
		if err := bctx.AddCookies(converted); err != nil {
			_ = browser.Close()
			_ = pw.Stop()
			return nil, errors.Wrap(err, "add session cookies")
		}
		logger.Debug().Int("cookies", len(converted)).Msg("session cookies loaded")
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, errors.Wrap(err, "open page")
	}

	timeout := opts.Timeout.Milliseconds()
	if timeout <= 0 {
		timeout = 30000
	}

	return &Playwright{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
		timeout: float64(timeout),
		logger:  logger,
	}, nil
}

func (p *Playwright) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(p.timeout),
	}); err != nil {
		return errors.Wrapf(err, "navigate %s", target)
	}
	p.logger.Debug().Str("url", p.page.URL()).Msg("page loaded")
	return nil
}

func (p *Playwright) URL() string {
	return p.page.URL()
}

func (p *Playwright) FindAll(_ context.Context, selector string) ([]Element, error) {
	return locatorAll(p.page.Locator(selector), p.timeout)
}

func (p *Playwright) Snapshot(_ context.Context, dir, name string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	png := filepath.Join(dir, name+".png")
	if _, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(png),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return nil, errors.Wrap(err, "screenshot")
	}

	content, err := p.page.Content()
	if err != nil {
		return []string{png}, errors.Wrap(err, "page content")
	}
	html := filepath.Join(dir, name+".html")
	if err := os.WriteFile(html, []byte(content), 0o644); err != nil {
		return []string{png}, err
	}
	return []string{png, html}, nil
}

func (p *Playwright) Close() error {
	var errs []error
	if p.context != nil {
		errs = append(errs, p.context.Close())
	}
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

type locatorElement struct {
	loc     playwright.Locator
	timeout float64
}

func locatorAll(loc playwright.Locator, timeout float64) ([]Element, error) {
	items, err := loc.All()
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(items))
	for _, item := range items {
		out = append(out, &locatorElement{loc: item, timeout: timeout})
	}
	return out, nil
}

func (e *locatorElement) Find(selector string) (Element, error) {
	loc := e.loc.Locator(selector)
	count, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoSuchElement
	}
	return &locatorElement{loc: loc.First(), timeout: e.timeout}, nil
}

func (e *locatorElement) FindAll(selector string) ([]Element, error) {
	return locatorAll(e.loc.Locator(selector), e.timeout)
}

func (e *locatorElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(e.timeout)})
}

// Attr asks the page for the raw attribute so a present but empty value is
// told apart from a missing one, as in the goquery drivers.
func (e *locatorElement) Attr(name string) (string, bool, error) {
	raw, err := e.loc.Evaluate("(el, name) => el.getAttribute(name)", name, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(e.timeout),
	})
	if err != nil {
		return "", false, err
	}
	return attrValue(raw)
}

// attrValue converts getAttribute's result: null means absent.
func attrValue(raw any) (string, bool, error) {
	switch v := raw.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		return "", false, errors.Newf("attribute evaluated to %T", raw)
	}
}

func (e *locatorElement) InnerHTML() (string, error) {
	return e.loc.InnerHTML(playwright.LocatorInnerHTMLOptions{Timeout: playwright.Float(e.timeout)})
}
