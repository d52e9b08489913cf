package cmd

import (
	"io"
	"time"

	"github.com/jimezsa/jobnotify/internal/browser"
	"github.com/jimezsa/jobnotify/internal/config"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/ui"
	"github.com/rs/zerolog"
)

// BrowserOpener starts a browser driver for a run.
type BrowserOpener func(cfg config.Config, opts models.BrowserOptions, logger zerolog.Logger) (browser.Browser, error)

type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
	ColorMode  ui.ColorMode

	// Now and OpenBrowser default to time.Now and browser.Open.
	Now         func() time.Time
	OpenBrowser BrowserOpener
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) openBrowser(cfg config.Config, opts models.BrowserOptions) (browser.Browser, error) {
	if c.OpenBrowser != nil {
		return c.OpenBrowser(cfg, opts, c.Logger)
	}
	return browser.Open(cfg, opts, c.Logger)
}

func (c *Context) warnf(format string, args ...any) {
	if c.UI != nil {
		c.UI.Warnf(format, args...)
	}
}

func (c *Context) infof(format string, args ...any) {
	if c.UI != nil {
		c.UI.Infof(format, args...)
	}
}

func (c *Context) successf(format string, args ...any) {
	if c.UI != nil {
		c.UI.Successf(format, args...)
	}
}
