package browser

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/config"
	"github.com/jimezsa/jobnotify/internal/models"
	"github.com/jimezsa/jobnotify/internal/network"
	"github.com/rs/zerolog"
)

// Options converts the browser settings into driver options.
func Options(cfg config.Config, proxies []string) models.BrowserOptions {
	return models.BrowserOptions{
		Proxies:     proxies,
		Timeout:     cfg.Browser.Timeout(),
		Headless:    cfg.Browser.Headless,
		CookiesPath: cfg.Browser.CookiesPath,
		SnapshotDir: cfg.Debug.Dir,
	}
}

// Open starts the driver named by cfg.Browser.Driver.
func Open(cfg config.Config, opts models.BrowserOptions, logger zerolog.Logger) (Browser, error) {
	driver := NormalizeDriver(cfg.Browser.Driver)
	logger = logger.With().Str("driver", driver).Logger()

	cookies, err := LoadCookies(opts.CookiesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load cookies %s", opts.CookiesPath)
	}

	switch driver {
	case config.DriverPlaywright:
		return LaunchPlaywright(opts, cookies, logger)
	case config.DriverFile:
		return NewFile(""), nil
	case config.DriverHTTP:
		var rotator *network.Rotator
		if len(opts.Proxies) > 0 {
			rotator, err = network.NewRotator(opts.Proxies, 10*time.Minute, logger)
			if err != nil {
				return nil, err
			}
		}
		client, err := network.NewClient(rotator, network.ClientOptions{Timeout: opts.Timeout, Logger: logger})
		if err != nil {
			return nil, err
		}
		h := NewHTTP(client, logger)
		if err := h.UseCookies(cfg.JobsURL, cookies); err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, errors.Newf("unknown driver: %s", cfg.Browser.Driver)
	}
}

func NormalizeDriver(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "requests", "net":
		return config.DriverHTTP
	case "chromium", "chrome", "pw":
		return config.DriverPlaywright
	case "files", "offline":
		return config.DriverFile
	default:
		return name
	}
}
