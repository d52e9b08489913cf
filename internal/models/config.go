package models

import "time"

// BrowserOptions contains runtime options shared by browser drivers.
type BrowserOptions struct {
	Proxies     []string
	Timeout     time.Duration
	Headless    bool
	CookiesPath string
	SnapshotDir string
}
