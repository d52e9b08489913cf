package network

import (
	"net/url"
	"strings"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var ErrNoProxies = errors.New("no proxies available")

var proxySchemes = map[string]bool{"http": true, "https": true, "socks5": true}

// Rotator hands out proxies round-robin. A proxy that answers 403 or 429 is
// benched for banDuration.
type Rotator struct {
	proxies     []*url.URL
	banDuration time.Duration
	bannedUntil map[string]time.Time
	index       int
	now         func() time.Time
	logger      zerolog.Logger
	mu          sync.Mutex
}

func NewRotator(raw []string, banDuration time.Duration, logger zerolog.Logger) (*Rotator, error) {
	r := &Rotator{
		banDuration: banDuration,
		bannedUntil: map[string]time.Time{},
		now:         time.Now,
		logger:      logger,
	}
	for _, proxy := range raw {
		u, err := parseProxy(proxy)
		if err != nil {
			return nil, err
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

func parseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "proxy %q", raw)
	}
	if !proxySchemes[strings.ToLower(u.Scheme)] || u.Host == "" {
		return nil, errors.WithHint(
			errors.Newf("proxy %q: want scheme://host:port", raw),
			"supported schemes are http, https and socks5",
		)
	}
	return u, nil
}

func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// Available counts the proxies that are not benched right now.
func (r *Rotator) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, proxy := range r.proxies {
		if !r.isBanned(proxy) {
			n++
		}
	}
	return n
}

func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, ErrNoProxies
	}
	for range r.proxies {
		proxy := r.proxies[r.index]
		r.index = (r.index + 1) % len(r.proxies)
		if !r.isBanned(proxy) {
			return proxy, nil
		}
	}
	return nil, ErrNoProxies
}

// Report records the status a proxy produced.
func (r *Rotator) Report(proxy *url.URL, status int) {
	if proxy == nil {
		return
	}
	if status != fhttp.StatusForbidden && status != fhttp.StatusTooManyRequests {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bannedUntil[proxy.String()] = r.now().Add(r.banDuration)
	r.logger.Warn().Str("proxy", proxy.Redacted()).Int("status", status).Dur("ban", r.banDuration).Msg("proxy benched")
}

func (r *Rotator) isBanned(proxy *url.URL) bool {
	until, ok := r.bannedUntil[proxy.String()]
	if !ok {
		return false
	}
	if r.now().After(until) {
		delete(r.bannedUntil, proxy.String())
		return false
	}
	return true
}
