package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "jobnotify"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	CookiesFileName = "cookies.json"
	PersistFileName = "persist.toml"

	DefaultJobsURL = "https://www.toptal.com/platform/talent/jobs"
)

const (
	DriverHTTP       = "http"
	DriverPlaywright = "playwright"
	DriverFile       = "file"
)

// Config is the settings object threaded through the pipeline.
type Config struct {
	JobsURL string        `json:"jobs_url"`
	TZ      TZConfig      `json:"tz"`
	Tags    TagsConfig    `json:"tags"`
	Persist PersistConfig `json:"persist"`
	Browser BrowserConfig `json:"browser"`
	Scrape  ScrapeConfig  `json:"scrape"`
	Notify  NotifyConfig  `json:"notify"`
	Debug   DebugConfig   `json:"debug"`
}

type TZConfig struct {
	Filter     bool   `json:"filter"`
	Home       string `json:"home"`
	ShiftEarly int    `json:"shift_early"`
	ShiftLate  int    `json:"shift_late"`
}

type TagsConfig struct {
	Filter  bool     `json:"filter"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

type PersistConfig struct {
	Path string `json:"path"`
}

type BrowserConfig struct {
	Driver         string   `json:"driver"`
	Headless       bool     `json:"headless"`
	CookiesPath    string   `json:"cookies_path"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	Proxies        []string `json:"proxies,omitempty"`
}

type ScrapeConfig struct {
	SkipMalformed bool `json:"skip_malformed"`
	MaxPages      int  `json:"max_pages"`
}

type NotifyConfig struct {
	Stdout   bool           `json:"stdout"`
	Format   string         `json:"format"`
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

type DebugConfig struct {
	Dir string `json:"dir,omitempty"`
}

func DefaultConfig() Config {
	dir, _ := ConfigDir()
	return Config{
		JobsURL: envString("JOBNOTIFY_JOBS_URL", DefaultJobsURL),
		TZ: TZConfig{
			Filter: envBool("JOBNOTIFY_TZ_FILTER", false),
			Home:   envString("JOBNOTIFY_TZ_HOME", ""),
		},
		Persist: PersistConfig{
			Path: envString("JOBNOTIFY_PERSIST_PATH", filepath.Join(dir, PersistFileName)),
		},
		Browser: BrowserConfig{
			Driver:         envString("JOBNOTIFY_DRIVER", DriverHTTP),
			Headless:       true,
			CookiesPath:    filepath.Join(dir, CookiesFileName),
			TimeoutSeconds: envInt("JOBNOTIFY_TIMEOUT", 30),
		},
		Notify: NotifyConfig{
			Stdout: true,
			Format: "text",
		},
	}
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// Load reads config.json from the config directory. A missing file yields the defaults.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) != 0 {
		if err := json5.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides lets secrets live in the environment (or a .env file)
// instead of config.json.
func applyEnvOverrides(cfg *Config) {
	if token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); token != "" {
		cfg.Notify.Telegram.Token = token
	}
	if chatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); chatID != "" {
		if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			cfg.Notify.Telegram.ChatID = id
		}
	}
}

// Validate reports settings that would make a run fail halfway.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JobsURL) == "" {
		return errors.New("jobs_url is required")
	}
	if c.TZ.ShiftEarly < 0 {
		return fmt.Errorf("tz.shift_early must be >= 0, got %d", c.TZ.ShiftEarly)
	}
	if c.TZ.ShiftLate < 0 {
		return fmt.Errorf("tz.shift_late must be >= 0, got %d", c.TZ.ShiftLate)
	}
	if c.TZ.Filter && strings.TrimSpace(c.TZ.Home) != "" {
		if _, err := time.LoadLocation(c.TZ.Home); err != nil {
			return fmt.Errorf("tz.home: %w", err)
		}
	}
	if strings.TrimSpace(c.Persist.Path) == "" {
		return errors.New("persist.path is required")
	}
	switch c.Browser.Driver {
	case DriverHTTP, DriverPlaywright, DriverFile:
	default:
		return fmt.Errorf("unknown browser.driver %q (want %s, %s or %s)", c.Browser.Driver, DriverHTTP, DriverPlaywright, DriverFile)
	}
	if c.Scrape.MaxPages < 0 {
		return fmt.Errorf("scrape.max_pages must be >= 0, got %d", c.Scrape.MaxPages)
	}
	if c.Notify.Telegram.Token != "" && c.Notify.Telegram.ChatID == 0 {
		return errors.New("notify.telegram.chat_id is required when a telegram token is set")
	}
	return nil
}

// Timeout is the per-navigation timeout.
func (c BrowserConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadProxies resolves proxies from the flag, JOBNOTIFY_PROXIES, browser.proxies
// or proxies.txt, in that order.
func LoadProxies(flagValue string, configured []string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("JOBNOTIFY_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	if len(configured) > 0 {
		return configured, nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
