// Package config provides JSON-based configuration loading for the
// scraper, with safe defaults and eager validation so a malformed config
// file fails at startup rather than mid-run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds every tunable the scraper's client construction accepts.
// The struct is loaded once at startup and then shared read-only across
// goroutines.
type Config struct {
	// Mode selects the execution backend: "speed" (plain net/http, no
	// fingerprinting) or "stealth" (TLS/H2 impersonation via a browser
	// profile).
	Mode string `json:"mode"`

	// Profile names the browser identity to impersonate in stealth mode.
	// Ignored in speed mode.
	Profile string `json:"profile"`

	// PersistCookies enables the in-memory cookie jar across requests.
	PersistCookies bool `json:"persist_cookies"`

	// RateLimit is the default requests/sec allowed per domain; 0 disables
	// rate limiting for domains without an entry in DomainRateLimit.
	RateLimit       float64            `json:"rate_limit"`
	DomainRateLimit map[string]float64 `json:"domain_rate_limit"`
	// GlobalRateLimit, if > 0, caps total throughput across every domain.
	GlobalRateLimit float64 `json:"global_rate_limit"`

	// Timeout bounds a single request end-to-end. ConnectTimeout is
	// validated and passed to scraper.Config, but neither transport applies
	// it: the dial and TLS handshake phases are not bounded by it, and it is
	// not used as the idle-connection timeout.
	Timeout        time.Duration `json:"timeout"`
	ConnectTimeout time.Duration `json:"connect_timeout"`

	// Retries is the number of additional attempts after the first.
	// RetryCodes lists the HTTP status codes that trigger a retry; empty
	// falls back to retry.DefaultRetryCodes. RetryBackoffBase is the base
	// of the exponential backoff between attempts.
	Retries          int     `json:"retries"`
	RetryCodes       []int   `json:"retry_codes"`
	RetryBackoffBase float64 `json:"retry_backoff_base"`

	// Proxies lists proxy URLs to pool. ProxyFile, if set and Proxies is
	// empty, is a newline-delimited file of the same. ProxyStrategy is
	// one of "round_robin", "random", "least_used". ProxyMaxFailures is
	// the number of consecutive failures before a proxy is disabled;
	// ProxyCooldown is how long it stays disabled.
	Proxies          []string      `json:"proxies"`
	ProxyFile        string        `json:"proxy_file"`
	ProxyStrategy    string        `json:"proxy_strategy"`
	ProxyMaxFailures int           `json:"proxy_max_failures"`
	ProxyCooldown    time.Duration `json:"proxy_cooldown"`

	// MaxWorkers is validated and shown on the dashboard but is not passed
	// to the client; Gather sizes its worker pool by its concurrency
	// argument. DefaultConcurrency is Gather's concurrency when a caller
	// doesn't specify one.
	MaxWorkers         int `json:"max_workers"`
	DefaultConcurrency int `json:"default_concurrency"`

	// MinDelay/MaxDelay bound a uniform-random pre-request sleep applied
	// only in stealth mode, simulating human think time between requests.
	MinDelay time.Duration `json:"min_delay"`
	MaxDelay time.Duration `json:"max_delay"`

	VerifySSL       bool `json:"verify_ssl"`
	FollowRedirects bool `json:"follow_redirects"`
	MaxRedirects    int  `json:"max_redirects"`

	// HTTPVersion is one of "1.1", "2", "auto".
	HTTPVersion string `json:"http_version"`

	DefaultHeaders map[string]string `json:"default_headers"`

	// TargetURLs seeds the batch of URLs main.go scrapes on startup; it
	// has no equivalent in the client constructor itself.
	TargetURLs []string `json:"target_urls"`
}

var validModes = map[string]bool{"speed": true, "stealth": true}
var validHTTPVersions = map[string]bool{"1.1": true, "2": true, "auto": true}
var validProxyStrategies = map[string]bool{"": true, "round_robin": true, "random": true, "least_used": true}

// Validate checks the fields that must be internally consistent before a
// Config is handed to scraper.NewClient: unknown mode/http_version/
// proxy_strategy values, and negative durations or counts.
func (c *Config) Validate() error {
	if c.Mode != "" && !validModes[c.Mode] {
		return fmt.Errorf("config: invalid mode %q, want \"speed\" or \"stealth\"", c.Mode)
	}
	if c.HTTPVersion != "" && !validHTTPVersions[c.HTTPVersion] {
		return fmt.Errorf("config: invalid http_version %q, want \"1.1\", \"2\", or \"auto\"", c.HTTPVersion)
	}
	if !validProxyStrategies[strings.ToLower(c.ProxyStrategy)] {
		return fmt.Errorf("config: invalid proxy_strategy %q", c.ProxyStrategy)
	}
	if c.Timeout < 0 || c.ConnectTimeout < 0 || c.ProxyCooldown < 0 || c.MinDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("config: durations must be non-negative")
	}
	if c.MaxDelay > 0 && c.MaxDelay < c.MinDelay {
		return fmt.Errorf("config: max_delay must be >= min_delay")
	}
	if c.Retries < 0 || c.MaxWorkers < 0 || c.DefaultConcurrency < 0 || c.ProxyMaxFailures < 0 || c.MaxRedirects < 0 {
		return fmt.Errorf("config: counts must be non-negative")
	}
	if len(c.Proxies) > 0 && c.ProxyFile != "" {
		return fmt.Errorf("config: proxies and proxy_file are mutually exclusive")
	}
	return nil
}

// LoadConfig reads a JSON file at filename and deserialises it into a
// Config, rejecting unknown fields so a typo in a config file fails at
// startup instead of being silently ignored.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename) // #nosec G304 -- filename is caller-provided config path
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", filename, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a *Config pre-filled with production-sensible
// defaults. Callers are free to mutate the returned struct; each call
// returns a fresh independent copy.
func DefaultConfig() *Config {
	return &Config{
		Mode:               "speed",
		Profile:            "chrome_120",
		RateLimit:          0,
		Timeout:            30 * time.Second,
		ConnectTimeout:     10 * time.Second,
		Retries:            3,
		RetryBackoffBase:   2.0,
		ProxyStrategy:      "round_robin",
		ProxyMaxFailures:   3,
		ProxyCooldown:      5 * time.Minute,
		MaxWorkers:         50,
		DefaultConcurrency: 10,
		VerifySSL:          true,
		FollowRedirects:    true,
		MaxRedirects:       10,
		HTTPVersion:        "auto",
	}
}

// RetryCodeSet converts RetryCodes into the map shape retry.Config expects,
// or nil if RetryCodes is empty (letting the retry package apply its own
// default set).
func (c *Config) RetryCodeSet() map[int]bool {
	if len(c.RetryCodes) == 0 {
		return nil
	}
	set := make(map[int]bool, len(c.RetryCodes))
	for _, code := range c.RetryCodes {
		set[code] = true
	}
	return set
}
